package domain

import "time"

type DocumentType string

const (
	DocumentTypePDF  DocumentType = "pdf"
	DocumentTypeDOCX DocumentType = "docx"
	DocumentTypeTXT  DocumentType = "txt"
)

// Document is an uploaded source file. Content is filled by extraction and is
// immutable once Processed is set.
type Document struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       DocumentType `json:"type"`
	Size       int64        `json:"size"`
	UploadedAt time.Time    `json:"uploadedAt"`
	Content    string       `json:"content,omitempty"`
	Processed  bool         `json:"processed"`
}

type Course struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Modules      []Module      `json:"modules"`
	Documents    []Document    `json:"documents"`
	Content      CourseContent `json:"content"`
	GeneratedAt  time.Time     `json:"generatedAt"`
	LastModified time.Time     `json:"lastModified"`
}

// Module is one curriculum unit. Duration is in hours and never below 1.
type Module struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Prerequisites []string  `json:"prerequisites"`
	Knowledge     []string  `json:"knowledge"`
	Skills        []string  `json:"skills"`
	Duration      float64   `json:"duration"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CourseContent struct {
	Introduction string          `json:"introduction"`
	Sections     []CourseSection `json:"sections"`
	Conclusion   string          `json:"conclusion"`
	QCM          []QCMQuestion   `json:"qcm"`
	Resources    []string        `json:"resources"`
}

// CourseSection. Explanation is the only field enrichment may rewrite.
type CourseSection struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Explanation   string   `json:"explanation"`
	Examples      []string `json:"examples"`
	Warnings      []string `json:"warnings"`
	Illustrations []string `json:"illustrations,omitempty"`
}

// QCMQuestion holds exactly one correct option; CorrectAnswer is a 0-based index into Options.
type QCMQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type ProcessingStats struct {
	ProcessingTimeMs   int64    `json:"processingTimeMs"`
	DocumentsProcessed int      `json:"documentsProcessed"`
	WordCount          int      `json:"wordCount"`
	LineCount          int      `json:"lineCount"`
	ParagraphCount     int      `json:"paragraphCount"`
	HeadingCount       int      `json:"headingCount"`
	ConceptsFound      int      `json:"conceptsFound"`
	KeywordsFound      int      `json:"keywordsFound"`
	SectionsGenerated  int      `json:"sectionsGenerated"`
	ModulesGenerated   int      `json:"modulesGenerated"`
	QuestionsGenerated int      `json:"questionsGenerated"`
	Concepts           []string `json:"concepts"`
	Keywords           []string `json:"keywords"`
	Seed               int64    `json:"seed"`
	CacheHit           bool     `json:"cacheHit"`
	EnrichedSections   int      `json:"enrichedSections"`
}

// GenerationResult is transient; callers decide whether to persist it.
type GenerationResult struct {
	Course          Course          `json:"course"`
	ProcessingStats ProcessingStats `json:"processingStats"`
	NormRulesUsed   int             `json:"normRulesUsed"`
	GeneratedWithAI bool            `json:"generatedWithAI"`
}

// EnsureNonNil replaces nil slices with empty ones so JSON consumers always see [].
func (c *CourseContent) EnsureNonNil() {
	if c.Sections == nil {
		c.Sections = []CourseSection{}
	}
	if c.QCM == nil {
		c.QCM = []QCMQuestion{}
	}
	if c.Resources == nil {
		c.Resources = []string{}
	}
	for i := range c.Sections {
		if c.Sections[i].Examples == nil {
			c.Sections[i].Examples = []string{}
		}
		if c.Sections[i].Warnings == nil {
			c.Sections[i].Warnings = []string{}
		}
	}
}

// Clone returns a deep copy of the course so collaborators can edit without aliasing.
func (c Course) Clone() Course {
	out := c
	out.Modules = make([]Module, len(c.Modules))
	for i, m := range c.Modules {
		m.Prerequisites = append([]string{}, m.Prerequisites...)
		m.Knowledge = append([]string{}, m.Knowledge...)
		m.Skills = append([]string{}, m.Skills...)
		out.Modules[i] = m
	}
	out.Documents = append([]Document{}, c.Documents...)
	out.Content.Sections = make([]CourseSection, len(c.Content.Sections))
	for i, s := range c.Content.Sections {
		s.Examples = append([]string{}, s.Examples...)
		s.Warnings = append([]string{}, s.Warnings...)
		if s.Illustrations != nil {
			s.Illustrations = append([]string{}, s.Illustrations...)
		}
		out.Content.Sections[i] = s
	}
	out.Content.QCM = make([]QCMQuestion, len(c.Content.QCM))
	for i, q := range c.Content.QCM {
		q.Options = append([]string{}, q.Options...)
		out.Content.QCM[i] = q
	}
	out.Content.Resources = append([]string{}, c.Content.Resources...)
	return out
}
