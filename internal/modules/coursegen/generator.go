// Package coursegen turns extracted document text and a norm corpus into a
// complete course. Generator is the pure, synchronous pipeline; Service wraps
// it with extraction, caching, enrichment and persistence.
package coursegen

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/concepts"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/normmatch"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/quiz"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/structure"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/textnorm"
)

const defaultCourseTitle = "Nouveau cours"

type Request struct {
	Documents    []domain.Document
	Settings     domain.GenerationSettings
	ActiveNormID string
	// Seed overrides the content-derived quiz seed when set.
	Seed *int64
}

type Generator struct {
	matcher *normmatch.Matcher
	now     func() time.Time
	newID   func() string
}

type GeneratorOption func(*Generator)

func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func WithIDSource(newID func() string) GeneratorOption {
	return func(g *Generator) {
		if newID != nil {
			g.newID = newID
		}
	}
}

// NewGenerator accepts a nil matcher; generation then uses no rules.
func NewGenerator(matcher *normmatch.Matcher, opts ...GeneratorOption) *Generator {
	g := &Generator{
		matcher: matcher,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate never fails. Sparse or empty input yields a skeleton course.
func (g *Generator) Generate(req Request) *domain.GenerationResult {
	started := time.Now()
	settings := req.Settings.Normalized()

	text := textnorm.Normalize(joinContents(req.Documents))
	ex := concepts.Extract(text.Text(), concepts.InternalTopN)
	matched := g.matcher.Match(ex.Terms(), normmatch.Options{NormID: req.ActiveNormID})

	title := courseTitle(text, req.Documents, ex)
	built := structure.Build(structure.Input{
		Title:     title,
		Text:      text,
		Concepts:  ex.Words(),
		Rules:     matched.Rules(),
		Documents: req.Documents,
		Settings:  settings,
	})

	seed := Seed(text, settings, req.ActiveNormID)
	if req.Seed != nil {
		seed = *req.Seed
	}
	questions := quiz.Synthesize(quiz.Input{
		Plans:    built.Plans,
		Concepts: ex.Words(),
		Settings: settings,
	}, rand.New(rand.NewSource(seed)))

	now := g.now()
	modules := built.Modules
	for i := range modules {
		modules[i].CreatedAt = now
		modules[i].UpdatedAt = now
	}
	content := domain.CourseContent{
		Introduction: built.Introduction,
		Sections:     built.Sections(),
		Conclusion:   built.Conclusion,
		QCM:          questions,
		Resources:    built.Resources,
	}
	content.EnsureNonNil()

	docs := append([]domain.Document{}, req.Documents...)
	course := domain.Course{
		ID:           g.newID(),
		Title:        title,
		Modules:      modules,
		Documents:    docs,
		Content:      content,
		GeneratedAt:  now,
		LastModified: now,
	}

	return &domain.GenerationResult{
		Course: course,
		ProcessingStats: domain.ProcessingStats{
			ProcessingTimeMs:   time.Since(started).Milliseconds(),
			DocumentsProcessed: countWithContent(req.Documents),
			WordCount:          ex.WordCount,
			LineCount:          len(text.Lines),
			ParagraphCount:     len(text.Paragraphs),
			HeadingCount:       len(text.Headings()),
			ConceptsFound:      len(ex.Concepts),
			KeywordsFound:      len(ex.Keywords),
			SectionsGenerated:  len(content.Sections),
			ModulesGenerated:   len(modules),
			QuestionsGenerated: len(questions),
			Concepts:           ex.Words(),
			Keywords:           append([]string{}, ex.Keywords...),
			Seed:               seed,
		},
		NormRulesUsed:   len(built.RulesUsed),
		GeneratedWithAI: false,
	}
}

// Seed is an FNV-64a digest of the normalized text, the settings and the norm
// id, so identical inputs always draw the same quiz.
func Seed(text textnorm.Normalized, s domain.GenerationSettings, normID string) int64 {
	h := fnv.New64a()
	for _, l := range text.Lines {
		h.Write([]byte(l.Text))
		h.Write([]byte{'\n'})
	}
	fmt.Fprintf(h, "%t|%t|%t|%t|%t|%d|%s|%s",
		s.IncludeQCM, s.IncludeIntroduction, s.IncludeConclusion,
		s.AddExamples, s.AddWarnings, s.QCMQuestionCount, s.CourseStyle, normID)
	return int64(h.Sum64())
}

func joinContents(docs []domain.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Content) != "" {
			parts = append(parts, d.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func countWithContent(docs []domain.Document) int {
	n := 0
	for _, d := range docs {
		if strings.TrimSpace(d.Content) != "" {
			n++
		}
	}
	return n
}

// courseTitle: first heading, else first document name, else top concept.
func courseTitle(text textnorm.Normalized, docs []domain.Document, ex concepts.Extraction) string {
	if hs := text.Headings(); len(hs) > 0 {
		return hs[0].Text
	}
	for _, d := range docs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		if base := strings.TrimSuffix(name, filepath.Ext(name)); base != "" {
			return base
		}
		return name
	}
	if len(ex.Concepts) > 0 {
		return "Cours : " + ex.Concepts[0].Word
	}
	return defaultCourseTitle
}
