package domain

import "strings"

type CourseStyle string

const (
	CourseStyleStructured     CourseStyle = "structured"
	CourseStyleConversational CourseStyle = "conversational"
	CourseStyleTechnical      CourseStyle = "technical"
)

const (
	MinQCMQuestionCount = 5
	MaxQCMQuestionCount = 50
)

// GenerationSettings is supplied per generation call and never mutated by the generator.
type GenerationSettings struct {
	IncludeQCM          bool        `json:"includeQCM" yaml:"includeQCM"`
	IncludeIntroduction bool        `json:"includeIntroduction" yaml:"includeIntroduction"`
	IncludeConclusion   bool        `json:"includeConclusion" yaml:"includeConclusion"`
	AddExamples         bool        `json:"addExamples" yaml:"addExamples"`
	AddWarnings         bool        `json:"addWarnings" yaml:"addWarnings"`
	QCMQuestionCount    int         `json:"qcmQuestionCount" yaml:"qcmQuestionCount"`
	CourseStyle         CourseStyle `json:"courseStyle" yaml:"courseStyle"`
}

func DefaultGenerationSettings() GenerationSettings {
	return GenerationSettings{
		IncludeQCM:          true,
		IncludeIntroduction: true,
		IncludeConclusion:   true,
		AddExamples:         true,
		AddWarnings:         true,
		QCMQuestionCount:    10,
		CourseStyle:         CourseStyleStructured,
	}
}

// Normalized returns a copy with the question count clamped to [5, 50] and an
// unknown style replaced by structured.
func (s GenerationSettings) Normalized() GenerationSettings {
	out := s
	if out.QCMQuestionCount < MinQCMQuestionCount {
		out.QCMQuestionCount = MinQCMQuestionCount
	}
	if out.QCMQuestionCount > MaxQCMQuestionCount {
		out.QCMQuestionCount = MaxQCMQuestionCount
	}
	out.CourseStyle = ParseCourseStyle(string(out.CourseStyle))
	return out
}

func ParseCourseStyle(raw string) CourseStyle {
	switch CourseStyle(strings.ToLower(strings.TrimSpace(raw))) {
	case CourseStyleConversational:
		return CourseStyleConversational
	case CourseStyleTechnical:
		return CourseStyleTechnical
	default:
		return CourseStyleStructured
	}
}
