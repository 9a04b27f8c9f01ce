// Package quiz derives multiple-choice questions from built sections and the
// rules they incorporate.
package quiz

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/ids"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/structure"
)

const (
	Distractors  = 3
	answerRunes  = 180
	fallbackSeed = 1
)

var stockStatements = []string{
	"Aucune mesure particulière n'est requise dans ce cas.",
	"Cette exigence ne concerne que les installations domestiques.",
	"Cette étape peut être omise si l'intervention est de courte durée.",
	"Seul un organisme externe est concerné par cette exigence.",
	"La vérification est facultative lorsque l'équipe est expérimentée.",
}

type Input struct {
	Plans    []structure.SectionPlan
	Concepts []string
	Settings domain.GenerationSettings
}

// candidate is one answerable statement. owner is the index of the plan it
// was taken from; a rule candidate belongs to the plan its rule was assigned to.
type candidate struct {
	owner       int
	stem        string
	answer      string
	explanation string
}

// Synthesize returns min(QCMQuestionCount, feasible) questions, or none when
// the quiz is disabled. A nil rng falls back to a fixed seed.
func Synthesize(in Input, rng *rand.Rand) []domain.QCMQuestion {
	out := make([]domain.QCMQuestion, 0)
	settings := in.Settings.Normalized()
	if !in.Settings.IncludeQCM {
		return out
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(fallbackSeed))
	}
	cands := candidates(in.Plans, settings.CourseStyle)
	owned := ownedText(in.Plans)
	n := min(settings.QCMQuestionCount, len(cands))
	for i := 0; i < n; i++ {
		c := cands[i]
		opts := options(c, cands, owned[c.owner], in.Concepts, rng)
		out = append(out, domain.QCMQuestion{
			ID:            ids.Question(i, c.stem),
			Question:      c.stem,
			Options:       opts.list,
			CorrectAnswer: opts.correct,
			Explanation:   c.explanation,
		})
	}
	return out
}

// candidates: one per section, then one per incorporated rule. Answers that
// canonicalize to an earlier answer are dropped, so every question tests a
// distinct statement.
func candidates(plans []structure.SectionPlan, style domain.CourseStyle) []candidate {
	out := make([]candidate, 0, len(plans))
	answers := map[string]bool{}
	fresh := func(ans string) bool {
		k := canonical(ans)
		if k == "" || answers[k] {
			return false
		}
		answers[k] = true
		return true
	}
	for i, p := range plans {
		src := p.Source
		if src == "" {
			src = p.Section.Explanation
		}
		ans := firstSentence(src)
		if !fresh(ans) {
			continue
		}
		out = append(out, candidate{
			owner:       i,
			stem:        sectionStem(p.Section.Title, style),
			answer:      ans,
			explanation: fmt.Sprintf("Cette affirmation est tirée de la section « %s ».", p.Section.Title),
		})
	}
	seen := map[string]bool{}
	for i, p := range plans {
		for _, r := range p.Rules {
			key := r.NormID + "\x00" + r.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			ans := firstSentence(r.Content)
			if !fresh(ans) {
				continue
			}
			out = append(out, candidate{
				owner:       i,
				stem:        ruleStem(r, style),
				answer:      ans,
				explanation: fmt.Sprintf("Référence : %s.", ruleLabel(r)),
			})
		}
	}
	return out
}

func sectionStem(title string, style domain.CourseStyle) string {
	switch style {
	case domain.CourseStyleConversational:
		return fmt.Sprintf("D'après ce que nous avons vu dans « %s », quelle affirmation est juste ?", title)
	case domain.CourseStyleTechnical:
		return fmt.Sprintf("Quel énoncé est conforme à la section « %s » ?", title)
	default:
		return fmt.Sprintf("Quelle affirmation correspond à la section « %s » ?", title)
	}
}

func ruleStem(r domain.NormRule, style domain.CourseStyle) string {
	ref := strings.TrimSpace(r.Article)
	if ref == "" {
		ref = strings.TrimSpace(r.Titre)
	}
	if ref == "" {
		ref = r.ID
	}
	if style == domain.CourseStyleTechnical {
		return fmt.Sprintf("Quelle exigence énonce %s ?", ref)
	}
	return fmt.Sprintf("Que prévoit %s ?", ref)
}

type optionSet struct {
	list    []string
	correct int
}

// ownedText is, per plan, the canonical text a learner studies in that
// section: its source, explanation, examples, warnings and rule contents.
func ownedText(plans []structure.SectionPlan) []string {
	out := make([]string, len(plans))
	for i, p := range plans {
		parts := []string{p.Source, p.Section.Explanation}
		parts = append(parts, p.Section.Examples...)
		parts = append(parts, p.Section.Warnings...)
		for _, r := range p.Rules {
			parts = append(parts, r.Content)
		}
		out[i] = canonical(strings.Join(parts, " "))
	}
	return out
}

// options draws up to three distractors from answers of other sections, then
// concept perturbations, then stock statements. A distractor is never taken
// from the question's own section nor found in that section's text, so the
// correct option is the only true one.
func options(c candidate, cands []candidate, owned string, concepts []string, rng *rand.Rand) optionSet {
	answer := c.answer
	used := map[string]bool{canonical(answer): true}
	distractors := make([]string, 0, Distractors)
	take := func(s string) {
		if len(distractors) == Distractors {
			return
		}
		k := canonical(s)
		if k == "" || used[k] || strings.Contains(owned, k) {
			return
		}
		used[k] = true
		distractors = append(distractors, s)
	}

	for _, j := range rng.Perm(len(cands)) {
		if cands[j].owner != c.owner {
			take(cands[j].answer)
		}
	}
	for _, c := range concepts {
		take(fmt.Sprintf("La notion de %s n'intervient pas dans ce contexte.", c))
	}
	for _, s := range stockStatements {
		take(s)
	}

	pos := rng.Intn(len(distractors) + 1)
	list := make([]string, 0, len(distractors)+1)
	list = append(list, distractors[:pos]...)
	list = append(list, answer)
	list = append(list, distractors[pos:]...)
	return optionSet{list: list, correct: pos}
}

// canonical folds case, punctuation and spacing for duplicate detection.
func canonical(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for i, r := range s {
		if (r == '.' || r == '!' || r == '?') && i > 0 {
			next := i + utf8.RuneLen(r)
			if next >= len(s) || s[next] == ' ' {
				s = s[:next]
				break
			}
		}
	}
	if utf8.RuneCountInString(s) > answerRunes {
		r := []rune(s)[:answerRunes]
		s = strings.TrimSpace(string(r)) + "…"
	}
	return s
}

func ruleLabel(r domain.NormRule) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.NormID, r.Article, r.Titre} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return r.ID
	}
	return strings.Join(parts, " ")
}
