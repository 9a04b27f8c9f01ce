// Package structure builds modules and sections from headings, concepts and
// matched rules, honoring the generation settings.
package structure

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/ids"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/textnorm"
)

const (
	MaxHeadingSeeds = 12
	MaxConceptSeeds = 5

	windowRunes      = 600
	excerptRunes     = 160
	maxRuleExamples  = 2
	minOverlapRunes  = 4
	minutesPerSect   = 30
	wordsPerMinute   = 150
	knowledgePerUnit = 6
)

var moduleOpener = regexp.MustCompile(`(?i)^(module|chapitre|partie)\b`)

var titleTemplates = map[domain.CourseStyle][]string{
	domain.CourseStyleStructured: {
		"Introduction à %s",
		"Principes de %s",
		"Mise en œuvre de %s",
		"Contrôle de %s",
		"Synthèse sur %s",
	},
	domain.CourseStyleConversational: {
		"Introduction à %s",
		"Comprendre %s",
		"%s au quotidien",
		"Bien appliquer %s",
		"L'essentiel sur %s",
	},
	domain.CourseStyleTechnical: {
		"Introduction à %s",
		"Spécifications : %s",
		"Procédure : %s",
		"Vérification : %s",
		"Référentiel : %s",
	},
}

// markers of rules that carry a safety or regulatory obligation
var warningMarkers = []string{
	"sécurité", "securite", "safety", "danger", "risque", "interdit",
	"obligatoire", "réglementaire", "reglementaire", "doit",
}

type Input struct {
	Title     string
	Text      textnorm.Normalized
	Concepts  []string
	Rules     []domain.NormRule
	Documents []domain.Document
	Settings  domain.GenerationSettings
}

// SectionPlan is a built section plus the material it was derived from.
type SectionPlan struct {
	Section domain.CourseSection
	Source  string
	Concept string
	Rules   []domain.NormRule
}

type Output struct {
	Modules      []domain.Module
	Plans        []SectionPlan
	RulesUsed    []domain.NormRule
	Introduction string
	Conclusion   string
	Resources    []string
}

func (o Output) Sections() []domain.CourseSection {
	out := make([]domain.CourseSection, len(o.Plans))
	for i, p := range o.Plans {
		out[i] = p.Section
	}
	return out
}

type seedKind int

const (
	seedHeading seedKind = iota
	seedConcept
	seedRule
)

type seed struct {
	kind    seedKind
	title   string
	body    []string
	concept string
	tokens  map[string]bool
	rules   []domain.NormRule
}

func Build(in Input) Output {
	settings := in.Settings.Normalized()
	seeds := buildSeeds(in, settings.CourseStyle)
	used := assignRules(seeds, in.Rules)

	out := Output{
		Modules:   []domain.Module{},
		Plans:     make([]SectionPlan, 0, len(seeds)),
		RulesUsed: used,
	}
	for i, s := range seeds {
		out.Plans = append(out.Plans, buildPlan(i, s, in.Concepts, settings))
	}
	out.Modules = buildModules(seeds, out.Plans, in.Concepts)

	title := strings.TrimSpace(in.Title)
	if settings.IncludeIntroduction {
		out.Introduction = introduction(title, out.Plans, in.Concepts, len(used), settings.CourseStyle)
	}
	if settings.IncludeConclusion {
		out.Conclusion = conclusion(title, out.Plans, settings.CourseStyle)
	}
	out.Resources = resources(in.Documents, used)
	return out
}

// buildSeeds prefers headings, then concepts, then rule titles.
func buildSeeds(in Input, style domain.CourseStyle) []*seed {
	seeds := make([]*seed, 0)
	var preamble []string
	seen := map[string]bool{}
	for _, seg := range textnorm.Segments(in.Text) {
		if seg.Heading == "" {
			preamble = append(preamble, seg.Body...)
			continue
		}
		key := strings.ToLower(seg.Heading)
		if seen[key] {
			// duplicate headings fold their body into the first occurrence
			for _, s := range seeds {
				if strings.ToLower(s.title) == key {
					s.body = append(s.body, seg.Body...)
				}
			}
			continue
		}
		if len(seeds) >= MaxHeadingSeeds {
			seeds[len(seeds)-1].body = append(seeds[len(seeds)-1].body, seg.Body...)
			continue
		}
		seen[key] = true
		seeds = append(seeds, &seed{kind: seedHeading, title: seg.Heading, body: append([]string{}, seg.Body...)})
	}
	if len(seeds) > 0 {
		if len(preamble) > 0 {
			seeds[0].body = append(preamble, seeds[0].body...)
		}
	} else if len(in.Concepts) > 0 {
		templates := titleTemplates[style]
		claimed := map[int]bool{}
		for i, c := range in.Concepts {
			if i >= MaxConceptSeeds {
				break
			}
			seeds = append(seeds, &seed{
				kind:    seedConcept,
				title:   conceptTitle(templates[i%len(templates)], c),
				body:    linesMentioning(in.Text, c, claimed),
				concept: c,
			})
		}
	} else {
		for _, r := range in.Rules {
			if len(seeds) >= MaxHeadingSeeds {
				break
			}
			t := strings.TrimSpace(r.Titre)
			if t == "" {
				t = strings.TrimSpace(r.Article)
			}
			if t == "" || seen[strings.ToLower(t)] {
				continue
			}
			seen[strings.ToLower(t)] = true
			seeds = append(seeds, &seed{kind: seedRule, title: t})
		}
	}
	for _, s := range seeds {
		s.tokens = tokenSet(s.title + " " + strings.Join(s.body, " ") + " " + s.concept)
	}
	return seeds
}

// linesMentioning returns up to three unclaimed lines containing concept and
// claims them; a concept whose lines were all taken gets no body.
func linesMentioning(n textnorm.Normalized, concept string, claimed map[int]bool) []string {
	out := make([]string, 0)
	for i, l := range n.Lines {
		if claimed[i] || !strings.Contains(strings.ToLower(l.Text), concept) {
			continue
		}
		claimed[i] = true
		out = append(out, l.Text)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// conceptTitle fills a title template, eliding "de" before a vowel or mute h
// ("Principes d'électrique") and capitalizing the result.
func conceptTitle(tpl, concept string) string {
	if strings.Contains(tpl, "de %s") && elides(concept) {
		return upperFirst(strings.Replace(tpl, "de %s", "d'"+concept, 1))
	}
	return upperFirst(fmt.Sprintf(tpl, concept))
}

func elides(word string) bool {
	r, _ := utf8.DecodeRuneInString(strings.ToLower(word))
	return strings.ContainsRune("aàâäeéèêëiîïoôöuùûüyœæh", r)
}

// assignRules gives every rule to exactly one seed: the one sharing most
// tokens, or round robin when nothing overlaps. Returns the rules incorporated.
func assignRules(seeds []*seed, rules []domain.NormRule) []domain.NormRule {
	used := make([]domain.NormRule, 0, len(rules))
	if len(seeds) == 0 {
		return used
	}
	rr := 0
	for _, r := range rules {
		rt := tokenSet(r.Titre + " " + r.Article + " " + r.Content + " " + strings.Join(r.Keywords, " "))
		best, bestScore := -1, 0
		for i, s := range seeds {
			score := 0
			for tok := range rt {
				if s.tokens[tok] {
					score++
				}
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			best = rr % len(seeds)
			rr++
		}
		seeds[best].rules = append(seeds[best].rules, r)
		used = append(used, r)
	}
	return used
}

func buildPlan(pos int, s *seed, concepts []string, settings domain.GenerationSettings) SectionPlan {
	source := truncateRunes(strings.Join(s.body, " "), windowRunes)
	sec := domain.CourseSection{
		ID:          ids.Section(pos, s.title),
		Title:       s.title,
		Explanation: explanation(s, source, settings.CourseStyle),
		Examples:    []string{},
		Warnings:    []string{},
	}
	if settings.AddExamples {
		sec.Examples = examples(pos, s, concepts)
	}
	if settings.AddWarnings {
		sec.Warnings = warnings(s.rules)
	}
	return SectionPlan{Section: sec, Source: source, Concept: s.concept, Rules: s.rules}
}

func explanation(s *seed, window string, style domain.CourseStyle) string {
	var b strings.Builder
	if window == "" {
		subject := s.concept
		if subject == "" {
			subject = s.title
		}
		switch style {
		case domain.CourseStyleConversational:
			fmt.Fprintf(&b, "Voyons ensemble ce que recouvre %s et pourquoi cela compte sur le terrain.", subject)
		case domain.CourseStyleTechnical:
			fmt.Fprintf(&b, "Cette section définit %s, son périmètre d'application et les points de contrôle associés.", subject)
		default:
			fmt.Fprintf(&b, "Cette section présente %s et ses enjeux pratiques.", subject)
		}
	} else {
		switch style {
		case domain.CourseStyleConversational:
			fmt.Fprintf(&b, "Parlons de « %s ». %s", s.title, window)
		case domain.CourseStyleTechnical:
			fmt.Fprintf(&b, "« %s » : %s", s.title, window)
		default:
			fmt.Fprintf(&b, "Cette section traite de « %s ». %s", s.title, window)
		}
	}
	if len(s.rules) > 0 {
		refs := make([]string, 0, len(s.rules))
		for _, r := range s.rules {
			refs = append(refs, ruleLabel(r))
		}
		b.WriteString(" Références normatives : ")
		b.WriteString(strings.Join(refs, " ; "))
		b.WriteString(".")
	}
	return b.String()
}

func examples(pos int, s *seed, concepts []string) []string {
	out := make([]string, 0, maxRuleExamples)
	for _, r := range s.rules {
		if len(out) == maxRuleExamples {
			break
		}
		excerpt := truncateRunes(strings.TrimSpace(r.Content), excerptRunes)
		if excerpt == "" {
			continue
		}
		out = append(out, fmt.Sprintf("Exemple (%s) : %s", ruleRef(r), excerpt))
	}
	if len(out) > 0 {
		return out
	}
	switch n := len(concepts); {
	case n >= 2:
		a := concepts[pos%n]
		b := concepts[(pos+1)%n]
		out = append(out, fmt.Sprintf("Exemple : relier %s et %s dans une situation de travail.", a, b))
	case n == 1:
		out = append(out, fmt.Sprintf("Exemple : appliquer %s sur un cas concret.", concepts[0]))
	default:
		out = append(out, fmt.Sprintf("Exemple : mettre en pratique « %s ».", s.title))
	}
	return out
}

func warnings(rules []domain.NormRule) []string {
	out := make([]string, 0)
	for _, r := range rules {
		if !isSafetyRule(r) {
			continue
		}
		text := truncateRunes(strings.TrimSpace(r.Content), excerptRunes)
		if text == "" {
			text = strings.TrimSpace(r.Titre)
		}
		out = append(out, fmt.Sprintf("Attention (%s) : %s", ruleRef(r), text))
	}
	return out
}

func isSafetyRule(r domain.NormRule) bool {
	hay := strings.ToLower(r.Category + " " + r.Content + " " + strings.Join(r.Keywords, " "))
	for _, m := range warningMarkers {
		if strings.Contains(hay, m) {
			return true
		}
	}
	return false
}

// buildModules groups heading seeds under Module/Chapitre/Partie openers;
// concept and rule seeds map one to one.
func buildModules(seeds []*seed, plans []SectionPlan, concepts []string) []domain.Module {
	type group struct {
		title string
		plans []SectionPlan
		words int
	}
	groups := make([]*group, 0)
	for i, s := range seeds {
		opens := s.kind != seedHeading || moduleOpener.MatchString(s.title) || len(groups) == 0
		if opens {
			groups = append(groups, &group{title: s.title})
		}
		g := groups[len(groups)-1]
		g.plans = append(g.plans, plans[i])
		g.words += len(strings.Fields(strings.Join(s.body, " ")))
	}

	out := make([]domain.Module, 0, len(groups))
	prev := ""
	for i, g := range groups {
		m := domain.Module{
			ID:            ids.Module(i, g.title),
			Title:         g.title,
			Prerequisites: []string{},
			Knowledge:     []string{},
			Skills:        []string{},
			Duration:      Duration(len(g.plans), g.words),
		}
		if prev != "" {
			m.Prerequisites = append(m.Prerequisites, prev)
		}
		for _, p := range g.plans {
			if len(m.Knowledge) < knowledgePerUnit {
				m.Knowledge = append(m.Knowledge, p.Section.Title)
			}
		}
		m.Skills = skills(g.plans, concepts)
		out = append(out, m)
		prev = g.title
	}
	return out
}

func skills(plans []SectionPlan, concepts []string) []string {
	out := make([]string, 0)
	seen := map[string]bool{}
	var text strings.Builder
	for _, p := range plans {
		text.WriteString(strings.ToLower(p.Section.Title + " " + p.Source + " " + p.Concept))
		text.WriteByte(' ')
	}
	hay := text.String()
	for _, c := range concepts {
		if !seen[c] && strings.Contains(hay, c) {
			seen[c] = true
			out = append(out, fmt.Sprintf("Maîtriser %s", c))
		}
	}
	for _, p := range plans {
		for _, r := range p.Rules {
			label := fmt.Sprintf("Appliquer %s", ruleRef(r))
			if !seen[label] {
				seen[label] = true
				out = append(out, label)
			}
		}
	}
	if len(out) == 0 && len(plans) > 0 {
		out = append(out, fmt.Sprintf("Expliquer « %s »", plans[0].Section.Title))
	}
	return out
}

// Duration estimates hours from 30 minutes per section plus reading time,
// rounded up to the half hour and never below one hour.
func Duration(sections, words int) float64 {
	minutes := minutesPerSect*sections + words/wordsPerMinute
	hours := math.Ceil(float64(minutes)/30) / 2
	if hours < 1 {
		return 1
	}
	return hours
}

func introduction(title string, plans []SectionPlan, concepts []string, rules int, style domain.CourseStyle) string {
	if title == "" {
		title = "ce cours"
	}
	if len(plans) == 0 {
		return fmt.Sprintf("Bienvenue dans %s. Aucun contenu source exploitable n'a été fourni : ajoutez des documents pour générer les sections.", quoteTitle(title))
	}
	titles := make([]string, 0, len(plans))
	for _, p := range plans {
		titles = append(titles, p.Section.Title)
	}
	var b strings.Builder
	switch style {
	case domain.CourseStyleConversational:
		fmt.Fprintf(&b, "Bienvenue ! Dans %s, nous allons parcourir ensemble %d sections : %s.", quoteTitle(title), len(plans), strings.Join(titles, ", "))
	case domain.CourseStyleTechnical:
		fmt.Fprintf(&b, "Objet : %s. Périmètre : %d sections (%s).", quoteTitle(title), len(plans), strings.Join(titles, ", "))
	default:
		fmt.Fprintf(&b, "Ce cours, %s, est organisé en %d sections : %s.", quoteTitle(title), len(plans), strings.Join(titles, ", "))
	}
	if len(concepts) > 0 {
		n := min(len(concepts), MaxConceptSeeds)
		fmt.Fprintf(&b, " Notions clés : %s.", strings.Join(concepts[:n], ", "))
	}
	if rules > 0 {
		fmt.Fprintf(&b, " Il s'appuie sur %d exigences normatives.", rules)
	}
	return b.String()
}

func conclusion(title string, plans []SectionPlan, style domain.CourseStyle) string {
	if title == "" {
		title = "ce cours"
	}
	if len(plans) == 0 {
		return fmt.Sprintf("%s sera complété dès que des documents sources seront disponibles.", upperFirst(quoteTitle(title)))
	}
	last := plans[len(plans)-1].Section.Title
	switch style {
	case domain.CourseStyleConversational:
		return fmt.Sprintf("Bravo, vous avez terminé %s ! Prenez le temps de revoir « %s » puis testez-vous avec le questionnaire.", quoteTitle(title), last)
	case domain.CourseStyleTechnical:
		return fmt.Sprintf("Fin de %s. %d sections couvertes ; vérifier l'acquisition via le questionnaire.", quoteTitle(title), len(plans))
	default:
		return fmt.Sprintf("En conclusion, %s a couvert %d sections, de « %s » à « %s ». Validez vos acquis avec le questionnaire.", quoteTitle(title), len(plans), plans[0].Section.Title, last)
	}
}

func resources(docs []domain.Document, rules []domain.NormRule) []string {
	out := make([]string, 0, len(docs)+len(rules))
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, d := range docs {
		add(d.Name)
	}
	for _, r := range rules {
		label := ruleLabel(r)
		if r.NormID != "" {
			label = r.NormID + " " + label
		}
		add(label)
	}
	return out
}

func ruleRef(r domain.NormRule) string {
	if a := strings.TrimSpace(r.Article); a != "" {
		return a
	}
	if t := strings.TrimSpace(r.Titre); t != "" {
		return t
	}
	return r.ID
}

func ruleLabel(r domain.NormRule) string {
	a, t := strings.TrimSpace(r.Article), strings.TrimSpace(r.Titre)
	switch {
	case a != "" && t != "":
		return a + " - " + t
	case a != "":
		return a
	case t != "":
		return t
	}
	return r.ID
}

func quoteTitle(t string) string {
	if t == "ce cours" {
		return t
	}
	return "« " + t + " »"
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if utf8.RuneCountInString(f) >= minOverlapRunes {
			out[f] = true
		}
	}
	return out
}

// truncateRunes cuts at a word boundary and never splits a rune.
func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)[:n]
	cut := string(r)
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
