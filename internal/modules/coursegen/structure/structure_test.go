package structure

import (
	"strings"
	"testing"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/textnorm"
)

const headingDoc = `Préambule sur la prévention.
CHAPITRE 1 HABILITATION
L'habilitation électrique est délivrée par l'employeur.
Elle précise les opérations autorisées.
Section 1.1 Symboles
Les symboles B0, B1 et BR identifient les niveaux.
CHAPITRE 2 CONSIGNATION
La consignation comprend séparation, condamnation et vérification.`

func rules() []domain.NormRule {
	return []domain.NormRule{
		{ID: "r1", Titre: "Consignation", Article: "Art. 2", Content: "La consignation doit précéder toute intervention hors tension.", NormID: "nfc18-510", Category: "sécurité"},
		{ID: "r2", Titre: "Habilitation", Article: "Art. 1", Content: "L'habilitation est délivrée par l'employeur.", NormID: "nfc18-510"},
		{ID: "r3", Titre: "Divers", Article: "Art. 9", Content: "Sans lien.", NormID: "nfc18-510"},
	}
}

func TestBuildFromHeadings(t *testing.T) {
	out := Build(Input{
		Title:    "Habilitation",
		Text:     textnorm.Normalize(headingDoc),
		Concepts: []string{"habilitation", "consignation"},
		Rules:    rules(),
		Documents: []domain.Document{
			{Name: "guide.txt"},
		},
		Settings: domain.DefaultGenerationSettings(),
	})
	if len(out.Plans) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(out.Plans))
	}
	if len(out.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %+v", out.Modules)
	}
	if out.Modules[0].Title != "CHAPITRE 1 HABILITATION" || len(out.Modules[0].Knowledge) != 2 {
		t.Fatalf("unexpected first module %+v", out.Modules[0])
	}
	if len(out.Modules[1].Prerequisites) != 1 || out.Modules[1].Prerequisites[0] != "CHAPITRE 1 HABILITATION" {
		t.Fatalf("expected prerequisite chain, got %+v", out.Modules[1].Prerequisites)
	}
	if !strings.Contains(out.Plans[0].Source, "Préambule") {
		t.Fatalf("expected preamble folded into first section, got %q", out.Plans[0].Source)
	}

	if len(out.RulesUsed) != 3 {
		t.Fatalf("expected every rule incorporated, got %d", len(out.RulesUsed))
	}
	assigned := 0
	for _, p := range out.Plans {
		assigned += len(p.Rules)
	}
	if assigned != len(out.RulesUsed) {
		t.Fatalf("each rule must land in exactly one section: %d vs %d", assigned, len(out.RulesUsed))
	}
	if len(out.Plans[2].Rules) == 0 || out.Plans[2].Rules[0].ID != "r1" {
		t.Fatalf("expected consignation rule in consignation section, got %+v", out.Plans[2].Rules)
	}
	if len(out.Plans[2].Section.Warnings) != 1 {
		t.Fatalf("expected safety warning, got %+v", out.Plans[2].Section.Warnings)
	}
	if out.Introduction == "" || out.Conclusion == "" {
		t.Fatalf("expected introduction and conclusion")
	}
	if out.Resources[0] != "guide.txt" || len(out.Resources) != 4 {
		t.Fatalf("unexpected resources %q", out.Resources)
	}
}

func TestBuildFromConceptsWhenNoHeadings(t *testing.T) {
	text := textnorm.Normalize("Procédure de sécurité électrique. Chapitre 1: Introduction.")
	// The single line starts with Procédure so it is not a heading.
	if len(text.Headings()) != 0 {
		t.Fatalf("expected no headings")
	}
	out := Build(Input{
		Title:    "Procédure",
		Text:     text,
		Concepts: []string{"procédure", "sécurité", "électrique"},
		Settings: domain.DefaultGenerationSettings(),
	})
	if len(out.Plans) != 3 || len(out.Modules) != 3 {
		t.Fatalf("expected one section and module per concept, got %d/%d", len(out.Plans), len(out.Modules))
	}
	if out.Plans[0].Section.Title != "Introduction à procédure" {
		t.Fatalf("unexpected title %q", out.Plans[0].Section.Title)
	}
	for _, m := range out.Modules {
		if m.Duration < 1 {
			t.Fatalf("duration must be at least one hour: %+v", m)
		}
	}
	if len(out.RulesUsed) != 0 {
		t.Fatalf("expected no rules")
	}
}

func TestBuildHonorsDisabledFlags(t *testing.T) {
	s := domain.DefaultGenerationSettings()
	s.IncludeIntroduction = false
	s.IncludeConclusion = false
	s.AddExamples = false
	s.AddWarnings = false
	out := Build(Input{Title: "T", Text: textnorm.Normalize(headingDoc), Concepts: []string{"habilitation"}, Rules: rules(), Settings: s})
	if out.Introduction != "" || out.Conclusion != "" {
		t.Fatalf("expected empty introduction and conclusion")
	}
	for _, p := range out.Plans {
		if p.Section.Examples == nil || p.Section.Warnings == nil {
			t.Fatalf("lists must be non-nil")
		}
		if len(p.Section.Examples) != 0 || len(p.Section.Warnings) != 0 {
			t.Fatalf("expected no examples or warnings: %+v", p.Section)
		}
	}
}

func TestBuildEmptyInput(t *testing.T) {
	out := Build(Input{Settings: domain.DefaultGenerationSettings(), Rules: rules()})
	// with no text and no concepts, rule titles seed the sections
	if len(out.Plans) != 3 || len(out.RulesUsed) != 3 {
		t.Fatalf("expected rule-seeded sections, got %d/%d", len(out.Plans), len(out.RulesUsed))
	}
	empty := Build(Input{Settings: domain.DefaultGenerationSettings()})
	if len(empty.Plans) != 0 || len(empty.Modules) != 0 || empty.Modules == nil || empty.Resources == nil {
		t.Fatalf("unexpected empty output %+v", empty)
	}
	if empty.Introduction == "" {
		t.Fatalf("expected boilerplate introduction")
	}
}

func TestHeadingSeedsAreCapped(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("SECTION ")
		b.WriteString(strings.Repeat("I", i+1))
		b.WriteString("\ncorps du texte\n")
	}
	out := Build(Input{Text: textnorm.Normalize(b.String()), Settings: domain.DefaultGenerationSettings()})
	if len(out.Plans) != MaxHeadingSeeds {
		t.Fatalf("expected %d sections, got %d", MaxHeadingSeeds, len(out.Plans))
	}
}

func TestDurationIsMonotonicAndPositive(t *testing.T) {
	cases := []struct {
		sections, words int
		want            float64
	}{
		{0, 0, 1},
		{1, 10, 1},
		{3, 0, 1.5},
		{4, 1500, 2.5},
	}
	for _, tc := range cases {
		if got := Duration(tc.sections, tc.words); got != tc.want {
			t.Fatalf("Duration(%d,%d)=%v want %v", tc.sections, tc.words, got, tc.want)
		}
	}
}

func TestConceptTitleElides(t *testing.T) {
	cases := []struct{ tpl, concept, want string }{
		{"Principes de %s", "électrique", "Principes d'électrique"},
		{"Mise en œuvre de %s", "habilitation", "Mise en œuvre d'habilitation"},
		{"Contrôle de %s", "sécurité", "Contrôle de sécurité"},
		{"%s au quotidien", "consignation", "Consignation au quotidien"},
		{"Introduction à %s", "procédure", "Introduction à procédure"},
	}
	for _, tc := range cases {
		if got := conceptTitle(tc.tpl, tc.concept); got != tc.want {
			t.Fatalf("conceptTitle(%q, %q)=%q want %q", tc.tpl, tc.concept, got, tc.want)
		}
	}
}

func TestConceptSeedsDoNotShareLines(t *testing.T) {
	text := textnorm.Normalize("Procédure de sécurité électrique.\nLa sécurité impose une vérification.")
	out := Build(Input{
		Title:    "Procédure",
		Text:     text,
		Concepts: []string{"procédure", "sécurité", "électrique"},
		Settings: domain.DefaultGenerationSettings(),
	})
	if len(out.Plans) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(out.Plans))
	}
	if out.Plans[0].Source != "Procédure de sécurité électrique." {
		t.Fatalf("unexpected first source %q", out.Plans[0].Source)
	}
	if out.Plans[1].Source != "La sécurité impose une vérification." {
		t.Fatalf("second concept should take the next unclaimed line, got %q", out.Plans[1].Source)
	}
	if out.Plans[2].Source != "" {
		t.Fatalf("all lines claimed, expected empty source, got %q", out.Plans[2].Source)
	}
	if out.Plans[2].Section.Explanation == out.Plans[0].Section.Explanation {
		t.Fatalf("sections must not repeat the same explanation")
	}
}
