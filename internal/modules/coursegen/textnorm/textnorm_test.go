package textnorm

import (
	"strings"
	"testing"
)

func TestNormalizeDropsBlankLinesAndTrims(t *testing.T) {
	n := Normalize("  Première ligne  \r\n\r\n\tdeuxième   ligne\rtroisième\n\n")
	if len(n.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %+v", len(n.Lines), n.Lines)
	}
	if n.Lines[0].Text != "Première ligne" || n.Lines[1].Text != "deuxième ligne" {
		t.Fatalf("unexpected lines: %+v", n.Lines)
	}
	if len(n.Paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %q", len(n.Paragraphs), n.Paragraphs)
	}
	if n.Paragraphs[1] != "deuxième ligne troisième" {
		t.Fatalf("unexpected paragraph: %q", n.Paragraphs[1])
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\r\n"} {
		n := Normalize(in)
		if !n.Empty() || n.Lines == nil || n.Paragraphs == nil {
			t.Fatalf("expected empty non-nil output for %q, got %+v", in, n)
		}
		if len(Segments(n)) != 0 {
			t.Fatalf("expected no segments for %q", in)
		}
	}
}

func TestIsHeadingCandidateFixtures(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"S\u00c9CURIT\u00c9 \u00c9LECTRIQUE", true},
		{"SE\u0301CURITE\u0301 E\u0301LECTRIQUE", true},
		{"Sécurité électrique", false},
		{"Chapitre 1: Introduction.", true},
		{"chapitre 2 - mise en oeuvre", true},
		{"MODULE 3", true},
		{"Partie A", true},
		{"Section 4.2 Consignation", true},
		// upper-case identity alone is not enough: a heading needs a cased letter
		{"1.2.3", false},
		{"2024", false},
		{"1.", false},
		{"----", false},
		{"Procédure de sécurité électrique. Chapitre 1: Introduction.", false},
	}
	for _, tc := range cases {
		if got := IsHeadingCandidate(tc.line); got != tc.want {
			t.Fatalf("IsHeadingCandidate(%q)=%v want %v", tc.line, got, tc.want)
		}
	}
}

func TestIsHeadingCandidateCountsRunesNotBytes(t *testing.T) {
	tooLong := "CHAPITRE " + strings.Repeat("É", MaxHeadingRunes-9)
	if IsHeadingCandidate(tooLong) {
		t.Fatalf("expected %d-rune line to be rejected", len([]rune(tooLong)))
	}
	fits := "CHAPITRE " + strings.Repeat("É", MaxHeadingRunes-10)
	if !IsHeadingCandidate(fits) {
		t.Fatalf("expected %d-rune line to be accepted", len([]rune(fits)))
	}
}

func TestCleanComposesAccents(t *testing.T) {
	n := Normalize("SE\u0301CURITE\u0301 E\u0301LECTRIQUE\nle texte suit")
	if len(n.Lines) != 2 || !n.Lines[0].Heading {
		t.Fatalf("expected composed heading, got %+v", n.Lines)
	}
	if n.Lines[0].Text != "S\u00c9CURIT\u00c9 \u00c9LECTRIQUE" {
		t.Fatalf("expected NFC text, got %q", n.Lines[0].Text)
	}
}

func TestCleanFoldsLigatures(t *testing.T) {
	if got := Clean("e\ufb03cace con\ufb01ance"); got != "efficace confiance" {
		t.Fatalf("unexpected clean output %q", got)
	}
}

func TestSegmentsGroupBodiesUnderHeadings(t *testing.T) {
	n := Normalize("Avant-propos du document.\nCHAPITRE 1\nLigne a.\nLigne b.\nSection 2\nLigne c.")
	segs := Segments(n)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Heading != "" || segs[0].Text() != "Avant-propos du document." {
		t.Fatalf("unexpected preamble: %+v", segs[0])
	}
	if segs[1].Heading != "CHAPITRE 1" || segs[1].Text() != "Ligne a. Ligne b." {
		t.Fatalf("unexpected segment: %+v", segs[1])
	}
	if segs[2].Heading != "Section 2" || len(segs[2].Body) != 1 {
		t.Fatalf("unexpected segment: %+v", segs[2])
	}
	if len(n.Headings()) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(n.Headings()))
	}
}
