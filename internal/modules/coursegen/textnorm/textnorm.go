// Package textnorm turns raw extracted text into trimmed lines, paragraphs and
// heading-led segments.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxHeadingRunes is the exclusive upper bound on heading length.
const MaxHeadingRunes = 100

var headingPrefix = regexp.MustCompile(`(?i)^(chapitre|module|partie|section)`)

// PDF extractors emit presentation ligatures; fold them before any comparison.
var ligatures = strings.NewReplacer(
	"\ufb01", "fi",
	"\ufb02", "fl",
	"\ufb00", "ff",
	"\ufb03", "ffi",
	"\ufb04", "ffl",
	"\ufb06", "st",
	"\u00a0", " ",
	"\u200b", "",
	"\ufeff", "",
)

type Line struct {
	Index   int
	Text    string
	Heading bool
}

type Normalized struct {
	Lines      []Line
	Paragraphs []string
}

// Segment is a heading and the lines that follow it up to the next heading.
// The preamble segment (text before any heading) has an empty Heading.
type Segment struct {
	Heading string
	Body    []string
}

func (s Segment) Text() string { return strings.Join(s.Body, " ") }

// Empty reports insufficient context: nothing survived normalization.
func (n Normalized) Empty() bool { return len(n.Lines) == 0 }

func (n Normalized) Headings() []Line {
	out := make([]Line, 0)
	for _, l := range n.Lines {
		if l.Heading {
			out = append(out, l)
		}
	}
	return out
}

// Text joins all normalized lines with newlines.
func (n Normalized) Text() string {
	parts := make([]string, len(n.Lines))
	for i, l := range n.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// Clean applies unicode NFC, ligature folding and newline unification.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, " ")
	}
	s := ligatures.Replace(raw)
	if nfc, _, err := transform.String(transform.Chain(norm.NFC), s); err == nil {
		s = nfc
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func Normalize(raw string) Normalized {
	out := Normalized{Lines: []Line{}, Paragraphs: []string{}}
	s := Clean(raw)
	if strings.TrimSpace(s) == "" {
		return out
	}

	var para []string
	flush := func() {
		if len(para) > 0 {
			out.Paragraphs = append(out.Paragraphs, strings.Join(para, " "))
			para = para[:0]
		}
	}
	for _, rawLine := range strings.Split(s, "\n") {
		line := strings.Join(strings.Fields(rawLine), " ")
		if line == "" {
			flush()
			continue
		}
		para = append(para, line)
		out.Lines = append(out.Lines, Line{
			Index:   len(out.Lines),
			Text:    line,
			Heading: IsHeadingCandidate(line),
		})
	}
	flush()
	return out
}

// IsHeadingCandidate: shorter than 100 runes and either fully upper case (with
// at least one cased letter) or starting with Chapitre/Module/Partie/Section.
// Input is expected to be NFC so that precomposed and decomposed accents agree.
func IsHeadingCandidate(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || utf8.RuneCountInString(line) >= MaxHeadingRunes {
		return false
	}
	if headingPrefix.MatchString(line) {
		return true
	}
	return isUpperLine(line)
}

func isUpperLine(line string) bool {
	cased := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased && line == strings.ToUpper(line)
}

// Segments groups lines under the heading that precedes them.
func Segments(n Normalized) []Segment {
	out := make([]Segment, 0)
	cur := Segment{}
	started := false
	for _, l := range n.Lines {
		if l.Heading {
			if started || len(cur.Body) > 0 {
				out = append(out, cur)
			}
			cur = Segment{Heading: l.Text}
			started = true
			continue
		}
		cur.Body = append(cur.Body, l.Text)
	}
	if started || len(cur.Body) > 0 {
		out = append(out, cur)
	}
	return out
}
