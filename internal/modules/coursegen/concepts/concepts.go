// Package concepts mines frequency-ranked concept words and fixed technical
// keywords from normalized text.
package concepts

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultTopN  = 5
	InternalTopN = 10

	// tokens must be strictly longer than this many runes
	minTokenRunes = 5
)

// TechnicalVocabulary is matched by substring containment, in this order.
var TechnicalVocabulary = []string{
	"sécurité",
	"procédure",
	"méthode",
	"technique",
	"formation",
	"compétence",
	"connaissance",
	"pratique",
	"théorie",
	"application",
}

type Concept struct {
	Word       string
	Count      int
	FirstIndex int
}

type Extraction struct {
	Concepts  []Concept
	Keywords  []string
	WordCount int
}

// Words returns the concept words in rank order.
func (e Extraction) Words() []string {
	out := make([]string, len(e.Concepts))
	for i, c := range e.Concepts {
		out[i] = c.Word
	}
	return out
}

// Top returns at most n concepts.
func (e Extraction) Top(n int) []Concept {
	if n < 0 || n >= len(e.Concepts) {
		return e.Concepts
	}
	return e.Concepts[:n]
}

// Terms returns concept words followed by keywords not already present.
func (e Extraction) Terms() []string {
	seen := make(map[string]bool, len(e.Concepts)+len(e.Keywords))
	out := make([]string, 0, len(e.Concepts)+len(e.Keywords))
	for _, w := range e.Words() {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	for _, k := range e.Keywords {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func Extract(text string, topN int) Extraction {
	if topN <= 0 {
		topN = DefaultTopN
	}
	tokens := Tokenize(text)
	return Extraction{
		Concepts:  rank(tokens, topN),
		Keywords:  MatchKeywords(text),
		WordCount: len(strings.Fields(text)),
	}
}

// TopConcepts is the default top-5 concept list.
func TopConcepts(text string) []string {
	return Extract(text, DefaultTopN).Words()
}

// Tokenize lower-cases, splits on whitespace, strips every rune that is not a
// Latin letter and keeps tokens longer than five runes, in text order.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	var b strings.Builder
	for _, f := range fields {
		b.Reset()
		for _, r := range f {
			if unicode.Is(unicode.Latin, r) {
				b.WriteRune(r)
			}
		}
		tok := b.String()
		if utf8.RuneCountInString(tok) > minTokenRunes {
			out = append(out, tok)
		}
	}
	return out
}

// rank sorts by count desc then first occurrence asc; map order never leaks out.
func rank(tokens []string, topN int) []Concept {
	byWord := make(map[string]int, len(tokens))
	list := make([]Concept, 0)
	for i, tok := range tokens {
		if idx, ok := byWord[tok]; ok {
			list[idx].Count++
			continue
		}
		byWord[tok] = len(list)
		list = append(list, Concept{Word: tok, Count: 1, FirstIndex: i})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].FirstIndex < list[j].FirstIndex
	})
	if len(list) > topN {
		list = list[:topN]
	}
	return list
}

// MatchKeywords reports every vocabulary entry contained anywhere in the text.
func MatchKeywords(text string) []string {
	lower := strings.ToLower(text)
	out := make([]string, 0)
	for _, kw := range TechnicalVocabulary {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}
