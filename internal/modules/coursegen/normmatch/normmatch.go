// Package normmatch ranks normative rules against extracted concepts and keywords.
package normmatch

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/coursegen-backend/internal/domain"
)

type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchKeyword MatchType = "keyword"
)

const (
	DefaultLimit = 20

	scoreExact   = 300
	scorePartial = 200
	scoreKeyword = 100
	maxSupport   = 99

	minQueryTermRunes = 3
)

// CorpusSource is the read-only view of loaded norms the matcher needs.
type CorpusSource interface {
	// Rules returns the rules of one norm in corpus order.
	Rules(normID string) ([]domain.NormRule, bool)
	// IDs lists loaded norms in registry order.
	IDs() []string
}

type Match struct {
	Rule      domain.NormRule `json:"rule"`
	MatchType MatchType       `json:"matchType"`
	Score     int             `json:"score"`
	// Terms that supported the match, in input order.
	Terms []string `json:"terms"`
}

type Options struct {
	// NormID scopes matching to one norm; empty means every loaded norm.
	NormID string
	Limit  int
}

type Result struct {
	Matches     []Match
	CorpusFound bool
}

// Rules returns the matched rules in rank order.
func (r Result) Rules() []domain.NormRule {
	out := make([]domain.NormRule, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Rule
	}
	return out
}

type Matcher struct {
	corpus CorpusSource
}

func New(corpus CorpusSource) *Matcher {
	return &Matcher{corpus: corpus}
}

// Match never fails: an unknown norm or a nil corpus yields an empty result.
func (m *Matcher) Match(terms []string, opts Options) Result {
	res := Result{Matches: []Match{}}
	if m == nil || m.corpus == nil {
		return res
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var rules []domain.NormRule
	if opts.NormID != "" {
		rs, ok := m.corpus.Rules(opts.NormID)
		if !ok {
			return res
		}
		res.CorpusFound = true
		rules = rs
	} else {
		for _, id := range m.corpus.IDs() {
			if rs, ok := m.corpus.Rules(id); ok {
				res.CorpusFound = true
				rules = append(rules, rs...)
			}
		}
	}

	needles := cleanTerms(terms)
	if len(needles) == 0 || len(rules) == 0 {
		return res
	}

	type scored struct {
		Match
		pos int
	}
	found := make([]scored, 0)
	seen := make(map[string]bool, len(rules))
	for pos, rule := range rules {
		key := rule.NormID + "\x00" + rule.ID
		if seen[key] {
			continue
		}
		seen[key] = true
		if mt, support, ok := scoreRule(rule, needles); ok {
			found = append(found, scored{
				Match: Match{Rule: rule, MatchType: mt, Score: tierBase(mt) + min(len(support), maxSupport), Terms: support},
				pos:   pos,
			})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Score != found[j].Score {
			return found[i].Score > found[j].Score
		}
		return found[i].pos < found[j].pos
	})
	if len(found) > limit {
		found = found[:limit]
	}
	for _, f := range found {
		res.Matches = append(res.Matches, f.Match)
	}
	return res
}

// Search scores rules against a free-text query: the whole query plus each of
// its words of three runes or more.
func (m *Matcher) Search(query, normID string, limit int) Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Result{Matches: []Match{}, CorpusFound: m != nil && m.corpus != nil && (normID == "" || hasNorm(m.corpus, normID))}
	}
	terms := []string{q}
	for _, w := range strings.Fields(q) {
		w = strings.Trim(w, ".,;:!?()[]\"'")
		if utf8.RuneCountInString(w) >= minQueryTermRunes {
			terms = append(terms, w)
		}
	}
	return m.Match(terms, Options{NormID: normID, Limit: limit})
}

func hasNorm(c CorpusSource, normID string) bool {
	_, ok := c.Rules(normID)
	return ok
}

func tierBase(mt MatchType) int {
	switch mt {
	case MatchExact:
		return scoreExact
	case MatchPartial:
		return scorePartial
	default:
		return scoreKeyword
	}
}

// scoreRule reports the best tier any term reaches and the distinct supporting terms.
func scoreRule(rule domain.NormRule, terms []string) (MatchType, []string, bool) {
	titre := strings.ToLower(strings.TrimSpace(rule.Titre))
	article := strings.ToLower(strings.TrimSpace(rule.Article))
	content := strings.ToLower(rule.Content)
	kws := make(map[string]bool, len(rule.Keywords))
	for _, k := range rule.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kws[k] = true
		}
	}

	best := 0
	var support []string
	for _, t := range terms {
		tier := 0
		switch {
		case t == titre || t == article:
			tier = scoreExact
		case strings.Contains(content, t):
			tier = scorePartial
		case kws[t]:
			tier = scoreKeyword
		}
		if tier == 0 {
			continue
		}
		support = append(support, t)
		if tier > best {
			best = tier
		}
	}
	switch best {
	case scoreExact:
		return MatchExact, support, true
	case scorePartial:
		return MatchPartial, support, true
	case scoreKeyword:
		return MatchKeyword, support, true
	}
	return "", nil, false
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
