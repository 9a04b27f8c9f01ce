// Package normcorpus loads normative rule corpora and serves them read-only.
package normcorpus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/coursegen-backend/internal/domain"
)

var ErrInvalidCorpus = errors.New("invalid norm corpus")

// Registry is immutable after construction and safe to share across goroutines.
type Registry struct {
	order []string
	byID  map[string]domain.NormCorpus
}

// NewRegistry validates every corpus. Later corpora with a duplicate norm id
// are rejected.
func NewRegistry(corpora ...domain.NormCorpus) (*Registry, error) {
	r := &Registry{byID: make(map[string]domain.NormCorpus, len(corpora))}
	for _, c := range corpora {
		c = withInheritedNormID(c)
		if err := Validate(c); err != nil {
			return nil, err
		}
		if _, dup := r.byID[c.NormID]; dup {
			return nil, fmt.Errorf("%w: duplicate norm %q", ErrInvalidCorpus, c.NormID)
		}
		r.order = append(r.order, c.NormID)
		r.byID[c.NormID] = c
	}
	return r, nil
}

func Empty() *Registry {
	return &Registry{byID: map[string]domain.NormCorpus{}}
}

func (r *Registry) Get(normID string) (domain.NormCorpus, bool) {
	if r == nil {
		return domain.NormCorpus{}, false
	}
	c, ok := r.byID[normID]
	return c, ok
}

// Rules returns the rules of one norm in corpus order. Callers must not mutate them.
func (r *Registry) Rules(normID string) ([]domain.NormRule, bool) {
	c, ok := r.Get(normID)
	if !ok {
		return nil, false
	}
	return c.Rules, true
}

func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	return append([]string{}, r.order...)
}

func (r *Registry) All() []domain.NormCorpus {
	if r == nil {
		return nil
	}
	out := make([]domain.NormCorpus, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

func withInheritedNormID(c domain.NormCorpus) domain.NormCorpus {
	c.NormID = strings.TrimSpace(c.NormID)
	rules := make([]domain.NormRule, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.NormID == "" {
			rule.NormID = c.NormID
		}
		rules[i] = rule
	}
	c.Rules = rules
	if c.Sommaire == nil {
		c.Sommaire = []domain.SommaireNode{}
	}
	return c
}

// Validate checks the norm id, rule id uniqueness and the sommaire level invariant.
func Validate(c domain.NormCorpus) error {
	if strings.TrimSpace(c.NormID) == "" {
		return fmt.Errorf("%w: missing normId", ErrInvalidCorpus)
	}
	seen := make(map[string]bool, len(c.Rules))
	for i, rule := range c.Rules {
		id := strings.TrimSpace(rule.ID)
		if id == "" {
			return fmt.Errorf("%w: %s rule %d has no id", ErrInvalidCorpus, c.NormID, i)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s duplicate rule id %q", ErrInvalidCorpus, c.NormID, id)
		}
		seen[id] = true
		if rule.NormID != "" && rule.NormID != c.NormID {
			return fmt.Errorf("%w: rule %q belongs to %q, not %q", ErrInvalidCorpus, id, rule.NormID, c.NormID)
		}
	}
	for _, n := range c.Sommaire {
		if err := validateNode(n); err != nil {
			return fmt.Errorf("%w: %s sommaire: %v", ErrInvalidCorpus, c.NormID, err)
		}
	}
	return nil
}

func validateNode(n domain.SommaireNode) error {
	for _, child := range n.Children {
		if child.Level <= n.Level {
			return fmt.Errorf("node %q level %d under %q level %d", child.Index, child.Level, n.Index, n.Level)
		}
		if err := validateNode(child); err != nil {
			return err
		}
	}
	return nil
}
