package normcorpus

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/yungbote/coursegen-backend/internal/data/repos"
	"github.com/yungbote/coursegen-backend/internal/domain"
)

// SeedRepo persists every corpus of the registry, replacing stored rules.
func SeedRepo(ctx context.Context, repo repos.NormRepo, reg *Registry) error {
	for _, c := range reg.All() {
		sommaire, err := json.Marshal(c.Sommaire)
		if err != nil {
			return fmt.Errorf("encode sommaire %s: %w", c.NormID, err)
		}
		rules := make([]*domain.NormRuleRecord, 0, len(c.Rules))
		for _, r := range c.Rules {
			kws := r.Keywords
			if kws == nil {
				kws = []string{}
			}
			raw, err := json.Marshal(kws)
			if err != nil {
				return fmt.Errorf("encode keywords %s/%s: %w", c.NormID, r.ID, err)
			}
			rules = append(rules, &domain.NormRuleRecord{
				RuleID:   r.ID,
				Titre:    r.Titre,
				Article:  r.Article,
				Content:  r.Content,
				Page:     r.Page,
				Category: r.Category,
				Keywords: datatypes.JSON(raw),
			})
		}
		rec := &domain.NormRecord{NormID: c.NormID, Title: c.Title, Sommaire: datatypes.JSON(sommaire)}
		if err := repo.UpsertCorpus(ctx, nil, rec, rules); err != nil {
			return fmt.Errorf("seed norm %s: %w", c.NormID, err)
		}
	}
	return nil
}

// LoadFromRepo rebuilds a registry from stored corpora.
func LoadFromRepo(ctx context.Context, repo repos.NormRepo) (*Registry, error) {
	norms, err := repo.ListNorms(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list norms: %w", err)
	}
	corpora := make([]domain.NormCorpus, 0, len(norms))
	for _, n := range norms {
		recs, err := repo.GetRules(ctx, nil, n.NormID)
		if err != nil {
			return nil, fmt.Errorf("load rules %s: %w", n.NormID, err)
		}
		c := domain.NormCorpus{NormID: n.NormID, Title: n.Title, Rules: make([]domain.NormRule, 0, len(recs))}
		if len(n.Sommaire) > 0 {
			if err := json.Unmarshal(n.Sommaire, &c.Sommaire); err != nil {
				return nil, fmt.Errorf("decode sommaire %s: %w", n.NormID, err)
			}
		}
		for _, rec := range recs {
			rule := domain.NormRule{
				ID:       rec.RuleID,
				Titre:    rec.Titre,
				Article:  rec.Article,
				Content:  rec.Content,
				Page:     rec.Page,
				NormID:   rec.NormID,
				Category: rec.Category,
			}
			if len(rec.Keywords) > 0 {
				if err := json.Unmarshal(rec.Keywords, &rule.Keywords); err != nil {
					return nil, fmt.Errorf("decode keywords %s/%s: %w", n.NormID, rec.RuleID, err)
				}
			}
			c.Rules = append(c.Rules, rule)
		}
		corpora = append(corpora, c)
	}
	return NewRegistry(corpora...)
}
