// Package cache stores finished generation results keyed by an input digest.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/yungbote/coursegen-backend/internal/domain"
)

type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.GenerationResult, bool, error)
	Set(ctx context.Context, key string, res *domain.GenerationResult, ttl time.Duration) error
	Close() error
}

// Digest returns a deterministic key for one generation input. Volatile
// document fields (ids, upload times) are excluded.
func Digest(docs []domain.Document, settings domain.GenerationSettings, normID string, seed *int64) string {
	type docKey struct {
		Name    string
		Type    domain.DocumentType
		Content string
	}
	keys := make([]docKey, 0, len(docs))
	for _, d := range docs {
		keys = append(keys, docKey{Name: d.Name, Type: d.Type, Content: d.Content})
	}
	raw, _ := json.Marshal(struct {
		Version  int
		Docs     []docKey
		Settings domain.GenerationSettings
		NormID   string
		Seed     *int64
	}{
		Version:  1,
		Docs:     keys,
		Settings: settings.Normalized(),
		NormID:   normID,
		Seed:     seed,
	})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
