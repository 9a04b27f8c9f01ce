package app

import (
	"fmt"

	"github.com/yungbote/coursegen-backend/internal/cache"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
	"github.com/yungbote/coursegen-backend/internal/platform/openai"
)

type Clients struct {
	Cache  cache.ResultCache
	OpenAI openai.Client
}

// wireClients prefers Redis for the result cache and falls back to memory.
// The OpenAI client is only built when enrichment is enabled.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisResultCache(log, cfg.RedisAddr, cfg.CachePrefix)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis result cache: %w", err)
		}
		out.Cache = rc
	} else if cfg.CacheMaxEntries > 0 {
		out.Cache = cache.NewMemoryResultCache(cfg.CacheMaxEntries)
	}

	if cfg.EnrichEnabled {
		ai, err := openai.NewClient(log, cfg.OpenAI)
		if err != nil {
			// enrichment is optional; generation keeps working without it
			log.Warn("OpenAI client unavailable, enrichment disabled", "error", err)
		} else {
			out.OpenAI = ai
		}
	}
	return out, nil
}

func (c Clients) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}
