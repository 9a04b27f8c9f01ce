package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/yungbote/coursegen-backend/internal/domain"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
	addedAt   time.Time
}

type memoryResultCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	max     int
	now     func() time.Time
}

// NewMemoryResultCache keeps at most max entries and evicts the oldest first.
// Results are stored encoded so callers never share mutable state.
func NewMemoryResultCache(max int) ResultCache {
	if max <= 0 {
		max = 256
	}
	return &memoryResultCache{entries: map[string]memoryEntry{}, max: max, now: time.Now}
}

func (c *memoryResultCache) Get(ctx context.Context, key string) (*domain.GenerationResult, bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	var out domain.GenerationResult
	if err := json.Unmarshal(e.raw, &out); err != nil {
		return nil, false, err
	}
	return &out, true, nil
}

func (c *memoryResultCache) Set(ctx context.Context, key string, res *domain.GenerationResult, ttl time.Duration) error {
	if res == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	now := c.now()
	e := memoryEntry{raw: raw, addedAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.max {
		oldestKey := ""
		var oldest time.Time
		for k, v := range c.entries {
			if oldestKey == "" || v.addedAt.Before(oldest) {
				oldestKey, oldest = k, v.addedAt
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = e
	return nil
}

func (c *memoryResultCache) Close() error { return nil }
