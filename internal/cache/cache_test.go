package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

func TestDigestIgnoresVolatileFields(t *testing.T) {
	s := domain.DefaultGenerationSettings()
	a := []domain.Document{{ID: "1", Name: "a.txt", Type: domain.DocumentTypeTXT, Content: "texte", UploadedAt: time.Unix(1, 0)}}
	b := []domain.Document{{ID: "2", Name: "a.txt", Type: domain.DocumentTypeTXT, Content: "texte", UploadedAt: time.Unix(2, 0)}}
	if Digest(a, s, "n", nil) != Digest(b, s, "n", nil) {
		t.Fatalf("expected ids and timestamps to be ignored")
	}
	if Digest(a, s, "n", nil) == Digest(a, s, "other", nil) {
		t.Fatalf("expected norm id to change the digest")
	}
	seed := int64(4)
	if Digest(a, s, "n", nil) == Digest(a, s, "n", &seed) {
		t.Fatalf("expected seed to change the digest")
	}
	raw := s
	raw.QCMQuestionCount = 500
	clamped := s
	clamped.QCMQuestionCount = domain.MaxQCMQuestionCount
	if Digest(a, raw, "", nil) != Digest(a, clamped, "", nil) {
		t.Fatalf("expected settings to be normalized before hashing")
	}
}

func TestMemoryCacheRoundTripAndExpiry(t *testing.T) {
	c := NewMemoryResultCache(2).(*memoryResultCache)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	res := &domain.GenerationResult{Course: domain.Course{Title: "T"}, NormRulesUsed: 2}
	if err := c.Set(ctx, "k", res, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	res.Course.Title = "mutated"
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || got.Course.Title != "T" || got.NormRulesUsed != 2 {
		t.Fatalf("Get: unexpected %+v ok=%v err=%v", got, ok, err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	c := NewMemoryResultCache(2).(*memoryResultCache)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { now = now.Add(time.Second); return now }
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, &domain.GenerationResult{}, 0); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if _, ok, _ := c.Get(ctx, "c"); !ok {
		t.Fatalf("expected newest entry to be kept")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis cache tests")
	}
	c, err := NewRedisResultCache(logger.NewNop(), addr, "coursegen:test:")
	if err != nil {
		t.Fatalf("NewRedisResultCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()
	if err := c.Set(ctx, "k", &domain.GenerationResult{NormRulesUsed: 1}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || got.NormRulesUsed != 1 {
		t.Fatalf("Get: unexpected %+v ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := c.Get(ctx, "absent"); ok {
		t.Fatalf("expected miss")
	}
}
