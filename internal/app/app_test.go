package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("ENRICH_CONCURRENCY", "8")

	cfg := LoadConfig()
	if cfg.Port != "8080" {
		t.Fatalf("unexpected default port %q", cfg.Port)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("unexpected cache ttl %v", cfg.CacheTTL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.Enrich.Concurrency != 8 || cfg.EnrichEnabled {
		t.Fatalf("unexpected enrich config %+v", cfg.Enrich)
	}
}

func TestNewWiresServer(t *testing.T) {
	dir := t.TempDir()
	corpus := []byte(`normId: demo
title: Demo
rules:
  - id: demo-1
    titre: Sécurité
    article: Art. 1
    content: La sécurité des intervenants prime.
`)
	if err := os.WriteFile(filepath.Join(dir, "demo.yaml"), corpus, 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	t.Setenv("LOG_MODE", "development")
	t.Setenv("NORMS_DIR", dir)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "coursegen.db"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("ENRICH_ENABLED", "false")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("METRICS_ENABLED", "false")

	a, err := New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Services.Norms.Len() != 1 {
		t.Fatalf("expected one norm, got %d", a.Services.Norms.Len())
	}
	stored, err := a.Repos.Norms.ListNorms(context.Background(), nil)
	if err != nil || len(stored) != 1 {
		t.Fatalf("expected norm seeded into the database, got %d (%v)", len(stored), err)
	}

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/norms", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestOtelConfigReflectsEnabledFeatures(t *testing.T) {
	cfg := Config{ServiceName: "cg", NormsDir: "norms"}
	cfg.DB.Driver = "postgres"
	cfg.OpenAI.Model = "gpt-4o-mini"

	oc := otelConfig(cfg)
	if oc.HistoryDriver != "" || oc.EnrichModel != "" {
		t.Fatalf("disabled features must not be reported: %+v", oc)
	}

	cfg.HistoryEnabled = true
	cfg.EnrichEnabled = true
	oc = otelConfig(cfg)
	if oc.HistoryDriver != "postgres" || oc.EnrichModel != "gpt-4o-mini" || oc.NormsDir != "norms" {
		t.Fatalf("unexpected otel config %+v", oc)
	}
}
