package app

import (
	"strings"
	"time"

	"github.com/yungbote/coursegen-backend/internal/data/db"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/enrich"
	"github.com/yungbote/coursegen-backend/internal/platform/envutil"
	"github.com/yungbote/coursegen-backend/internal/platform/openai"
)

type Config struct {
	LogMode     string
	Port        string
	Environment string
	Version     string
	ServiceName string

	// NormsDir holds corpus files; when empty the registry is loaded from the database.
	NormsDir string

	// HistoryEnabled persists generation runs and norms through gorm.
	HistoryEnabled bool
	DB             db.Config

	RedisAddr       string
	CachePrefix     string
	CacheTTL        time.Duration
	CacheMaxEntries int

	EnrichEnabled bool
	Enrich        enrich.Options
	OpenAI        openai.Config

	AllowedOrigins []string
	MetricsAddr    string
}

func LoadConfig() Config {
	cfg := Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("APP_ENV", "local"),
		Version:     envutil.String("APP_VERSION", "dev"),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "coursegen"),
		NormsDir:    envutil.String("NORMS_DIR", "norms"),

		HistoryEnabled: envutil.Bool("HISTORY_ENABLED", true),
		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", "sqlite"),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "coursegen"),
			SQLitePath: envutil.String("SQLITE_PATH", "coursegen.db"),
		},

		RedisAddr:       envutil.String("REDIS_ADDR", ""),
		CachePrefix:     envutil.String("CACHE_PREFIX", "coursegen:result:"),
		CacheTTL:        envutil.Duration("CACHE_TTL", 24*time.Hour),
		CacheMaxEntries: envutil.Int("CACHE_MAX_ENTRIES", 256),

		EnrichEnabled: envutil.Bool("ENRICH_ENABLED", false),
		Enrich: enrich.Options{
			Timeout:           envutil.Duration("ENRICH_TIMEOUT", 60*time.Second),
			PerSectionTimeout: envutil.Duration("ENRICH_SECTION_TIMEOUT", 20*time.Second),
			Concurrency:       envutil.Int("ENRICH_CONCURRENCY", 4),
		},
		OpenAI: openai.Config{
			APIKey:     envutil.String("OPENAI_API_KEY", ""),
			BaseURL:    envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
			Model:      envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout:    envutil.Duration("OPENAI_TIMEOUT", 30*time.Second),
			MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 2),
		},

		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		MetricsAddr:    envutil.String("METRICS_ADDR", ""),
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
