package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/coursegen-backend/internal/platform/envutil"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	generations  *CounterVec
	genLatency   *HistogramVec
	genSections  *HistogramVec
	genRules     *HistogramVec
	cacheLookups *CounterVec
	enrichments  *CounterVec
	llmRequests  *CounterVec
	llmLatency   *HistogramVec
	dbStats      *GaugeVec
	redisUp      *Gauge
	redisPing    *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func scrapeInterval() time.Duration {
	n := envutil.Int("METRICS_SCRAPE_INTERVAL_SECONDS", 10)
	if n <= 0 {
		n = 10
	}
	return time.Duration(n) * time.Second
}

// Init returns nil when METRICS_ENABLED is off; every method is nil-safe.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// NewMetrics builds an unregistered instance; Init is the process-wide entry point.
func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("cg_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cg_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight:  NewGauge("cg_api_inflight_requests", "In-flight API requests."),
		generations:  NewCounterVec("cg_generations_total", "Course generations by outcome.", []string{"status"}),
		genLatency:   NewHistogramVec("cg_generation_duration_seconds", "End-to-end generation latency.", []string{"status"}, []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60}),
		genSections:  NewHistogramVec("cg_generation_sections", "Sections per generated course.", nil, []float64{0, 1, 3, 5, 8, 12, 20}),
		genRules:     NewHistogramVec("cg_generation_norm_rules", "Norm rules incorporated per course.", nil, []float64{0, 1, 3, 5, 10, 20}),
		cacheLookups: NewCounterVec("cg_result_cache_lookups_total", "Result cache lookups by outcome.", []string{"outcome"}),
		enrichments:  NewCounterVec("cg_enrichments_total", "Enrichment passes by outcome.", []string{"outcome"}),
		llmRequests:  NewCounterVec("cg_llm_requests_total", "LLM requests by model/status.", []string{"model", "status"}),
		llmLatency:   NewHistogramVec("cg_llm_request_duration_seconds", "LLM request latency.", []string{"model", "status"}, []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60}),
		dbStats:      NewGaugeVec("cg_db_stats", "Database pool statistics.", []string{"stat"}),
		redisUp:      NewGauge("cg_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing:    NewGauge("cg_redis_ping_seconds", "Last Redis ping latency."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.generations, m.genLatency, m.genSections, m.genRules,
		m.cacheLookups, m.enrichments,
		m.llmRequests, m.llmLatency,
		m.dbStats, m.redisUp, m.redisPing,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflight(delta float64) {
	if m == nil {
		return
	}
	m.apiInflight.Add(delta)
}

// ObserveGeneration records one Service.Generate call. status is "ok" or "error".
func (m *Metrics) ObserveGeneration(status string, dur time.Duration, sections, rules int) {
	if m == nil {
		return
	}
	m.generations.Inc(status)
	m.genLatency.Observe(dur.Seconds(), status)
	if status == "ok" {
		m.genSections.Observe(float64(sections))
		m.genRules.Observe(float64(rules))
	}
}

func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.Inc("hit")
		return
	}
	m.cacheLookups.Inc("miss")
}

// IncEnrichment outcome is one of "enriched", "partial", "failed".
func (m *Metrics) IncEnrichment(outcome string) {
	if m == nil {
		return
	}
	m.enrichments.Inc(outcome)
}

func (m *Metrics) ObserveLLMRequest(model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if strings.TrimSpace(model) == "" {
		model = "unknown"
	}
	m.llmRequests.Inc(model, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), model, status)
	}
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
