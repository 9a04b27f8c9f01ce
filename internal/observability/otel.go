package observability

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/coursegen-backend/internal/platform/envutil"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

const (
	defaultServiceName = "coursegen"
	defaultSampleRatio = 1.0
	disabled           = "disabled"
)

// OtelConfig describes the deployment in exported spans. Exporter settings
// come from OTEL_* environment variables.
type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string

	// NormsDir is the corpus directory; empty means norms come from the database.
	NormsDir string
	// HistoryDriver is the gorm driver for generation history, empty when off.
	HistoryDriver string
	// EnrichModel is the language model used for enrichment, empty when off.
	EnrichModel string
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel installs the global tracer provider once. The returned shutdown func
// is nil when OTEL_ENABLED is off.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		if !otelEnabled() {
			return
		}
		attrs := resourceAttributes(cfg)
		res, err := resource.New(ctx, resource.WithAttributes(attrs...))
		if err != nil && log != nil {
			log.Warn("otel resource init failed (continuing)", "error", err)
		}

		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(otelSampleRatio()))),
			sdktrace.WithResource(res),
		}
		exporter, err := buildTraceExporter(ctx, log)
		if err != nil && log != nil {
			log.Warn("otel exporter init failed (spans dropped)", "error", err)
		}
		if exporter != nil {
			opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
		}
		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		if log != nil {
			log.Info("otel tracing initialized", append(attrFields(attrs), "endpoint", otelEndpoint())...)
		}
	})
	return otelShutdown
}

// resourceAttributes names the service plus the generation setup a trace
// reader needs: where norms come from, whether history is kept and which
// model enriches courses.
func resourceAttributes(cfg OtelConfig) []attribute.KeyValue {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = defaultServiceName
	}
	norms := "database"
	if dir := strings.TrimSpace(cfg.NormsDir); dir != "" {
		norms = filepath.Clean(dir)
	}
	return []attribute.KeyValue{
		semconv.ServiceNameKey.String(name),
		semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		attribute.String("coursegen.norms.source", norms),
		attribute.String("coursegen.history.driver", orDisabled(cfg.HistoryDriver)),
		attribute.String("coursegen.enrich.model", orDisabled(cfg.EnrichModel)),
	}
}

func orDisabled(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return disabled
	}
	return v
}

func attrFields(attrs []attribute.KeyValue) []any {
	out := make([]any, 0, 2*len(attrs))
	for _, a := range attrs {
		out = append(out, string(a.Key), a.Value.Emit())
	}
	return out
}

func otelEnabled() bool {
	return envutil.Bool("OTEL_ENABLED", false)
}

// otelSampleRatio reads OTEL_SAMPLER_RATIO clamped to [0,1]; default 1.
func otelSampleRatio() float64 {
	raw := envutil.String("OTEL_SAMPLER_RATIO", "")
	if raw == "" {
		return defaultSampleRatio
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultSampleRatio
	}
	return min(max(f, 0), 1)
}

func otelEndpoint() string {
	return envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

// otelHeaders parses OTEL_EXPORTER_OTLP_HEADERS ("k=v,k2=v2"), dropping
// malformed pairs.
func otelHeaders() map[string]string {
	headers := map[string]string{}
	for _, part := range strings.Split(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""), ",") {
		key, val, ok := strings.Cut(part, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

// buildTraceExporter picks OTLP/HTTP when an endpoint is set, else stdout
// unless OTEL_STDOUT=false. A nil exporter keeps spans in-process only.
func buildTraceExporter(ctx context.Context, log *logger.Logger) (sdktrace.SpanExporter, error) {
	if endpoint := otelEndpoint(); endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false) {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if headers := otelHeaders(); headers != nil {
			opts = append(opts, otlptracehttp.WithHeaders(headers))
		}
		return otlptracehttp.New(ctx, opts...)
	}
	if !envutil.Bool("OTEL_STDOUT", true) {
		return nil, nil
	}
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	}
	return exp, nil
}
