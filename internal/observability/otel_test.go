package observability

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestOtelHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer x, bad, =y,team=cg")
	h := otelHeaders()
	if len(h) != 2 || h["authorization"] != "Bearer x" || h["team"] != "cg" {
		t.Fatalf("unexpected headers %v", h)
	}
}

func TestOtelSampleRatio(t *testing.T) {
	cases := map[string]float64{"": 1, "0.5": 0.5, "7": 1, "-2": 0, "abc": 1}
	for raw, want := range cases {
		t.Setenv("OTEL_SAMPLER_RATIO", raw)
		if got := otelSampleRatio(); got != want {
			t.Fatalf("ratio %q: got %v want %v", raw, got, want)
		}
	}
}

func TestOtelEnabledFlag(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	if otelEnabled() {
		t.Fatalf("tracing should default to off")
	}
	t.Setenv("OTEL_ENABLED", "yes")
	if !otelEnabled() {
		t.Fatalf("expected tracing on")
	}
}

func TestResourceAttributesDescribeGenerationSetup(t *testing.T) {
	get := func(attrs []attribute.KeyValue, key string) string {
		for _, a := range attrs {
			if string(a.Key) == key {
				return a.Value.AsString()
			}
		}
		return ""
	}

	full := resourceAttributes(OtelConfig{
		ServiceName:   "cg-api",
		NormsDir:      "norms/",
		HistoryDriver: "postgres",
		EnrichModel:   "gpt-4o-mini",
	})
	if get(full, "service.name") != "cg-api" {
		t.Fatalf("unexpected service name %q", get(full, "service.name"))
	}
	if get(full, "coursegen.norms.source") != "norms" {
		t.Fatalf("unexpected norms source %q", get(full, "coursegen.norms.source"))
	}
	if get(full, "coursegen.history.driver") != "postgres" || get(full, "coursegen.enrich.model") != "gpt-4o-mini" {
		t.Fatalf("unexpected generation attributes %v", full)
	}

	bare := resourceAttributes(OtelConfig{})
	if get(bare, "service.name") != "coursegen" || get(bare, "coursegen.norms.source") != "database" {
		t.Fatalf("unexpected defaults %v", bare)
	}
	if get(bare, "coursegen.history.driver") != "disabled" || get(bare, "coursegen.enrich.model") != "disabled" {
		t.Fatalf("expected disabled markers, got %v", bare)
	}
}
