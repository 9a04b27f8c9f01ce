// Package ctxutil carries per-request correlation data from the surface that
// accepted a generation (HTTP, CLI) down to the service, its logs and spans.
package ctxutil

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Origin names the surface that started a generation.
type Origin string

const (
	OriginHTTP Origin = "http"
	OriginCLI  Origin = "cli"
	// OriginInternal marks calls that arrived without correlation data.
	OriginInternal Origin = "internal"
)

const maxIDLen = 128

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
	Origin    Origin
	// Client is the remote address for HTTP calls, empty otherwise.
	Client string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// EnsureTraceData returns ctx unchanged when it already carries trace data.
// Otherwise it mints ids, reusing the active span's trace id when there is one.
func EnsureTraceData(ctx context.Context, origin Origin) (context.Context, *TraceData) {
	if td := GetTraceData(ctx); td != nil {
		return ctx, td
	}
	td := &TraceData{
		TraceID:   SpanTraceID(ctx),
		RequestID: uuid.New().String(),
		Origin:    origin,
	}
	if td.TraceID == "" {
		td.TraceID = uuid.New().String()
	}
	return WithTraceData(ctx, td), td
}

// SpanTraceID is the OpenTelemetry trace id of the active span, or "".
func SpanTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// CleanID accepts caller-supplied ids made of letters, digits, '-', '_', '.'
// and ':' up to 128 bytes; anything else yields "".
func CleanID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxIDLen {
		return ""
	}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return ""
		}
	}
	return raw
}

// LogFields returns key/value pairs for logger.With. Nil-safe.
func (td *TraceData) LogFields() []any {
	if td == nil {
		return nil
	}
	out := []any{"request_id", td.RequestID, "trace_id", td.TraceID, "origin", string(td.Origin)}
	if td.Client != "" {
		out = append(out, "client", td.Client)
	}
	return out
}

// Attributes returns span attributes for the generation spans. Nil-safe.
func (td *TraceData) Attributes() []attribute.KeyValue {
	if td == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("coursegen.request_id", td.RequestID),
		attribute.String("coursegen.origin", string(td.Origin)),
	}
}
