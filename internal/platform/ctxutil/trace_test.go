package ctxutil

import (
	"context"
	"strings"
	"testing"
)

func TestEnsureTraceDataKeepsExisting(t *testing.T) {
	orig := &TraceData{TraceID: "t", RequestID: "r", Origin: OriginHTTP}
	ctx := WithTraceData(context.Background(), orig)
	ctx2, td := EnsureTraceData(ctx, OriginCLI)
	if td != orig || GetTraceData(ctx2) != orig {
		t.Fatalf("existing trace data replaced: %+v", td)
	}
}

func TestEnsureTraceDataMintsIDs(t *testing.T) {
	ctx, td := EnsureTraceData(context.Background(), OriginCLI)
	if td.RequestID == "" || td.TraceID == "" || td.Origin != OriginCLI {
		t.Fatalf("unexpected minted data %+v", td)
	}
	if GetTraceData(ctx) != td {
		t.Fatalf("minted data not stored on context")
	}
}

func TestCleanID(t *testing.T) {
	long := strings.Repeat("x", 128)
	cases := []struct{ in, want string }{
		{"  req-1 ", "req-1"},
		{"a.b:c_d", "a.b:c_d"},
		{"", ""},
		{"has space", ""},
		{"line\nbreak", ""},
		{long + "x", ""},
		{long, long},
	}
	for _, tc := range cases {
		if got := CleanID(tc.in); got != tc.want {
			t.Fatalf("CleanID(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestNilTraceDataHelpers(t *testing.T) {
	var td *TraceData
	if td.LogFields() != nil || td.Attributes() != nil {
		t.Fatalf("nil trace data must yield no fields")
	}
	full := &TraceData{TraceID: "t", RequestID: "r", Origin: OriginHTTP, Client: "10.0.0.1"}
	if got := len(full.LogFields()); got != 8 {
		t.Fatalf("expected 8 log values, got %d", got)
	}
	if got := len(full.Attributes()); got != 2 {
		t.Fatalf("expected 2 attributes, got %d", got)
	}
}
