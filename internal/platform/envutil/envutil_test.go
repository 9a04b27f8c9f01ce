package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "abc")
	if got := Int("ENVUTIL_INT", 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
	t.Setenv("ENVUTIL_INT", " 12 ")
	if got := Int("ENVUTIL_INT", 7); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("ENVUTIL_BOOL", "off")
	if Bool("ENVUTIL_BOOL", true) {
		t.Fatalf("expected false for off")
	}
	t.Setenv("ENVUTIL_BOOL", "maybe")
	if !Bool("ENVUTIL_BOOL", true) {
		t.Fatalf("expected default for unknown value")
	}
}

func TestDurationAcceptsSecondsAndGoSyntax(t *testing.T) {
	t.Setenv("ENVUTIL_DUR", "1500ms")
	if got := Duration("ENVUTIL_DUR", time.Second); got != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s, got %v", got)
	}
	t.Setenv("ENVUTIL_DUR", "20")
	if got := Duration("ENVUTIL_DUR", time.Second); got != 20*time.Second {
		t.Fatalf("expected 20s, got %v", got)
	}
	t.Setenv("ENVUTIL_DUR", "")
	if got := Duration("ENVUTIL_DUR", time.Second); got != time.Second {
		t.Fatalf("expected default, got %v", got)
	}
}
