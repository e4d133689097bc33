package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWritesComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Level: slog.LevelInfo, Component: ComponentLedger})
	l.Info("hello", FieldCount, 3)

	out := buf.String()
	if strings.Count(out, "component=ledger") != 1 {
		t.Fatalf("expected one component attribute, got %q", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Fatalf("missing field in %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentHTTP).Info("child")
	if !strings.Contains(buf.String(), "component=http") {
		t.Fatalf("child component missing in %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf, Format: "json"}).Warn("w")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected json output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf}).With(FieldRequestID, "req_1")

	ctx := IntoContext(context.Background(), l)
	seen := FromContext(ctx)
	if seen != l {
		t.Fatalf("logger not found in context")
	}
	seen.LogError(ctx, "boom", errors.New("bad"), OpCreate, nil)

	out := buf.String()
	for _, want := range []string{"request_id=req_1", "error=bad", "operation=create"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}

	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("fallback logger should report unknown component")
	}
}
