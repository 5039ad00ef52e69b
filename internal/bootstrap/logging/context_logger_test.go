package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestWithAttrsOverridesByKey(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "debug", "json"))
	ctx = WithAttrs(ctx, slog.String("component", "qualification"), slog.Uint64("equipment_id", 1))
	ctx = WithAttrs(ctx, slog.Uint64("equipment_id", 2))

	Warn(ctx, "equipment has no phases")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if line["equipment_id"] != float64(2) || line["component"] != "qualification" {
		t.Fatalf("log line = %#v", line)
	}
	if line["level"] != "WARN" {
		t.Fatalf("level = %v", line["level"])
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "error", "text"))

	Info(ctx, "hidden")
	Error(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("output = %q", out)
	}
	if ParseLevel("nonsense") != slog.LevelInfo {
		t.Fatalf("ParseLevel() fallback mismatch")
	}
}
