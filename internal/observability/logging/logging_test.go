package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Writer: &buf})
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be suppressed at warn level:\n%s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing:\n%s", out)
	}
}

func TestNewDefaultsToJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})
	logger.Info("structured", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "structured" || record["key"] != "value" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNewTextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Config{Format: "text", Writer: &buf})
	logger.Info("line")
	if !strings.Contains(buf.String(), "msg=line") {
		t.Fatalf("expected text handler output, got %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := WithComponent(New(Config{Writer: &buf}), "catalog")
	logger.Info("tagged")
	if !strings.Contains(buf.String(), `"component":"catalog"`) {
		t.Fatalf("expected component field, got %q", buf.String())
	}
	if WithComponent(nil, "x") != nil {
		t.Fatal("expected nil logger to stay nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Leveler{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
