package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewLoggerWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "api", "info")
	logger.Info("quote_submitted", "quote_id", "q-1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["service"] != "api" || record["msg"] != "quote_submitted" || record["quote_id"] != "q-1" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "worker", "warn")
	logger.Info("lead_received")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be dropped at warn level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
