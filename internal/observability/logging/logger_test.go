package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerTagsService(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, "invoice-api", "info")
	logger.Debug("hidden")
	logger.Info("invoice_added", "invoice_id", "id-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "invoice-api" || entry["msg"] != "invoice_added" || entry["invoice_id"] != "id-1" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
