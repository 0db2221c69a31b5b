package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitLoggerJSON(t *testing.T) {
	defer InitLoggerTo(&bytes.Buffer{}, "error", "json")

	var buf bytes.Buffer
	InitLoggerTo(&buf, "warn", "json")

	log := With("resolver")
	log.Info().Msg("hidden")
	log.Warn().Str("pkg", "com.example").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line at warn level, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["component"] != "resolver" {
		t.Errorf("expected component %q, got %v", "resolver", entry["component"])
	}
	if entry["pkg"] != "com.example" {
		t.Errorf("expected pkg %q, got %v", "com.example", entry["pkg"])
	}
}

func TestInitLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	defer InitLoggerTo(&bytes.Buffer{}, "error", "json")

	var buf bytes.Buffer
	InitLoggerTo(&buf, "verbose", "text")

	Logger.Debug().Msg("debug line")
	Logger.Info().Msg("info line")

	out := buf.String()
	if strings.Contains(out, "debug line") {
		t.Error("debug output should be filtered at the default level")
	}
	if !strings.Contains(out, "info line") {
		t.Errorf("expected info output, got %q", out)
	}
}
