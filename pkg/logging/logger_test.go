package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{" ERROR ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSetupFiltersBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Output: buf})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger := NewLogger("dispatcher")
	logger.Info().Msg("batch committed")
	logger.Warn().Msg("rotating credential")

	out := buf.String()
	if strings.Contains(out, "batch committed") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "rotating credential") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestPrettyOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Pretty: true, Output: buf})

	l := NewLogger("cli")
	l.Info().Msg("analysis finished")

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("expected console format, got JSON: %q", out)
	}
	if !strings.Contains(out, "analysis finished") {
		t.Errorf("message missing: %q", out)
	}
}

func TestContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := WithBatch(WithRun(NewLogger("dispatcher"), "run-123"), 2, 15)
	logger.Info().Msg("batch committed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	want := map[string]any{
		"component":  "dispatcher",
		"run_id":     "run-123",
		"batch":      float64(2),
		"batch_size": float64(15),
		"message":    "batch committed",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("field %s = %v, want %v", k, line[k], v)
		}
	}
}
