package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerTagsServiceAndEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "finsight-api", "info")

	logger.Info("api listening", "port", "8000")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if line["service"] != "finsight-api" {
		t.Fatalf("service = %v", line["service"])
	}
	if line["msg"] != "api listening" || line["port"] != "8000" {
		t.Fatalf("unexpected record: %s", buf.String())
	}
}

func TestLoggerLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "finsight-worker", "warn")

	logger.Debug("noise")
	logger.Info("also noise")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "noise") {
		t.Fatalf("low levels not filtered: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn record missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
