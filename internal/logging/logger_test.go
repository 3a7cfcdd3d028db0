package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug": log.DebugLevel,
		"warn":  log.WarnLevel,
		"error": log.ErrorLevel,
		"info":  log.InfoLevel,
		"":      log.InfoLevel,
		"loud":  log.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerWithWriter(t *testing.T) {
	t.Setenv("RVBIN_LOG_LEVEL", "debug")
	t.Setenv("RVBIN_LOG_PREFIX", "test ")

	var buf bytes.Buffer
	lg := NewLoggerWithWriter(&buf)
	lg.Debug("Writing program", "words", 5)

	out := buf.String()
	if !strings.Contains(out, "test") || !strings.Contains(out, "Writing program") || !strings.Contains(out, "words=5") {
		t.Errorf("unexpected log output: %q", out)
	}
	if err := lg.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestNewLoggerFiltersByLevel(t *testing.T) {
	t.Setenv("RVBIN_LOG_LEVEL", "warn")

	var buf bytes.Buffer
	lg := NewLoggerWithWriter(&buf)
	lg.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info message logged at warn level: %q", buf.String())
	}
	if IsDebug() {
		t.Error("IsDebug() = true at warn level")
	}
}

func TestIsDebug(t *testing.T) {
	t.Setenv("RVBIN_LOG_LEVEL", "debug")
	if !IsDebug() {
		t.Error("IsDebug() = false with RVBIN_LOG_LEVEL=debug")
	}
}
