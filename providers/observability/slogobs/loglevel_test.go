package slogobs

import (
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"  DEBUG  ", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetLogLevelFromEnv(t *testing.T) {
	t.Setenv("AIGRAPH_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "")
	if got := GetLogLevelFromEnv(); got != slog.LevelInfo {
		t.Errorf("default = %v, want INFO", got)
	}

	t.Setenv("LOG_LEVEL", "warn")
	if got := GetLogLevelFromEnv(); got != slog.LevelWarn {
		t.Errorf("fallback = %v, want WARN", got)
	}

	t.Setenv("AIGRAPH_LOG_LEVEL", "error")
	if got := GetLogLevelFromEnv(); got != slog.LevelError {
		t.Errorf("precedence = %v, want ERROR", got)
	}
}

func TestLogLevelString_RoundTrip(t *testing.T) {
	for _, name := range []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"} {
		if got := LogLevelString(ParseLogLevel(name)); got != name {
			t.Errorf("round trip %q -> %q", name, got)
		}
	}
}
