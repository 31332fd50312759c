package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerInitialized(t *testing.T) {
	require.NotNil(t, GetLogger())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"InFo", slog.LevelInfo},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, ParseLevel(tt.level), "level %q", tt.level)
	}
}

func TestInitLoggerFormats(t *testing.T) {
	InitLogger("debug", false)
	text := GetLogger()
	require.NotNil(t, text)

	InitLogger("debug", true)
	jsonLogger := GetLogger()
	require.NotNil(t, jsonLogger)
	require.NotEqual(t, text, jsonLogger)
}

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	InitLogger("info", false)
	require.Equal(t, GetLogger(), GetLogger())
}
