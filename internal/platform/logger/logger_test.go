package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		level    string
		enabled  slog.Level
		disabled slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 4},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"DEBUG", slog.LevelDebug, slog.LevelDebug - 4},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := Setup(tt.level)
			require.NotNil(t, l)

			ctx := context.Background()
			assert.True(t, l.Enabled(ctx, tt.enabled))
			assert.False(t, l.Enabled(ctx, tt.disabled))
		})
	}
}

func TestSetupInvalidLevelFallsBackToInfo(t *testing.T) {
	l := Setup("verbose")
	require.NotNil(t, l)

	ctx := context.Background()
	assert.True(t, l.Enabled(ctx, slog.LevelInfo))
	assert.False(t, l.Enabled(ctx, slog.LevelDebug))
}
