package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumdb/stratum/internal/config"
)

func configWith(console, file bool) config.LoggingConfig {
	cfg := config.DefaultLoggingConfig()
	cfg.Console = console
	cfg.File = file
	return cfg
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	filtered := NewLevelFilter(inner, slog.LevelWarn)
	logger := slog.New(filtered)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")

	assert.False(t, filtered.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, filtered.Enabled(context.Background(), slog.LevelError))
}

func TestLevelFilter_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewLevelFilter(inner, slog.LevelWarn)).With("component", "engine")

	logger.Error("boom")
	assert.Contains(t, buf.String(), "component=engine")
}

func TestMultiHandler(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(multi)

	logger.Info("info msg")
	logger.Error("error msg")

	assert.Contains(t, a.String(), "info msg")
	assert.Contains(t, a.String(), "error msg")
	assert.NotContains(t, b.String(), "info msg")
	assert.Contains(t, b.String(), "error msg")
}

func TestNewLogger_Silent(t *testing.T) {
	logger, err := NewLogger(configWith(false, false))
	require.NoError(t, err)
	logger.Info("goes nowhere") // must not panic
}

func TestNewLogger_FileOutput(t *testing.T) {
	cfg := configWith(false, true)
	cfg.Dir = t.TempDir()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Warn("to file")
}
