package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bundlint/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{config.LogLevelDebug, slog.LevelDebug},
		{config.LogLevelInfo, slog.LevelInfo},
		{config.LogLevelWarn, slog.LevelWarn},
		{config.LogLevelError, slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestSetupWithWriter_TextFormat(t *testing.T) {
	buf := new(bytes.Buffer)

	cfg := config.Default()
	logger := SetupWithWriter(cfg, buf)

	logger.Info("hello", slog.String("k", "v"))

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "k=v")
}

func TestSetupWithWriter_JSONFormat(t *testing.T) {
	buf := new(bytes.Buffer)

	cfg := config.Default()
	cfg.LogFormat = config.LogFormatJSON

	logger := SetupWithWriter(cfg, buf)
	logger.Info("hello")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestSetupWithWriter_QuietSuppressesInfo(t *testing.T) {
	buf := new(bytes.Buffer)

	cfg := config.Default()
	cfg.Quiet = true

	logger := SetupWithWriter(cfg, buf)
	logger.Info("suppressed")
	logger.Error("kept")

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "kept")
}

func TestContextRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := slog.New(slog.NewTextHandler(buf, nil))

	ctx := NewContext(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))

	// Fallback to default when no logger carried.
	assert.NotNil(t, FromContext(context.Background()))
}
