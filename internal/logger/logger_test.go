package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minaironcapital/dividendos/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"loud":    slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_JSONWithRunID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", false).With("component", "pipeline")

	ctx := WithRunID(context.Background(), "run-123")
	log.InfoContext(ctx, "feed parsed", "rows", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "feed parsed", line["msg"])
	assert.Equal(t, "pipeline", line["component"])
	assert.Equal(t, "run-123", line["run_id"])
	assert.Equal(t, float64(3), line["rows"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "warn", false).Info("hidden")
	assert.Empty(t, buf.String())

	New(&buf, "warn", true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestRunID_Missing(t *testing.T) {
	assert.Equal(t, "", RunID(context.Background()))
}

func TestInit_WritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "dividendos.log")
	log, closer, err := Init(config.LoggingConfig{Level: "info", File: path}, false)
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
