package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmerge/internal/config"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLoggerBothOutputs(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	var console bytes.Buffer

	logger, closer, err := NewLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "both",
		FilePath: logFile,
	}, &console)
	require.NoError(t, err)

	logger.Info("test message", "key", "value")
	require.NoError(t, closer())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	for _, data := range [][]byte{content, console.Bytes()} {
		entries := decodeLines(t, data)
		require.Len(t, entries, 1)
		assert.Equal(t, "test message", entries[0]["msg"])
		assert.Equal(t, "value", entries[0]["key"])
		assert.Equal(t, "INFO", entries[0]["level"])
	}
}

func TestNewLoggerTextFormat(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "info", Format: "text", Output: "console"}, &console)
	require.NoError(t, err)

	logger.Info("hello", "rows", 3)
	assert.Contains(t, console.String(), "msg=hello")
	assert.Contains(t, console.String(), "rows=3")
}

func TestNewLoggerBadFilePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, _, err := NewLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(blocker, "app.log")}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunAndTraceIDInjection(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "json", Output: "console"}, &console)
	require.NoError(t, err)

	providers, err := InitializeOTel(&OTelConfig{ServiceName: "test", TraceExporter: "none"}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	console.Reset()

	ctx := WithRunID(context.Background(), "run-123")
	ctx, span := providers.Tracer.Start(ctx, "step")
	logger.InfoContext(ctx, "inside span")
	span.End()

	logger.Info("no context")

	entries := decodeLines(t, console.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "run-123", entries[0]["run_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[0]["trace_id"])
	assert.NotContains(t, entries[1], "run_id")
	assert.NotContains(t, entries[1], "trace_id")
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.level), tt.level)
	}

	var console bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "json", Output: "console"}, &console)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept")

	entries := decodeLines(t, console.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRunID(ctx))

	ctx = EnsureRunID(ctx)
	id := GetRunID(ctx)
	assert.Len(t, id, 36)
	assert.Equal(t, id, GetRunID(EnsureRunID(ctx)))

	assert.NotEqual(t, GenerateRunID(), GenerateRunID())
}

func TestWithComponent(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "console"}, &console)
	require.NoError(t, err)

	WithComponent(logger, "merge").Info("joined")

	entries := decodeLines(t, console.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "merge", entries[0]["component"])
}
