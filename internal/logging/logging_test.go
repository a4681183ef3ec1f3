package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestNewFileSinkWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "planner.log")
	logger, closeFn, err := New(Options{Level: "debug", Format: "json", Sink: SinkFile, File: path})
	require.NoError(t, err)

	logger.Debug("listing fetched", "path", "/repo")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.HasPrefix(line, "{"), "expected JSON output, got %q", line)
	assert.Contains(t, line, `"msg":"listing fetched"`)
	assert.Contains(t, line, `"app":"planner"`)
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.log")
	logger, closeFn, err := New(Options{Level: "warn", Sink: SinkFile, File: path})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestNewErrors(t *testing.T) {
	_, _, err := New(Options{Sink: SinkFile})
	assert.Error(t, err, "file sink without path")

	_, _, err = New(Options{Sink: "carrier-pigeon"})
	assert.Error(t, err)

	logger, closeFn, err := New(Options{Sink: SinkNone})
	require.NoError(t, err)
	logger.Info("discarded")
	assert.NoError(t, closeFn())
}

func TestWithEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogFile, "/tmp/x.log")
	t.Setenv(EnvLogSink, "STDERR")

	opts := Options{Level: "info", Format: "text"}.WithEnv()
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, "json", opts.Format)
	assert.Equal(t, "/tmp/x.log", opts.File)
	assert.Equal(t, SinkStderr, opts.Sink)
}
