// Package logging configures the process-wide slog logger. The TUI owns the
// terminal, so the default sink is a rotating file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Sink string

const (
	SinkFile   Sink = "file"
	SinkStderr Sink = "stderr"
	SinkNone   Sink = "none"
)

const (
	EnvLogLevel  = "PLANNER_LOG_LEVEL"
	EnvLogFormat = "PLANNER_LOG_FORMAT"
	EnvLogFile   = "PLANNER_LOG_FILE"
	EnvLogSink   = "PLANNER_LOG_SINK"
)

type Options struct {
	Level  string
	Format string // "text" or "json"
	Sink   Sink
	File   string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// WithEnv returns o with PLANNER_LOG_* overrides applied.
func (o Options) WithEnv() Options {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		o.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		o.Format = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		o.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSink)); v != "" {
		o.Sink = Sink(strings.ToLower(v))
	}
	return o
}

// New builds a logger from opts. The returned func closes the sink.
func New(opts Options) (*slog.Logger, func() error, error) {
	writer, closeFn, err := resolveWriter(opts)
	if err != nil {
		return nil, nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, handlerOpts)
	default:
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	return slog.New(handler).With(slog.String("app", "planner")), closeFn, nil
}

// Init builds a logger and installs it as the slog default.
func Init(opts Options) (func() error, error) {
	logger, closeFn, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closeFn, nil
}

func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func resolveWriter(opts Options) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	switch opts.Sink {
	case SinkNone:
		return io.Discard, noop, nil
	case SinkStderr:
		return os.Stderr, noop, nil
	case SinkFile, "":
		path := strings.TrimSpace(opts.File)
		if path == "" {
			return nil, nil, fmt.Errorf("logging: file sink requires a path")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		rot := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 14),
			Compress:   true,
		}
		return rot, rot.Close, nil
	default:
		return nil, nil, fmt.Errorf("logging: unknown sink %q", opts.Sink)
	}
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
