package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slogzerolog "github.com/samber/slog-zerolog/v2"

	"igdash/pkg/config"
)

// Fields is a set of structured key/value pairs attached to a log line
type Fields map[string]interface{}

// Logger defines the interface for logging operations
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	DebugWithFields(msg string, fields Fields)
	InfoWithFields(msg string, fields Fields)
	WarnWithFields(msg string, fields Fields)
	ErrorWithFields(msg string, fields Fields)

	// WithField and WithFields return a child logger; the receiver is unchanged.
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger

	// Slog exposes the same sink for libraries that expect *slog.Logger
	Slog() *slog.Logger
}

type zerologLogger struct {
	zl zerolog.Logger
}

// New creates a Logger from the logging configuration
func New(cfg *config.LoggingConfig) (Logger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	out, err := output(cfg)
	if err != nil {
		return nil, err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zl := zerolog.New(out).Level(level).With().Timestamp().Str("app", "igdash").Logger()
	return &zerologLogger{zl: zl}, nil
}

// FromZerolog wraps an existing zerolog logger
func FromZerolog(zl zerolog.Logger) Logger {
	return &zerologLogger{zl: zl}
}

func output(cfg *config.LoggingConfig) (io.Writer, error) {
	var console io.Writer = os.Stderr
	if !strings.EqualFold(cfg.Format, "json") {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	if cfg.File == "" {
		return console, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return zerolog.MultiLevelWriter(console, file), nil
}

func parseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

func (l *zerologLogger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *zerologLogger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *zerologLogger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *zerologLogger) Error(msg string) { l.zl.Error().Msg(msg) }

func (l *zerologLogger) DebugWithFields(msg string, fields Fields) {
	l.zl.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *zerologLogger) InfoWithFields(msg string, fields Fields) {
	l.zl.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *zerologLogger) WarnWithFields(msg string, fields Fields) {
	l.zl.Warn().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *zerologLogger) ErrorWithFields(msg string, fields Fields) {
	l.zl.Error().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *zerologLogger) WithField(key string, value interface{}) Logger {
	return &zerologLogger{zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *zerologLogger) WithFields(fields Fields) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(map[string]interface{}(fields)).Logger()}
}

func (l *zerologLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return &zerologLogger{zl: l.zl.With().Err(err).Logger()}
}

func (l *zerologLogger) Slog() *slog.Logger {
	zl := l.zl
	return slog.New(slogzerolog.Option{Level: slogLevel(zl.GetLevel()), Logger: &zl}.NewZerologHandler())
}

func slogLevel(level zerolog.Level) slog.Level {
	switch level {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return slog.LevelDebug
	case zerolog.WarnLevel:
		return slog.LevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger
)

// Initialize sets up the global logger
func Initialize(cfg *config.LoggingConfig) (Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}

	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()

	log.Logger = l.(*zerologLogger).zl
	return l, nil
}

// GetLogger returns the global logger, creating an info-level console logger on first use
func GetLogger() Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger, _ = New(&config.LoggingConfig{Level: "info"})
	}
	return globalLogger
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return &zerologLogger{zl: zerolog.Nop()}
}
