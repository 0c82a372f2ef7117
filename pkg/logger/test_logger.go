package logger

import (
	"log/slog"
	"sync"
)

// LogMessage represents a captured log line
type LogMessage struct {
	Level   string
	Message string
	Fields  Fields
	Error   error
}

type sink struct {
	mu       sync.Mutex
	messages []LogMessage
}

// TestLogger captures log lines in memory so tests can assert on them
type TestLogger struct {
	sink   *sink
	fields Fields
	err    error
}

// NewTestLogger creates a new capturing logger
func NewTestLogger() *TestLogger {
	return &TestLogger{sink: &sink{}}
}

func (l *TestLogger) record(level, msg string, extra Fields) {
	merged := make(Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.messages = append(l.sink.messages, LogMessage{Level: level, Message: msg, Fields: merged, Error: l.err})
}

func (l *TestLogger) Debug(msg string) { l.record("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.record("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.record("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.record("ERROR", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields Fields) { l.record("DEBUG", msg, fields) }
func (l *TestLogger) InfoWithFields(msg string, fields Fields)  { l.record("INFO", msg, fields) }
func (l *TestLogger) WarnWithFields(msg string, fields Fields)  { l.record("WARN", msg, fields) }
func (l *TestLogger) ErrorWithFields(msg string, fields Fields) { l.record("ERROR", msg, fields) }

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(Fields{key: value})
}

func (l *TestLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{sink: l.sink, fields: merged, err: l.err}
}

func (l *TestLogger) WithError(err error) Logger {
	return &TestLogger{sink: l.sink, fields: l.fields, err: err}
}

// Slog returns a logger that discards output; captured lines only come
// through the Logger methods.
func (l *TestLogger) Slog() *slog.Logger {
	return slog.New(discardHandler{})
}

// Messages returns a copy of all captured lines
func (l *TestLogger) Messages() []LogMessage {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	out := make([]LogMessage, len(l.sink.messages))
	copy(out, l.sink.messages)
	return out
}

// MessagesByLevel returns captured lines of one level
func (l *TestLogger) MessagesByLevel(level string) []LogMessage {
	var out []LogMessage
	for _, m := range l.Messages() {
		if m.Level == level {
			out = append(out, m)
		}
	}
	return out
}

// HasMessage reports whether a line with exactly this text was captured
func (l *TestLogger) HasMessage(text string) bool {
	for _, m := range l.Messages() {
		if m.Message == text {
			return true
		}
	}
	return false
}

// HasError reports whether anything was logged at error level
func (l *TestLogger) HasError() bool {
	return len(l.MessagesByLevel("ERROR")) > 0
}

// Clear drops all captured lines
func (l *TestLogger) Clear() {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.messages = nil
}
