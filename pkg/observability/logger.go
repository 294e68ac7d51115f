package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LogLevel is the minimum severity a logger emits.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger emits JSON lines through slog. Derived loggers carry correlation
// fields; middleware.RequestLogging attaches request_id and actor_id, so
// service logs inside one request share the same keys. Context plumbing for
// those fields lives in pkg/contextkeys, not here.
type Logger struct {
	s *slog.Logger
}

// NewLogger creates a JSON logger writing to output at the given minimum
// level. A nil output defaults to stdout.
func NewLogger(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level.slogLevel()})
	return &Logger{s: slog.New(handler)}
}

// WithField returns a logger that attaches the pair to every line it emits.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{s: l.s.With(key, value)}
}

// WithFields returns a logger carrying all the given pairs.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{s: l.s.With(args...)}
}

// WithError attaches the error text under the "error" key. A nil error
// returns the logger unchanged.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// WithActor attaches the acting principal's id, the field authorization
// denials and revision writes are correlated by.
func (l *Logger) WithActor(actorID int64) *Logger {
	return l.WithField("actor_id", actorID)
}

func (l *Logger) Debug(message string) { l.s.Debug(message) }
func (l *Logger) Info(message string)  { l.s.Info(message) }
func (l *Logger) Warn(message string)  { l.s.Warn(message) }
func (l *Logger) Error(message string) { l.s.Error(message) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.s.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.s.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.s.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.s.Error(fmt.Sprintf(format, args...))
}
