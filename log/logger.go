package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

// LogLevel orders message severity. A logger drops everything below its
// configured level; LogLevelNone silences it entirely.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelNone
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelNone:
		return "NONE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// Logger receives the engine's diagnostics. The executor reports
// checkpoint-store trouble through Warn; the rest of the interface is for
// the embedding application.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// DefaultLogger writes level-tagged lines through the standard library
// logger. Safe for concurrent use.
type DefaultLogger struct {
	out   *log.Logger
	level LogLevel
}

var _ Logger = (*DefaultLogger)(nil)

// NewCustomLogger creates a DefaultLogger writing to out, dropping
// messages below level.
func NewCustomLogger(out io.Writer, level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		out:   log.New(out, "[flowgraph] ", log.LstdFlags),
		level: level,
	}
}

func (l *DefaultLogger) printf(level LogLevel, format string, v []any) {
	if level < l.level {
		return
	}
	l.out.Printf("["+level.String()+"] "+format, v...)
}

func (l *DefaultLogger) Debug(format string, v ...any) { l.printf(LogLevelDebug, format, v) }
func (l *DefaultLogger) Info(format string, v ...any)  { l.printf(LogLevelInfo, format, v) }
func (l *DefaultLogger) Warn(format string, v ...any)  { l.printf(LogLevelWarn, format, v) }
func (l *DefaultLogger) Error(format string, v ...any) { l.printf(LogLevelError, format, v) }

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(format string, v ...any) {}
func (NoOpLogger) Info(format string, v ...any)  {}
func (NoOpLogger) Warn(format string, v ...any)  {}
func (NoOpLogger) Error(format string, v ...any) {}

var defaultLogger Logger = NewCustomLogger(os.Stderr, LogLevelInfo)

// SetDefaultLogger replaces the logger used by graphs that never called
// SetLogger.
func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the package-level logger.
func GetDefaultLogger() Logger {
	return defaultLogger
}
