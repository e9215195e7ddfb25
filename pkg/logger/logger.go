// Package logger provides the levelled, field-based logger used across vaultpub.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a flag value onto a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	// NoOp tags every line so dry runs are obvious in the output.
	NoOp bool
}

// Logger writes structured entries to a single writer. Safe for concurrent use.
type Logger struct {
	config Config
	mu     sync.Mutex
	logger *log.Logger
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// New creates a logger writing to w.
func New(config Config, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		config: config,
		logger: log.New(w, "", 0),
	}
}

// Discard returns a logger that drops everything. Handy as a default in tests.
func Discard() *Logger {
	return New(Config{Level: ErrorLevel + 1}, io.Discard)
}

// Initialize sets up the default logger
func Initialize(config Config) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = New(config, os.Stderr)
	return nil
}

// Default returns the process-wide logger, or a stderr logger at info level
// when Initialize has not run yet.
func Default() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}
	return New(Config{Level: InfoLevel, Component: "vaultpub"}, os.Stderr)
}

// With returns a copy of the logger tagged with a different component.
func (l *Logger) With(component string) *Logger {
	cfg := l.config
	cfg.Component = component
	return &Logger{config: cfg, logger: l.logger}
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.config.Level
}

// Log writes a log message
func (l *Logger) Log(level Level, message string, fields ...Field) {
	l.log(2, level, message, fields...)
}

func (l *Logger) log(depth int, level Level, message string, fields ...Field) {
	if !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Time:      time.Now(),
		Level:     level.String(),
		Message:   message,
		Component: l.config.Component,
		Fields:    make(map[string]interface{}, len(fields)),
	}

	if level <= DebugLevel {
		if _, file, line, ok := runtime.Caller(depth); ok {
			entry.File = file
			entry.Line = line
		}
	}

	for _, field := range fields {
		entry.Fields[field.Key] = field.Value
	}

	var output string
	if l.config.JSON {
		jsonBytes, _ := json.Marshal(entry)
		output = string(jsonBytes)
	} else {
		output = l.formatPretty(entry)
	}

	l.mu.Lock()
	l.logger.Print(output)
	l.mu.Unlock()
}

func (l *Logger) Trace(message string, fields ...Field) { l.log(2, TraceLevel, message, fields...) }
func (l *Logger) Debug(message string, fields ...Field) { l.log(2, DebugLevel, message, fields...) }
func (l *Logger) Info(message string, fields ...Field)  { l.log(2, InfoLevel, message, fields...) }
func (l *Logger) Warn(message string, fields ...Field)  { l.log(2, WarnLevel, message, fields...) }
func (l *Logger) Error(message string, fields ...Field) { l.log(2, ErrorLevel, message, fields...) }

// formatPretty formats the log entry in a human-readable way
func (l *Logger) formatPretty(entry LogEntry) string {
	var builder strings.Builder

	builder.WriteString(entry.Time.Format("2006-01-02 15:04:05"))

	level := entry.Level
	if l.config.UseColor {
		switch entry.Level {
		case "TRACE":
			level = "\033[37mTRACE\033[0m"
		case "DEBUG":
			level = "\033[36mDEBUG\033[0m"
		case "INFO":
			level = "\033[32mINFO\033[0m"
		case "WARN":
			level = "\033[33mWARN\033[0m"
		case "ERROR":
			level = "\033[31mERROR\033[0m"
		}
	}
	builder.WriteString(fmt.Sprintf(" [%s]", level))

	if entry.Component != "" {
		builder.WriteString(fmt.Sprintf(" %s:", entry.Component))
	}

	if l.config.NoOp {
		if l.config.UseColor {
			builder.WriteString(" \033[35m[NO-OP]\033[0m")
		} else {
			builder.WriteString(" [NO-OP]")
		}
	}

	builder.WriteString(" ")
	builder.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		// Sorted so identical entries render identically.
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		builder.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		builder.WriteString("}")
	}

	if entry.File != "" {
		builder.WriteString(fmt.Sprintf(" (%s:%d)", entry.File, entry.Line))
	}

	return builder.String()
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field rendered with time.Duration's String.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// LogEntry represents a log entry
type LogEntry struct {
	Time      time.Time              `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Convenience functions for default logger
func Trace(message string, fields ...Field) { Default().log(2, TraceLevel, message, fields...) }
func Debug(message string, fields ...Field) { Default().log(2, DebugLevel, message, fields...) }
func Info(message string, fields ...Field)  { Default().log(2, InfoLevel, message, fields...) }
func Warn(message string, fields ...Field)  { Default().log(2, WarnLevel, message, fields...) }
func Error(message string, fields ...Field) { Default().log(2, ErrorLevel, message, fields...) }

// SetOutput sets the output writer for the default logger
func SetOutput(w io.Writer) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.logger.SetOutput(w)
		defaultLogger.mu.Unlock()
	}
}
