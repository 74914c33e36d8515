// Package vlog provides the structured logging used throughout this
// module's writer and reader packages. It is a small, dependency-free
// logger: leveled, format-switchable (text or JSON), and component
// tagged, ported from
// github.com/TheEntropyCollective/noisefs/pkg/infrastructure/logging.
package vlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a logging severity level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
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

// ParseLevel parses a level name ("debug", "info", "warn", "error",
// case-insensitive), for configuration loaded from JSON or flags.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("vlog: unknown log level %q", name)
	}
}

// Format selects how log entries are rendered.
type Format int

const (
	TextFormat Format = iota
	JSONFormat
)

// ParseFormat parses a format name ("text" or "json", case-insensitive).
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "text":
		return TextFormat, nil
	case "json":
		return JSONFormat, nil
	default:
		return TextFormat, fmt.Errorf("vlog: unknown log format %q", name)
	}
}

// Entry is a single structured log entry.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger is a leveled, format-switchable structured logger.
type Logger struct {
	mu        sync.Mutex
	level     Level
	format    Format
	output    io.Writer
	component string
}

// Config configures a new Logger.
type Config struct {
	Level     Level
	Format    Format
	Output    io.Writer
	Component string
}

// DefaultConfig returns the logger's default configuration: Info level,
// text format, stderr output.
func DefaultConfig() Config {
	return Config{Level: InfoLevel, Format: TextFormat, Output: os.Stderr}
}

// New creates a Logger from cfg, filling in defaults for zero fields.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{level: cfg.Level, format: cfg.Format, output: cfg.Output, component: cfg.Component}
}

// Default is the package-level logger used by components that don't
// have their own injected Logger.
var Default = New(DefaultConfig())

// WithComponent returns a copy of l tagged with component.
func (l *Logger) WithComponent(component string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{level: l.level, format: l.format, output: l.output, component: component}
}

// SetLevel changes the minimum level l will emit.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Enabled reports whether level would be emitted by l.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

func (l *Logger) log(level Level, msg string, fields map[string]any) {
	if !l.Enabled(level) {
		return
	}
	entry := Entry{Timestamp: time.Now(), Level: level.String(), Component: l.component, Message: msg, Fields: fields}

	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.format {
	case JSONFormat:
		b, err := json.Marshal(entry)
		if err != nil {
			return
		}
		fmt.Fprintln(l.output, string(b))
	default:
		if entry.Component != "" {
			fmt.Fprintf(l.output, "%s [%s] %s: %s %v\n", entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Component, entry.Message, entry.Fields)
		} else {
			fmt.Fprintf(l.output, "%s [%s] %s %v\n", entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Message, entry.Fields)
		}
	}
}

func (l *Logger) Debug(msg string, fields map[string]any) { l.log(DebugLevel, msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.log(InfoLevel, msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.log(WarnLevel, msg, fields) }
func (l *Logger) Error(msg string, fields map[string]any) { l.log(ErrorLevel, msg, fields) }
