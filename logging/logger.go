package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"
)

// LogLevel decouples level configuration from slog.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ParseLevel maps a level name (any case, "warning" included) to a LogLevel.
// Unknown names resolve to LogLevelInfo.
func ParseLevel(s string) LogLevel {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return LogLevelWarn
	}
	if i := slices.Index(levelNames[:], s); i >= 0 {
		return LogLevel(i)
	}
	return LogLevelInfo
}

// Logger is what memories, stores, tools and grounding log through.
// Arguments after msg are slog style key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter lets a plain *slog.Logger serve as a Logger.
type SlogAdapter struct {
	*slog.Logger
}

func NewSlogAdapter(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{Logger: logger}
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	Level LogLevel
	// Format is "json" (default) or "text".
	Format      string
	Output      io.Writer
	AddSource   bool
	Component   string
	CustomAttrs map[string]any
}

func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    "json",
		Output:    os.Stdout,
		AddSource: true,
	}
}

// MemoryLogger is a slog backed Logger carrying a set of attributes that is
// attached to every entry. The With* methods return copies and never mutate
// the receiver.
type MemoryLogger struct {
	handler slog.Handler
	level   LogLevel
	attrs   []slog.Attr
}

// NewLogger builds a MemoryLogger from cfg. A nil cfg means
// DefaultLoggerConfig.
func NewLogger(cfg *LoggerConfig) *MemoryLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	hopts := &slog.HandlerOptions{Level: cfg.Level.slog(), AddSource: cfg.AddSource}

	var h slog.Handler = slog.NewJSONHandler(out, hopts)
	if cfg.Format == "text" {
		h = slog.NewTextHandler(out, hopts)
	}

	l := &MemoryLogger{handler: h, level: cfg.Level}
	if cfg.Component != "" {
		l.attrs = append(l.attrs, slog.String("component", cfg.Component))
	}
	for k, v := range cfg.CustomAttrs {
		l.attrs = append(l.attrs, slog.Any(k, v))
	}

	return l
}

// NewSlogLogger is shorthand for NewLogger writing to stdout.
func NewSlogLogger(level LogLevel, format string, addSource bool) *MemoryLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.AddSource = addSource
	if format != "" {
		cfg.Format = format
	}
	return NewLogger(cfg)
}

// WithContext returns a logger that adds key=value to every entry. An
// existing attribute with the same key is replaced.
func (l *MemoryLogger) WithContext(key string, value any) *MemoryLogger {
	attrs := slices.DeleteFunc(slices.Clone(l.attrs), func(a slog.Attr) bool { return a.Key == key })

	nl := *l
	nl.attrs = append(attrs, slog.Any(key, value))
	return &nl
}

func (l *MemoryLogger) WithComponent(c string) *MemoryLogger { return l.WithContext("component", c) }

func (l *MemoryLogger) WithCollection(c string) *MemoryLogger { return l.WithContext("collection", c) }

func (l *MemoryLogger) Debug(msg string, args ...any) { l.emit(LogLevelDebug, msg, args) }
func (l *MemoryLogger) Info(msg string, args ...any)  { l.emit(LogLevelInfo, msg, args) }
func (l *MemoryLogger) Warn(msg string, args ...any)  { l.emit(LogLevelWarn, msg, args) }
func (l *MemoryLogger) Error(msg string, args ...any) { l.emit(LogLevelError, msg, args) }

// LogMemoryOp logs the outcome of one memory operation: debug on success,
// error on failure.
func (l *MemoryLogger) LogMemoryOp(op, collection string, records int, dur time.Duration, err error) {
	args := []any{
		"operation", op,
		"collection", collection,
		"records", records,
		"duration", dur,
		"success", err == nil,
	}

	if err != nil {
		l.emit(LogLevelError, "Memory operation failed", append(args, "error", err.Error()))
		return
	}

	l.emit(LogLevelDebug, "Memory operation completed", args)
}

func (l *MemoryLogger) emit(level LogLevel, msg string, args []any) {
	if level < l.level {
		return
	}

	ctx := context.Background()
	if !l.handler.Enabled(ctx, level.slog()) {
		return
	}

	r := slog.NewRecord(time.Now(), level.slog(), msg, 0)
	r.AddAttrs(l.attrs...)
	r.Add(args...)
	_ = l.handler.Handle(ctx, r)
}
