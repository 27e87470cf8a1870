package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Logger = NoOpLogger{}
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = (*MemoryLogger)(nil)
)

func newBufferLogger(level LogLevel) (*MemoryLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = buf
	cfg.AddSource = false
	return NewLogger(cfg), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestMemoryLogger_KeyValueArgs(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	l.WithComponent("memory").WithCollection("notes").Info("saved", "id", "id1")

	entry := decodeLine(t, buf)
	assert.Equal(t, "saved", entry["msg"])
	assert.Equal(t, "memory", entry["component"])
	assert.Equal(t, "notes", entry["collection"])
	assert.Equal(t, "id1", entry["id"])
}

func TestMemoryLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.NotZero(t, buf.Len())
}

func TestMemoryLogger_WithContextIsolation(t *testing.T) {
	base, buf := newBufferLogger(LogLevelInfo)
	child := base.WithContext("k", "v").WithContext("k", "w")

	base.Info("base")
	assert.NotContains(t, decodeLine(t, buf), "k")

	buf.Reset()
	child.Info("child")
	assert.Equal(t, "w", decodeLine(t, buf)["k"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{
		Level:       LogLevelInfo,
		Format:      "text",
		Output:      &buf,
		Component:   "store",
		CustomAttrs: map[string]any{"env": "test"},
	})
	l.Info("opened", "dsn", ":memory:")

	line := buf.String()
	assert.Contains(t, line, "msg=opened")
	assert.Contains(t, line, "component=store")
	assert.Contains(t, line, "env=test")
	assert.Contains(t, line, "dsn=:memory:")
}

func TestMemoryLogger_LogMemoryOp(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	l.LogMemoryOp("search", "notes", 3, time.Millisecond, nil)
	entry := decodeLine(t, buf)
	assert.Equal(t, "Memory operation completed", entry["msg"])
	assert.Equal(t, "search", entry["operation"])
	assert.Equal(t, true, entry["success"])

	buf.Reset()
	l.LogMemoryOp("save", "notes", 0, time.Millisecond, errors.New("boom"))
	entry = decodeLine(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("nope"))
	assert.Equal(t, LogLevelDebug, ParseLevel(" Debug "))
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(9).String())
}
