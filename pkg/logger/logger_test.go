package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{TraceLevel, "TRACE"},
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(999), "UNKNOWN"},
	}

	for _, test := range tests {
		if result := test.level.String(); result != test.expected {
			t.Errorf("Level.String() = %v, expected %v", result, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", TraceLevel},
		{"DEBUG", DebugLevel},
		{" warn ", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"info", InfoLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLoggerInitialization(t *testing.T) {
	err := Initialize(Config{Level: InfoLevel, Component: "test"})
	require.NoError(t, err)
	require.NotNil(t, Default())
	assert.Equal(t, "test", Default().config.Component)
}

func TestLoggerPrettyFormatting(t *testing.T) {
	l := New(Config{Level: InfoLevel, Component: "test"}, nil)
	entry := LogEntry{
		Time:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Level:     "INFO",
		Message:   "test message",
		Component: "test",
		Fields:    map[string]interface{}{"b": 2, "a": "one"},
	}

	got := l.formatPretty(entry)
	assert.Equal(t, "2025-01-01 12:00:00 [INFO] test: test message {a=one, b=2}", got)
}

func TestLoggerNoOpTag(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, NoOp: true}, &buf)
	l.Info("dry run")
	assert.Contains(t, buf.String(), "[NO-OP] dry run")
}

func TestLoggerJSONFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, JSON: true, Component: "publish"}, &buf)
	l.Warn("asset missing", String("ref", "missing.png"), Int("count", 1))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "asset missing", entry.Message)
	assert.Equal(t, "publish", entry.Component)
	assert.Equal(t, "missing.png", entry.Fields["ref"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: WarnLevel}, &buf)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 2, strings.Count(out, "shown"))
}

func TestLoggerDebugIncludesCaller(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: DebugLevel}, &buf)
	l.Debug("where")
	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: InfoLevel, Component: "root"}, &buf)
	base.With("mirror").Info("copied")
	assert.Contains(t, buf.String(), " mirror: copied")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.False(t, l.Enabled(ErrorLevel))
	l.Error("nothing happens")
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 3}, Int("n", 3))
	assert.Equal(t, Field{Key: "b", Value: true}, Bool("b", true))
	assert.Equal(t, Field{Key: "d", Value: "1.5s"}, Duration("d", 1500*time.Millisecond))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(errors.New("boom")))
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
}
