package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newBufferLogger(level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = &buf

	return NewLogger(cfg), &buf
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"":        LogLevelInfo,
		"warning": LogLevelWarn,
		" error ": LogLevelError,
	}

	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestStructuredLogger_LevelsAndContext(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.Debug("hidden")
	logger.WithComponent("dispatch").WithRun("run-1").WithContext("tenant", "acme").
		Info("dispatch.model.call", "node", "global", slog.Int("tools", 2))

	out := lines(buf)
	require.Len(t, out, 1)

	entry := out[0]
	assert.Equal(t, "dispatch.model.call", gjson.Get(entry, "msg").String())
	assert.Equal(t, "dispatch", gjson.Get(entry, "component").String())
	assert.Equal(t, "run-1", gjson.Get(entry, "run_id").String())
	assert.Equal(t, "acme", gjson.Get(entry, "tenant").String())
	assert.Equal(t, "global", gjson.Get(entry, "node").String())
	assert.Equal(t, int64(2), gjson.Get(entry, "tools").Int())
}

func TestStructuredLogger_WithDoesNotMutate(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	_ = logger.WithContext("k", "v").WithComponent("x")
	logger.Info("plain")

	entry := lines(buf)[0]
	assert.False(t, gjson.Get(entry, "k").Exists())
	assert.False(t, gjson.Get(entry, "component").Exists())
}

func TestStructuredLogger_CallRecords(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	var rec CallRecorder = logger
	rec.LogActionCall("lookup", 5*time.Millisecond, nil)
	rec.LogModelCall("gpt", 3, time.Millisecond, errors.New("boom"))

	out := lines(buf)
	require.Len(t, out, 2)

	assert.Equal(t, "action.call.completed", gjson.Get(out[0], "msg").String())
	assert.Equal(t, "lookup", gjson.Get(out[0], "action").String())
	assert.True(t, gjson.Get(out[0], "success").Bool())

	assert.Equal(t, "model.call.failed", gjson.Get(out[1], "msg").String())
	assert.Equal(t, "ERROR", gjson.Get(out[1], "level").String())
	assert.Equal(t, "boom", gjson.Get(out[1], "error").String())
	assert.Equal(t, int64(3), gjson.Get(out[1], "tools").Int())
}

func TestStructuredLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "key=value")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSlogAdapterAndNoOp(t *testing.T) {
	var buf bytes.Buffer

	logger := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))
	logger.Info("adapter.works", "n", 1)
	assert.Equal(t, "adapter.works", gjson.Get(buf.String(), "msg").String())

	var noop Logger = NoOpLogger{}
	assert.NotPanics(t, func() { noop.Error("ignored") })

	_, isRecorder := noop.(CallRecorder)
	assert.False(t, isRecorder)
}
