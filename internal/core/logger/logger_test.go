package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(t *testing.T, level string) (*zap.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, cleanup := NewWith(Options{Level: level, JSON: true, Output: zapcore.AddSync(&buf)})
	t.Cleanup(cleanup)
	return l, &buf
}

func TestJSONOutput(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.Info("user created", zap.Int64("id", 7))
	require.NoError(t, l.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "user created", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.EqualValues(t, 7, line["id"])
	assert.Contains(t, line, "ts")
}

func TestLevelFilter(t *testing.T) {
	l, buf := newBufferLogger(t, "warn")
	l.Info("dropped")
	l.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := newBufferLogger(t, "verbose")
	l.Debug("debug line")
	l.Info("info line")
	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestToWriterTrimsNewline(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	std := ToStdLogger(l, zapcore.WarnLevel)
	std.Print("slow sql\n")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "slow sql", line["msg"])
	assert.Equal(t, "warn", line["level"])
}
