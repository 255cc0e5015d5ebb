package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesThroughHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, false))
	l.Info("hello", "x", 1)
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "x=1")
}

func TestLoggerTraceIsBelowDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, false))
	l.Trace("should not appear")
	assert.Empty(t, buf.String())
}

func TestLoggerWithAddsContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, false))
	child := l.With("run", "abc123")
	child.Info("started")
	assert.True(t, strings.Contains(buf.String(), "run=abc123"))
}

func TestLoggerEnabledRespectsHandler(t *testing.T) {
	l := NewLogger(DiscardHandler())
	assert.False(t, l.Enabled(context.Background(), LevelInfo))
}
