package log

import (
	"bytes"
	"context"
	"testing"

	"golang.org/x/exp/slog"

	"github.com/stretchr/testify/assert"
)

func TestTerminalHandlerColorizesWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, true))
	l.Error("boom")
	assert.Contains(t, buf.String(), "\x1b[31m")
}

func TestTerminalHandlerPlainWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, false))
	l.Error("boom")
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "ERROR boom")
}

func TestSetLevelChangesThreshold(t *testing.T) {
	var buf bytes.Buffer
	h := NewTerminalHandler(&buf, false)
	h.(interface{ SetLevel(slog.Level) }).SetLevel(LevelDebug)
	l := NewLogger(h)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestDiscardHandlerNeverEnabled(t *testing.T) {
	h := DiscardHandler()
	assert.False(t, h.Enabled(context.Background(), LevelCrit))
}
