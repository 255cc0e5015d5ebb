package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withDefaultCapture(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := Root()
	SetDefault(NewLogger(NewTerminalHandler(&buf, false)))
	defer SetDefault(prev)
	fn()
	return buf.String()
}

func TestEveryNLetsNthCallThrough(t *testing.T) {
	s := &EveryN{N: 3}
	out := withDefaultCapture(t, func() {
		for i := 0; i < 6; i++ {
			InfoBy(s, "tick")
		}
	})
	assert.Equal(t, 2, countOccurrences(out, "tick"))
}

func TestEveryNZeroLetsEverythingThrough(t *testing.T) {
	s := &EveryN{}
	out := withDefaultCapture(t, func() {
		InfoBy(s, "tick")
		InfoBy(s, "tick")
	})
	assert.Equal(t, 2, countOccurrences(out, "tick"))
}

func TestInfoIfGatesOnCondition(t *testing.T) {
	out := withDefaultCapture(t, func() {
		InfoIf(false, "should not appear")
		InfoIf(true, "should appear")
	})
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
