package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRegisteredCounterIsIndependent(t *testing.T) {
	c := NewRegisteredCounter("dddg/test/isolated")
	c.Inc(3)
	assert.EqualValues(t, 3, c.Count())
}

func TestPackageCountersStartAtZero(t *testing.T) {
	assert.EqualValues(t, 0, Nodes.Count())
	assert.EqualValues(t, 0, RegisterEdges.Count())
}

func TestWriteOnceDoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	Builds.Inc(1)
	assert.NotPanics(t, func() { WriteOnce(&buf) })
	assert.NotEmpty(t, buf.String())
}
