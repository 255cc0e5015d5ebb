package hexutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToBytesRoundTrip(t *testing.T) {
	want := []byte{0xde, 0xad, 0xbe, 0xef}
	got := HexToBytes(BytesToHex(want, false))
	assert.Equal(t, want, got)
}

func TestHexToBytesAcceptsMissingPrefix(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x02}, HexToBytes("0102"))
	assert.Equal(t, []byte{0x01, 0x02}, HexToBytes("0x0102"))
}

func TestHexToBytesPanicsOnOddLength(t *testing.T) {
	assert.Panics(t, func() { HexToBytes("0x1") })
}

func TestHexToBytesPanicsOnInvalidNibble(t *testing.T) {
	assert.Panics(t, func() { HexToBytes("zz") })
}

func TestBytesToHexGrouping(t *testing.T) {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(i)
	}
	got := BytesToHex(b, true)
	assert.Equal(t, "0x00010203_04050607", got)
}

func TestToBitsInteger(t *testing.T) {
	assert.Equal(t, uint64(0xff), ToBits(255, 1, false))
	assert.Equal(t, uint64(0), ToBits(256, 1, false))
	assert.Equal(t, uint64(42), ToBits(42, 8, false))
}

func TestToBitsFloat(t *testing.T) {
	assert.Equal(t, math.Float64bits(3.25), ToBits(3.25, 8, true))
	assert.Equal(t, uint64(math.Float32bits(1.5)), ToBits(1.5, 4, true))
}

func TestToBitsPanicsOnUnsupportedSize(t *testing.T) {
	assert.Panics(t, func() { ToBits(1, 3, true) })
	assert.Panics(t, func() { ToBits(1, 9, false) })
}

func TestVectorAsUint256(t *testing.T) {
	v, ok := VectorAsUint256([]byte{0x01, 0x02})
	require.True(t, ok)
	assert.Equal(t, uint64(0x0102), v.Uint64())

	_, ok = VectorAsUint256(make([]byte, 33))
	assert.False(t, ok)
}
