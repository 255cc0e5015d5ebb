// Package hexutil implements hex encoding and value-bit-packing helpers
// for trace operand values: hex<->bytes conversion and scalar bit packing
// for register and memory operand payloads.
package hexutil

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/holiman/uint256"
)

// ErrOddLength is wrapped into the value HexToBytes panics with when a hex
// string has an odd number of nibbles.
var ErrOddLength = fmt.Errorf("hex string has odd length")

// HexToBytes decodes an even-length, optionally "0x"-prefixed hex string
// into raw bytes. It panics on malformed input: an odd-length string or an
// invalid nibble is a contract violation by the trace producer, not a
// recoverable condition (spec §7, "Malformed value").
func HexToBytes(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		panic(fmt.Errorf("hexutil: %w: %q", ErrOddLength, s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Errorf("hexutil: invalid hex nibble in %q: %w", s, err))
	}
	return b
}

// BytesToHex formats b as a "0x"-prefixed lowercase hex string. When
// group32 is true, an underscore is inserted every 4 bytes (32 bits) to
// make wide vector values easier to eyeball in logs.
func BytesToHex(b []byte, group32 bool) string {
	var sb strings.Builder
	sb.WriteString("0x")
	enc := hex.EncodeToString(b)
	if !group32 {
		sb.WriteString(enc)
		return sb.String()
	}
	for i := 0; i < len(enc); i += 8 {
		if i > 0 {
			sb.WriteByte('_')
		}
		end := i + 8
		if end > len(enc) {
			end = len(enc)
		}
		sb.WriteString(enc[i:end])
	}
	return sb.String()
}

// ToBits packs a scalar operand value into its raw bit representation.
// When isFloat, sizeBytes must be 4 (value is reinterpreted as the bits of
// a 32-bit IEEE-754 float) or 8 (the bits of a 64-bit double); any other
// size panics. Otherwise value is truncated to an integer and masked to
// sizeBytes*8 bits; an integer size outside 1..8 bytes panics.
func ToBits(value float64, sizeBytes int, isFloat bool) uint64 {
	if isFloat {
		switch sizeBytes {
		case 4:
			return uint64(math.Float32bits(float32(value)))
		case 8:
			return math.Float64bits(value)
		default:
			panic(fmt.Errorf("hexutil: unsupported float size %d bytes", sizeBytes))
		}
	}
	bits := sizeBytes * 8
	if bits <= 0 || bits > 64 {
		panic(fmt.Errorf("hexutil: unsupported integer size %d bytes", sizeBytes))
	}
	raw := uint64(int64(value))
	if bits == 64 {
		return raw
	}
	mask := uint64(1)<<uint(bits) - 1
	return raw & mask
}

// VectorAsUint256 renders a vector operand's raw bytes (big-endian, as
// they appear on the wire) as a uint256 for human-readable logging of
// wide SIMD operands. It is not authoritative: MemAccess.Vector.Bytes
// remains the source of truth; this is a convenience view only, and
// returns false for vectors wider than 32 bytes.
func VectorAsUint256(b []byte) (*uint256.Int, bool) {
	if len(b) > 32 {
		return nil, false
	}
	return new(uint256.Int).SetBytes(b), true
}
