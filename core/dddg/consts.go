package dddg

// addrMask drops the top byte of every address operand before it's used
// for indexing (spec §6, "ADDR_MASK... to drop any high tag bits the
// producer may set"). The original leaves the exact width to a build-time
// constant not present in this pack; 56 usable address bits comfortably
// covers any real trace while discarding a tag byte.
const addrMask = uint64(0x00FFFFFFFFFFFFFF)

// byteBits is BYTE from spec §6: the number of bits in a byte, used to
// convert a bit-size operand into a byte count.
const byteBits = 8
