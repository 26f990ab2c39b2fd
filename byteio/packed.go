package byteio

import "github.com/pingcap/errors"

// packed first-byte markers, see §4.1.
const (
	packed2ByteMarker byte = 0xfc // 252
	packed3ByteMarker byte = 0xfd // 253
	packed8ByteMarker byte = 0xfe // 254
	packedNullMarker  byte = 0xfb // 251 - "max marker" / reserved
	packedForbidden   byte = 0xff // 255 - never emitted, decode fails
)

// PackedNull is the sentinel value a first byte of 251 decodes to.
const PackedNull = ^uint64(0)

// ReadPackedInt decodes a MySQL length-encoded ("packed") unsigned 64-bit
// integer from the front of data and returns the remainder.
func ReadPackedInt(data []byte) (value uint64, rest []byte, err error) {
	if len(data) == 0 {
		return 0, data, errors.New("byteio: empty buffer for packed int")
	}
	b := data[0]
	switch {
	case b < packedNullMarker:
		return uint64(b), data[1:], nil
	case b == packedNullMarker:
		return PackedNull, data[1:], nil
	case b == packed2ByteMarker:
		return ReadUint(data[1:], 2)
	case b == packed3ByteMarker:
		return ReadUint(data[1:], 3)
	case b == packed8ByteMarker:
		return ReadUint(data[1:], 8)
	default: // packedForbidden
		return 0, data, errors.Errorf("byteio: forbidden packed-int marker 0x%02x", b)
	}
}

// WritePackedInt appends the shortest packed-int encoding of value to dst.
// PackedNull itself is written in the 8-byte form (which decodes back to
// the same value), never as the 0xfb marker; callers that need to emit
// the "reserved" marker should write 0xfb directly.
func WritePackedInt(dst []byte, value uint64) []byte {
	switch {
	case value < uint64(packedNullMarker):
		return append(dst, byte(value))
	case value <= 0xffff:
		dst = append(dst, packed2ByteMarker)
		return WriteUint(dst, value, 2)
	case value <= 0xffffff:
		dst = append(dst, packed3ByteMarker)
		return WriteUint(dst, value, 3)
	default:
		dst = append(dst, packed8ByteMarker)
		return WriteUint(dst, value, 8)
	}
}

// CalculatePackedIntSize returns the number of bytes WritePackedInt would
// emit for value.
func CalculatePackedIntSize(value uint64) int {
	switch {
	case value < uint64(packedNullMarker):
		return 1
	case value <= 0xffff:
		return 3
	case value <= 0xffffff:
		return 4
	default:
		return 9
	}
}
