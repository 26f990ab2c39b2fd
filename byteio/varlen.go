package byteio

import (
	"math/bits"

	"github.com/pingcap/errors"
)

// CalculateVarlenUintSize returns the number of bytes WriteVarlenUint would
// emit for value, per the reference MySQL serialization library's
// variable_length_integers.h: n = floor(bit_width(value) * 575 / 4096) + 1.
func CalculateVarlenUintSize(value uint64) int {
	w := bits.Len64(value)
	return ((w * 575) >> 12) + 1
}

// WriteVarlenUint appends the self-describing MySQL varlen encoding of
// value to dst.
func WriteVarlenUint(dst []byte, value uint64) []byte {
	n := CalculateVarlenUintSize(value)

	firstByte := byte(((uint64(1) << (n - 1)) - 1) | (value << uint(n)))
	dst = append(dst, firstByte)
	if n == 1 {
		return dst
	}

	rest := value
	if n < 8 {
		rest >>= uint(8 - n)
	}
	return WriteUint(dst, rest, n-1)
}

// ReadVarlenUint decodes a MySQL varlen-encoded unsigned integer from the
// front of data and returns the remainder.
func ReadVarlenUint(data []byte) (value uint64, rest []byte, err error) {
	if len(data) == 0 {
		return 0, data, errors.New("byteio: empty buffer for varlen int")
	}
	first := data[0]

	n := bits.TrailingZeros8(^first) + 1
	if first == 0xff {
		n = 9
	}

	if len(data) < n {
		return 0, data, errors.Errorf("byteio: need %d bytes for varlen int, have %d", n, len(data))
	}

	if n == 1 {
		return uint64(first) >> 1, data[1:], nil
	}
	if n == 9 {
		return Uint64(data[1:9]), data[9:], nil
	}

	extra, _, err := ReadUint(data[1:n], n-1)
	if err != nil {
		return 0, data, err
	}
	low := uint64(first) >> uint(n)
	if n < 8 {
		value = low | (extra << uint(8-n))
	} else {
		// n == 8: 7 verbatim bytes hold the full (<=56-bit) value; the
		// first byte's upper bit never carries data in this case.
		value = extra
	}
	return value, data[n:], nil
}

func zigzagEncode(value int64) uint64 {
	signMask := uint64(0)
	if value < 0 {
		signMask = ^uint64(0)
	}
	result := uint64(value) ^ signMask
	result <<= 1
	result |= signMask & 1
	return result
}

func zigzagDecode(encoded uint64) int64 {
	signBit := encoded & 1
	encoded >>= 1
	if signBit == 1 {
		encoded = ^encoded
	}
	return int64(encoded)
}

// CalculateVarlenIntSize returns the encoded size of a signed varlen int.
func CalculateVarlenIntSize(value int64) int {
	return CalculateVarlenUintSize(zigzagEncode(value))
}

// WriteVarlenInt appends the zig-zag-mapped varlen encoding of a signed
// value to dst.
func WriteVarlenInt(dst []byte, value int64) []byte {
	return WriteVarlenUint(dst, zigzagEncode(value))
}

// ReadVarlenInt decodes a signed varlen int from the front of data.
func ReadVarlenInt(data []byte) (value int64, rest []byte, err error) {
	u, rest, err := ReadVarlenUint(data)
	if err != nil {
		return 0, data, err
	}
	return zigzagDecode(u), rest, nil
}
