package byteio

import (
	"encoding/binary"

	"github.com/pingcap/errors"
)

// ReadUint reads an n-byte (1 <= n <= 8) little-endian unsigned integer
// from the front of data, zero-extending into a uint64, and returns the
// remaining bytes. It fails (without consuming data) if fewer than n
// bytes remain.
func ReadUint(data []byte, n int) (value uint64, rest []byte, err error) {
	if n < 1 || n > 8 {
		return 0, data, errors.Errorf("byteio: invalid width %d", n)
	}
	if len(data) < n {
		return 0, data, errors.Errorf("byteio: need %d bytes, have %d", n, len(data))
	}
	var buf [8]byte
	copy(buf[:n], data[:n])
	value = binary.LittleEndian.Uint64(buf[:])
	return value, data[n:], nil
}

// WriteUint appends the low n bytes (1 <= n <= 8) of value, little-endian,
// to dst and returns the extended slice.
func WriteUint(dst []byte, value uint64, n int) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	return append(dst, buf[:n]...)
}

// Uint8/Uint16/Uint32/Uint64 are thin, full-width little-endian readers
// matching the teacher's direct encoding/binary call sites; they panic on
// a short buffer exactly like encoding/binary does, so callers must length
// check first (as the common header parser does).
func Uint8(data []byte) uint8   { return data[0] }
func Uint16(data []byte) uint16 { return binary.LittleEndian.Uint16(data) }
func Uint32(data []byte) uint32 { return binary.LittleEndian.Uint32(data) }
func Uint64(data []byte) uint64 { return binary.LittleEndian.Uint64(data) }

func PutUint16(dst []byte, v uint16) { binary.LittleEndian.PutUint16(dst, v) }
func PutUint32(dst []byte, v uint32) { binary.LittleEndian.PutUint32(dst, v) }
func PutUint64(dst []byte, v uint64) { binary.LittleEndian.PutUint64(dst, v) }

func AppendUint16(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

func AppendUint32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func AppendUint64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}
