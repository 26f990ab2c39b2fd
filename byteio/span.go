// Package byteio implements the byte-level codecs every binlog event
// decoder is built on: fixed-width little-endian integers, MySQL's
// length-encoded ("packed") integers, MySQL's self-describing varlen
// integers, fixed byte spans, and the CRC32 footer checksum.
package byteio

import (
	"github.com/pingcap/errors"
)

// TakeFixed returns the first n bytes of data and the remainder, failing
// if data is shorter than n.
func TakeFixed(data []byte, n int) (head, rest []byte, err error) {
	if len(data) < n {
		return nil, nil, errors.Errorf("byteio: need %d bytes, have %d", n, len(data))
	}
	return data[:n], data[n:], nil
}

// CopyFixed copies exactly n bytes into a freshly allocated array so the
// returned slice does not alias the source buffer.
func CopyFixed(data []byte, n int) ([]byte, []byte, error) {
	head, rest, err := TakeFixed(data, n)
	if err != nil {
		return nil, nil, err
	}
	out := make([]byte, n)
	copy(out, head)
	return out, rest, nil
}
