package event

import (
	"bytes"

	"github.com/gongzhxu/binsrv/byteio"
	"github.com/pingcap/errors"
)

const (
	formatDescriptionPostHeaderLength = 98
	serverVersionLength               = 50
	formatDescriptionBodyLength       = 1
	expectedBinlogVersion             = 4
)

// FormatDescriptionEvent is the FDE: first non-artificial event of every
// binlog file, declaring the post-header-length table and checksum
// algorithm every subsequent event in the file is parsed against.
type FormatDescriptionEvent struct {
	BinlogVersion       uint16
	ServerVersion       string
	CreateTimestamp     uint32
	CommonHeaderLength  uint8
	PostHeaderLengths   [TypeDelimiter - 1]uint8
	ChecksumAlgorithm   ChecksumAlgorithm
}

func (FormatDescriptionEvent) Type() Type { return TypeFormatDescription }

// decodeFormatDescription parses the FDE's 98-byte post-header followed by
// its 1-byte body (checksum algorithm).
func decodeFormatDescription(postHeader, body []byte) (FormatDescriptionEvent, error) {
	var e FormatDescriptionEvent
	if len(postHeader) != formatDescriptionPostHeaderLength {
		return e, errors.Errorf("event: format_description post-header must be %d bytes, got %d",
			formatDescriptionPostHeaderLength, len(postHeader))
	}
	if len(body) != formatDescriptionBodyLength {
		return e, errors.Errorf("event: format_description body must be %d byte, got %d",
			formatDescriptionBodyLength, len(body))
	}

	e.BinlogVersion = byteio.Uint16(postHeader[0:2])
	rawVersion := postHeader[2 : 2+serverVersionLength]
	if i := bytes.IndexByte(rawVersion, 0); i >= 0 {
		e.ServerVersion = string(rawVersion[:i])
	} else {
		e.ServerVersion = string(rawVersion)
	}
	e.CreateTimestamp = byteio.Uint32(postHeader[52:56])
	e.CommonHeaderLength = postHeader[56]

	lengths := postHeader[57:]
	n := len(lengths)
	if n > len(e.PostHeaderLengths) {
		n = len(e.PostHeaderLengths)
	}
	copy(e.PostHeaderLengths[:n], lengths[:n])
	for i := n; i < len(e.PostHeaderLengths); i++ {
		e.PostHeaderLengths[i] = unspecifiedPostHeaderLength
	}

	if e.BinlogVersion != expectedBinlogVersion {
		return e, errors.Errorf("event: unsupported binlog_version %d", e.BinlogVersion)
	}
	if e.CommonHeaderLength != CommonHeaderLength {
		return e, errors.Errorf("event: unexpected common_header_length %d", e.CommonHeaderLength)
	}

	algo := ChecksumAlgorithm(body[0])
	if !algo.Valid() {
		return e, errors.Errorf("event: format_description body checksum algorithm %d not < delimiter", body[0])
	}
	e.ChecksumAlgorithm = algo
	return e, nil
}

// PostHeaderLength returns the post-header size the FDE declares for t, or
// unspecifiedPostHeaderLength if t falls outside the declared table.
func (e FormatDescriptionEvent) PostHeaderLength(t Type) uint8 {
	idx := int(t) - 1
	if idx < 0 || idx >= len(e.PostHeaderLengths) {
		return unspecifiedPostHeaderLength
	}
	return e.PostHeaderLengths[idx]
}

// ReconcileWith validates that every post-header length this FDE declares
// agrees with the hard-coded "expected" table, treating "unspecified" in
// the expected table as a wildcard (§4.3 format_description_expected).
func (e FormatDescriptionEvent) ReconcileWith(expected [TypeDelimiter - 1]uint8) error {
	for i, want := range expected {
		if want == unspecifiedPostHeaderLength {
			continue
		}
		got := e.PostHeaderLengths[i]
		if got != want {
			return errors.Errorf("event: format_description post-header length mismatch for type %s: got %d want %d",
				Type(i+1), got, want)
		}
	}
	return nil
}
