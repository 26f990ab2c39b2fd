package event

import (
	"github.com/gongzhxu/binsrv/byteio"
	"github.com/pingcap/errors"
)

// ParseParams carries the reader context state the top-level parser needs
// (§4.2 steps 2-3): whether an FDE has been seen yet in this file, and if
// so, its negotiated checksum algorithm and post-header-length table.
type ParseParams struct {
	HaveFDE           bool
	ChecksumAlgorithm ChecksumAlgorithm
	PostHeaderLengths [TypeDelimiter - 1]uint8
	VerifyChecksum    bool
}

// ExpectedPostHeaderLengths returns the hard-coded table used before any
// FDE has been seen (§4.2 step 3).
func ExpectedPostHeaderLengths() [TypeDelimiter - 1]uint8 {
	return expectedPostHeaderLengths
}

// Parse decodes data, which must contain exactly one event's bytes, per
// §4.2's seven-step algorithm. It does not itself enforce reader-context
// ordering (§4.3); callers feed the result to the reader state machine's
// transition function.
func Parse(params ParseParams, data []byte) (Event, error) {
	var ev Event

	header, afterHeader, err := DecodeCommonHeader(data)
	if err != nil {
		return ev, err
	}
	ev.Header = header

	if header.EventSize != uint32(len(data)) {
		return ev, errors.Errorf("event: event_size %d does not match buffer length %d", header.EventSize, len(data))
	}

	footerSize := 0
	switch {
	case header.TypeCode == TypeFormatDescription:
		footerSize = FooterLength
	case !params.HaveFDE:
		footerSize = 0
	case params.ChecksumAlgorithm == ChecksumCRC32:
		footerSize = FooterLength
	}

	var postHeaderSize int
	switch {
	case header.TypeCode == TypeFormatDescription:
		postHeaderSize = formatDescriptionPostHeaderLength
	case params.HaveFDE:
		v := params.PostHeaderLengths[header.TypeCode-1]
		if v == unspecifiedPostHeaderLength {
			return ev, errors.Errorf("event: type %s not known to current format_description", header.TypeCode)
		}
		postHeaderSize = int(v)
	default:
		v := expectedPostHeaderLengths[header.TypeCode-1]
		if v == unspecifiedPostHeaderLength {
			return ev, errors.Errorf("event: type %s has no expected post-header length before format_description", header.TypeCode)
		}
		postHeaderSize = int(v)
	}

	minSize := CommonHeaderLength + postHeaderSize + footerSize
	if int(header.EventSize) < minSize {
		return ev, errors.Errorf("event: event_size %d below minimum %d for type %s",
			header.EventSize, minSize, header.TypeCode)
	}

	bodyEnd := len(afterHeader) - footerSize
	if bodyEnd < postHeaderSize {
		return ev, errors.Errorf("event: negative body length for type %s", header.TypeCode)
	}
	postHeader := afterHeader[:postHeaderSize]
	body := afterHeader[postHeaderSize:bodyEnd]
	footerBytes := afterHeader[bodyEnd:]

	footer, _, err := DecodeFooter(footerBytes, footerSize == FooterLength)
	if err != nil {
		return ev, err
	}
	ev.Footer = footer

	body2 := body
	switch header.TypeCode {
	case TypeFormatDescription:
		ev.Body, err = decodeFormatDescription(postHeader, body2)
	case TypeRotate:
		ev.Body, err = decodeRotate(postHeader, body2)
	case TypeStop:
		ev.Body, err = decodeStop(postHeader, body2)
	case TypeXID:
		ev.Body, err = decodeXID(postHeader, body2)
	case TypeQuery:
		ev.Body, err = decodeQuery(postHeader, body2)
	case TypePreviousGTIDsLog:
		ev.Body, err = decodePreviousGTIDs(postHeader, body2)
	case TypeGTIDLog, TypeAnonymousGTIDLog:
		if postHeaderSize == gtidLogPostHeaderLength {
			ev.Body, err = decodeGTIDLog(header.TypeCode, postHeader, body2)
		} else {
			// Tagged form: no fixed post-header, the whole payload is
			// self-describing (see gtidtagged.go).
			full := append(append([]byte(nil), postHeader...), body2...)
			ev.Body, err = decodeGTIDTaggedLog(full)
		}
	default:
		ev.Body = Opaque{TypeCode: header.TypeCode, Raw: append([]byte(nil), body2...)}
	}
	if err != nil {
		return ev, errors.Annotatef(err, "event: decoding type %s", header.TypeCode)
	}

	if footer.Present && params.VerifyChecksum {
		want := footer.CRC
		got := byteio.CRC32(data[:len(data)-FooterLength])
		if got != want {
			return ev, errors.Errorf("event: checksum mismatch for type %s: got %#x want %#x", header.TypeCode, got, want)
		}
	}

	return ev, nil
}
