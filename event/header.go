package event

import (
	"github.com/gongzhxu/binsrv/byteio"
	"github.com/pingcap/errors"
)

// CommonHeader is the 19-byte fixed prefix shared by every event.
type CommonHeader struct {
	Timestamp          uint32
	TypeCode           Type
	ServerID           uint32
	EventSize          uint32
	NextEventPosition  uint32
	Flags              HeaderFlag
}

// Artificial reports whether the artificial flag is set.
func (h CommonHeader) Artificial() bool { return h.Flags.Has(FlagArtificial) }

// DecodeCommonHeader parses the first 19 bytes of data.
func DecodeCommonHeader(data []byte) (CommonHeader, []byte, error) {
	var h CommonHeader
	head, rest, err := byteio.TakeFixed(data, CommonHeaderLength)
	if err != nil {
		return h, data, errors.Annotate(err, "event: short common header")
	}

	h.Timestamp = byteio.Uint32(head[0:4])
	h.TypeCode = Type(byteio.Uint8(head[4:5]))
	h.ServerID = byteio.Uint32(head[5:9])
	h.EventSize = byteio.Uint32(head[9:13])
	h.NextEventPosition = byteio.Uint32(head[13:17])
	h.Flags = HeaderFlag(byteio.Uint16(head[17:19]))

	if !h.TypeCode.Valid() {
		return h, data, errors.Errorf("event: type code %d has no label", uint8(h.TypeCode))
	}
	return h, rest, nil
}

// Encode appends the 19-byte wire form of h to dst.
func (h CommonHeader) Encode(dst []byte) []byte {
	dst = byteio.AppendUint32(dst, h.Timestamp)
	dst = append(dst, byte(h.TypeCode))
	dst = byteio.AppendUint32(dst, h.ServerID)
	dst = byteio.AppendUint32(dst, h.EventSize)
	dst = byteio.AppendUint32(dst, h.NextEventPosition)
	dst = byteio.AppendUint16(dst, uint16(h.Flags))
	return dst
}

// Footer is the optional trailing CRC32.
type Footer struct {
	Present bool
	CRC     uint32
}

const FooterLength = 4

// DecodeFooter reads a 4-byte CRC32 footer when present is true.
func DecodeFooter(data []byte, present bool) (Footer, []byte, error) {
	if !present {
		return Footer{}, data, nil
	}
	head, rest, err := byteio.TakeFixed(data, FooterLength)
	if err != nil {
		return Footer{}, data, errors.Annotate(err, "event: short footer")
	}
	return Footer{Present: true, CRC: byteio.Uint32(head)}, rest, nil
}
