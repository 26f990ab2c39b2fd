package event

import (
	"testing"

	"github.com/gongzhxu/binsrv/byteio"
	"github.com/stretchr/testify/require"
)

func buildHeader(typeCode Type, eventSize uint32, nextPos uint32, flags HeaderFlag) []byte {
	h := CommonHeader{
		Timestamp:         0,
		TypeCode:          typeCode,
		ServerID:          1,
		EventSize:         eventSize,
		NextEventPosition: nextPos,
		Flags:             flags,
	}
	return h.Encode(nil)
}

func buildFDE(checksum ChecksumAlgorithm) []byte {
	postHeader := make([]byte, formatDescriptionPostHeaderLength)
	byteio.PutUint16(postHeader[0:2], expectedBinlogVersion)
	copy(postHeader[2:52], []byte("8.0.34"))
	postHeader[56] = CommonHeaderLength
	lengths := postHeader[57:]
	for i := range expectedPostHeaderLengths {
		lengths[i] = expectedPostHeaderLengths[i]
	}

	body := []byte{byte(checksum)}
	eventSize := uint32(CommonHeaderLength + len(postHeader) + len(body) + FooterLength)
	hdr := buildHeader(TypeFormatDescription, eventSize, 0, 0)

	full := append(hdr, postHeader...)
	full = append(full, body...)
	crc := byteio.CRC32(full)
	full = byteio.AppendUint32(full, crc)
	return full
}

func TestParseFormatDescription(t *testing.T) {
	data := buildFDE(ChecksumCRC32)
	ev, err := Parse(ParseParams{HaveFDE: false, VerifyChecksum: true}, data)
	require.NoError(t, err)
	fde, ok := ev.Body.(FormatDescriptionEvent)
	require.True(t, ok)
	require.Equal(t, uint16(expectedBinlogVersion), fde.BinlogVersion)
	require.Equal(t, ChecksumCRC32, fde.ChecksumAlgorithm)
	require.Equal(t, "8.0.34", fde.ServerVersion)
}

func TestParseArtificialRotate(t *testing.T) {
	name := []byte("binlog.000001")
	postHeader := byteio.WriteUint(nil, magicBinlogOffset, 8)
	eventSize := uint32(CommonHeaderLength + len(postHeader) + len(name))
	hdr := buildHeader(TypeRotate, eventSize, 0, FlagArtificial)
	data := append(hdr, postHeader...)
	data = append(data, name...)

	ev, err := Parse(ParseParams{HaveFDE: false}, data)
	require.NoError(t, err)
	require.True(t, ev.Header.Artificial())
	rot, ok := ev.Body.(RotateEvent)
	require.True(t, ok)
	require.Equal(t, uint64(magicBinlogOffset), rot.Position)
	require.Equal(t, "binlog.000001", rot.NextName)
}

func TestParseRejectsUnknownTypeCode(t *testing.T) {
	hdr := buildHeader(TypeDelimiter, CommonHeaderLength, 0, 0)
	_, err := Parse(ParseParams{}, hdr)
	require.Error(t, err)
}

func TestParseRejectsShortBuffer(t *testing.T) {
	_, err := Parse(ParseParams{}, []byte{1, 2, 3})
	require.Error(t, err)
}

func TestParseXIDUsesFDEPostHeaderTable(t *testing.T) {
	params := ParseParams{
		HaveFDE:           true,
		ChecksumAlgorithm: ChecksumCRC32,
		PostHeaderLengths: expectedPostHeaderLengths,
	}
	body := byteio.WriteUint(nil, 0xdeadbeef, 8)
	eventSize := uint32(CommonHeaderLength + len(body) + FooterLength)
	hdr := buildHeader(TypeXID, eventSize, eventSize, 0)
	data := append(hdr, body...)
	crc := byteio.CRC32(data)
	data = byteio.AppendUint32(data, crc)

	params.VerifyChecksum = true
	ev, err := Parse(params, data)
	require.NoError(t, err)
	xid, ok := ev.Body.(XIDEvent)
	require.True(t, ok)
	require.Equal(t, uint64(0xdeadbeef), xid.XID)
}

func TestParseChecksumMismatchFails(t *testing.T) {
	data := buildFDE(ChecksumCRC32)
	data[len(data)-1] ^= 0xff
	_, err := Parse(ParseParams{VerifyChecksum: true}, data)
	require.Error(t, err)
}
