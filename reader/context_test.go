package reader

import (
	"testing"

	"github.com/gongzhxu/binsrv/byteio"
	"github.com/gongzhxu/binsrv/event"
	"github.com/gongzhxu/binsrv/gtid"
	"github.com/stretchr/testify/require"
)

func header(t event.Type, eventSize, nextPos uint32, flags event.HeaderFlag) event.CommonHeader {
	return event.CommonHeader{TypeCode: t, ServerID: 1, EventSize: eventSize, NextEventPosition: nextPos, Flags: flags}
}

func encodeHeader(h event.CommonHeader) []byte { return h.Encode(nil) }

func buildArtificialRotate(position uint64) []byte {
	postHeader := byteio.WriteUint(nil, position, 8)
	name := []byte("binlog.000001")
	size := uint32(event.CommonHeaderLength + len(postHeader) + len(name))
	h := header(event.TypeRotate, size, 0, event.FlagArtificial)
	data := encodeHeader(h)
	data = append(data, postHeader...)
	data = append(data, name...)
	return data
}

func buildFDE(nextPos uint32, checksum event.ChecksumAlgorithm) []byte {
	postHeader := make([]byte, 98)
	byteio.PutUint16(postHeader[0:2], 4)
	copy(postHeader[2:52], []byte("8.0.34"))
	postHeader[56] = event.CommonHeaderLength
	lengths := event.ExpectedPostHeaderLengths()
	copy(postHeader[57:], lengths[:])

	body := []byte{byte(checksum)}
	size := uint32(event.CommonHeaderLength + len(postHeader) + len(body) + event.FooterLength)
	h := header(event.TypeFormatDescription, size, nextPos, 0)
	data := append(encodeHeader(h), postHeader...)
	data = append(data, body...)
	crc := byteio.CRC32(data)
	return byteio.AppendUint32(data, crc)
}

func withFooter(data []byte, checksum event.ChecksumAlgorithm) []byte {
	if checksum != event.ChecksumCRC32 {
		return data
	}
	crc := byteio.CRC32(data)
	return byteio.AppendUint32(data, crc)
}

func buildPreviousGTIDs(position uint32, checksum event.ChecksumAlgorithm) []byte {
	set := gtid.NewSet()
	body := set.Encode()
	size := event.CommonHeaderLength + len(body)
	if checksum == event.ChecksumCRC32 {
		size += event.FooterLength
	}
	h := header(event.TypePreviousGTIDsLog, uint32(size), position+uint32(size), 0)
	data := append(encodeHeader(h), body...)
	return withFooter(data, checksum)
}

func buildGTIDLog(position uint32, u gtid.UUID, gno gtid.GNO, checksum event.ChecksumAlgorithm) []byte {
	postHeader := make([]byte, 42)
	postHeader[0] = 1 // commit flag
	copy(postHeader[1:17], u.Bytes())
	byteio.PutUint64(postHeader[17:25], uint64(gno))
	postHeader[25] = 2
	byteio.PutUint64(postHeader[26:34], 0)
	byteio.PutUint64(postHeader[34:42], 0)

	size := event.CommonHeaderLength + len(postHeader)
	if checksum == event.ChecksumCRC32 {
		size += event.FooterLength
	}
	h := header(event.TypeGTIDLog, uint32(size), position+uint32(size), 0)
	data := append(encodeHeader(h), postHeader...)
	return withFooter(data, checksum)
}

func buildXID(position uint32, checksum event.ChecksumAlgorithm) []byte {
	body := byteio.WriteUint(nil, 1, 8)
	size := event.CommonHeaderLength + len(body)
	if checksum == event.ChecksumCRC32 {
		size += event.FooterLength
	}
	h := header(event.TypeXID, uint32(size), position+uint32(size), 0)
	data := append(encodeHeader(h), body...)
	return withFooter(data, checksum)
}

func parseAndProcess(t *testing.T, c *Context, data []byte) event.Event {
	t.Helper()
	ev, err := event.Parse(c.ParseParams(), data)
	require.NoError(t, err)
	require.NoError(t, c.Process(ev))
	return ev
}

func TestHappyPathGTIDMode(t *testing.T) {
	c := New(ModeGTID, true)

	parseAndProcess(t, c, buildArtificialRotate(4))
	require.Equal(t, StateFormatDescriptionExpected, c.State())

	fde := buildFDE(0, event.ChecksumCRC32)
	parseAndProcess(t, c, fde)
	require.Equal(t, StatePreviousGTIDsExpected, c.State())

	prevGTIDs := buildPreviousGTIDs(c.Position(), event.ChecksumCRC32)
	parseAndProcess(t, c, prevGTIDs)
	require.Equal(t, StateGTIDLogExpected, c.State())

	u, err := gtid.ParseUUID("11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	gtidLog := buildGTIDLog(c.Position(), u, 1, event.ChecksumCRC32)
	parseAndProcess(t, c, gtidLog)
	require.Equal(t, StateAnyOtherExpected, c.State())

	xid := buildXID(c.Position(), event.ChecksumCRC32)
	xidEvent := parseAndProcess(t, c, xid)
	require.Equal(t, c.Position(), xidEvent.Header.NextEventPosition)
}

func TestSecondGTIDLogFinishesPriorTransaction(t *testing.T) {
	c := New(ModeGTID, true)

	parseAndProcess(t, c, buildArtificialRotate(4))
	parseAndProcess(t, c, buildFDE(0, event.ChecksumCRC32))
	parseAndProcess(t, c, buildPreviousGTIDs(c.Position(), event.ChecksumCRC32))

	u, err := gtid.ParseUUID("11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)

	// First transaction's gtid_log carries no TransactionLength extended
	// field (buildGTIDLog only writes the 42-byte fixed post-header), so
	// expectedTransactionLength stays 0 and the byte-length match in
	// processAnyOtherExpected never fires for it.
	firstGTIDLog := buildGTIDLog(c.Position(), u, 1, event.ChecksumCRC32)
	parseAndProcess(t, c, firstGTIDLog)
	require.Equal(t, StateAnyOtherExpected, c.State())

	xid := buildXID(c.Position(), event.ChecksumCRC32)
	parseAndProcess(t, c, xid)
	require.False(t, c.GTIDSet.Contains(gtid.GTID{UUID: u, GNO: 1}), "first transaction must not be recorded before its gtid recurs")

	// A second gtid_log recurring in StateAnyOtherExpected must finish the
	// first transaction (persisting its GTID) before starting the second.
	secondGTIDLog := buildGTIDLog(c.Position(), u, 2, event.ChecksumCRC32)
	parseAndProcess(t, c, secondGTIDLog)
	require.True(t, c.GTIDSet.Contains(gtid.GTID{UUID: u, GNO: 1}), "first transaction's gtid must be persisted once the next gtid_log arrives")
	require.False(t, c.GTIDSet.Contains(gtid.GTID{UUID: u, GNO: 2}), "second transaction is still open")

	secondXID := buildXID(c.Position(), event.ChecksumCRC32)
	parseAndProcess(t, c, secondXID)
}

func TestSecondFormatDescriptionIsProtocolViolation(t *testing.T) {
	c := New(ModePosition, false)
	parseAndProcess(t, c, buildArtificialRotate(4))
	parseAndProcess(t, c, buildFDE(0, event.ChecksumOff))
	require.Equal(t, StateAnyOtherExpected, c.State())

	secondFDE := buildFDE(0, event.ChecksumOff)
	ev, err := event.Parse(c.ParseParams(), secondFDE)
	require.NoError(t, err)
	require.Error(t, c.Process(ev))
}

func TestNonPseudoEventBeforeFDEIsRejected(t *testing.T) {
	c := New(ModePosition, false)
	xid := buildXID(4, event.ChecksumOff)
	ev, err := event.Parse(c.ParseParams(), xid)
	require.NoError(t, err)
	require.Error(t, c.Process(ev))
}

func TestPositionMismatchIsFatal(t *testing.T) {
	c := New(ModePosition, false)
	parseAndProcess(t, c, buildArtificialRotate(4))
	parseAndProcess(t, c, buildFDE(0, event.ChecksumOff))

	xid := buildXID(c.Position(), event.ChecksumOff)
	ev, err := event.Parse(c.ParseParams(), xid)
	require.NoError(t, err)
	ev.Header.NextEventPosition += 1
	require.Error(t, c.Process(ev))
}
