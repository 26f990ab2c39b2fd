package event

import (
	"github.com/gongzhxu/binsrv/byteio"
	"github.com/gongzhxu/binsrv/gtid"
	"github.com/pingcap/errors"
)

const (
	gtidLogPostHeaderLength = 42
	expectedLogicalTSCode   = 2

	// Presence-flag bits in the gtid_log body's leading byte; mirrors
	// the GTID_FLAG_* constants of MySQL's own Gtid_log_event body.
	gtidBodyHasCommitTimestamps  = 0x01
	gtidBodyHasOriginalTimestamp = 0x02
)

// GTIDLogEvent carries one transaction's GTID and logical-clock metadata.
// TypeCode distinguishes gtid_log (normal) from anonymous_gtid_log (same
// layout, no meaningful uuid/gno); gtid_tagged_log reuses the wire code of
// gtid_log with a self-describing body decoded via the serialization
// package instead (§3's "(?)" annotation — see gtidtagged.go and the
// dispatch in decode.go).
type GTIDLogEvent struct {
	TypeCode                Type
	Commit                  bool
	GTID                    gtid.GTID
	LastCommitted           int64
	SequenceNumber          int64
	ImmediateCommitTime     uint64
	OriginalCommitTime      uint64
	TransactionLength       uint64
	ImmediateServerVersion  uint32
	OriginalServerVersion   uint32
}

func (e GTIDLogEvent) Type() Type { return e.TypeCode }

func decodeGTIDLog(typeCode Type, postHeader, body []byte) (GTIDLogEvent, error) {
	var e GTIDLogEvent
	e.TypeCode = typeCode
	if len(postHeader) != gtidLogPostHeaderLength {
		return e, errors.Errorf("event: gtid_log post-header must be %d bytes, got %d",
			gtidLogPostHeaderLength, len(postHeader))
	}

	flags := postHeader[0]
	e.Commit = flags&0x1 != 0

	uuidBytes := postHeader[1:17]
	u, err := gtid.UUIDFromBytes(uuidBytes)
	if err != nil {
		return e, errors.Annotate(err, "event: gtid_log uuid")
	}
	gno := int64(byteio.Uint64(postHeader[17:25]))

	tsCode := postHeader[25]
	if tsCode != expectedLogicalTSCode {
		return e, errors.Errorf("event: gtid_log logical_ts_code must be %d, got %d",
			expectedLogicalTSCode, tsCode)
	}
	e.LastCommitted = int64(byteio.Uint64(postHeader[26:34]))
	e.SequenceNumber = int64(byteio.Uint64(postHeader[34:42]))

	g, err := gtid.New(u, "", gno)
	if err != nil && typeCode != TypeAnonymousGTIDLog {
		return e, errors.Annotate(err, "event: gtid_log gno")
	}
	e.GTID = g

	if err := decodeGTIDLogBody(&e, body); err != nil {
		return e, err
	}
	return e, nil
}

// decodeGTIDLogBody opportunistically decodes the optional trailing
// fields MySQL appends after the fixed post-header (commit timestamps,
// transaction length, server versions); a truncated or absent body simply
// leaves these fields at their zero values, since the reader state
// machine's position/transaction-length bookkeeping does not require them.
func decodeGTIDLogBody(e *GTIDLogEvent, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	flags := body[0]
	rest := body[1:]

	if flags&gtidBodyHasCommitTimestamps == 0 {
		return nil
	}

	ts, next, err := byteio.ReadPackedInt(rest)
	if err != nil {
		return nil // trailing fields are best-effort; truncation is not an error
	}
	e.ImmediateCommitTime = ts
	rest = next

	if flags&gtidBodyHasOriginalTimestamp != 0 {
		ts, rest, err = byteio.ReadPackedInt(rest)
		if err != nil {
			return nil
		}
		e.OriginalCommitTime = ts
	} else {
		e.OriginalCommitTime = e.ImmediateCommitTime
	}

	if len(rest) == 0 {
		return nil
	}
	txLen, rest2, err := byteio.ReadVarlenUint(rest)
	if err != nil {
		return nil // trailing fields are best-effort; absence is not an error
	}
	e.TransactionLength = txLen
	rest = rest2

	if len(rest) == 0 {
		return nil
	}
	v, rest2, err := byteio.ReadVarlenUint(rest)
	if err != nil {
		return nil
	}
	e.ImmediateServerVersion = uint32(v)
	e.OriginalServerVersion = uint32(v)
	_ = rest2
	return nil
}
