package event

import (
	"github.com/gongzhxu/binsrv/gtid"
	"github.com/pingcap/errors"
)

// PreviousGTIDsEvent carries the full GTID set the source had already
// applied before this binlog file began, seeding the storage engine's GTID
// set when resuming (§4.3 previous_gtids_expected).
type PreviousGTIDsEvent struct {
	Set *gtid.Set
}

func (PreviousGTIDsEvent) Type() Type { return TypePreviousGTIDsLog }

func decodePreviousGTIDs(postHeader, body []byte) (PreviousGTIDsEvent, error) {
	var e PreviousGTIDsEvent
	if len(postHeader) != 0 {
		return e, errors.Errorf("event: previous_gtids_log post-header must be empty, got %d bytes", len(postHeader))
	}
	set, rest, err := gtid.DecodeSet(body)
	if err != nil {
		return e, errors.Annotate(err, "event: previous_gtids_log body")
	}
	if len(rest) != 0 {
		return e, errors.Errorf("event: previous_gtids_log body has %d trailing bytes", len(rest))
	}
	e.Set = set
	return e, nil
}
