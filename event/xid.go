package event

import (
	"github.com/gongzhxu/binsrv/byteio"
	"github.com/pingcap/errors"
)

// XIDEvent marks the end of a transaction committed via two-phase commit.
type XIDEvent struct {
	XID uint64
}

func (XIDEvent) Type() Type { return TypeXID }

func decodeXID(postHeader, body []byte) (XIDEvent, error) {
	var e XIDEvent
	if len(postHeader) != 0 {
		return e, errors.Errorf("event: xid post-header must be empty, got %d bytes", len(postHeader))
	}
	if len(body) != 8 {
		return e, errors.Errorf("event: xid body must be 8 bytes, got %d", len(body))
	}
	e.XID = byteio.Uint64(body)
	return e, nil
}
