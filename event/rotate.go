package event

import (
	"github.com/gongzhxu/binsrv/byteio"
	"github.com/pingcap/errors"
)

const rotatePostHeaderLength = 8

// maxRotateNameLength bounds the binlog file name carried in a rotate
// event's body; real rotates never approach this.
const maxRotateNameLength = 64

// RotateEvent signals the binlog is continuing in a new file. The post-
// header position is a real rotate's next-file offset; an artificial
// rotate carries the new file's own initial offset (magicBinlogOffset).
type RotateEvent struct {
	Position uint64
	NextName string
}

func (RotateEvent) Type() Type { return TypeRotate }

func decodeRotate(postHeader, body []byte) (RotateEvent, error) {
	var e RotateEvent
	if len(postHeader) != rotatePostHeaderLength {
		return e, errors.Errorf("event: rotate post-header must be %d bytes, got %d",
			rotatePostHeaderLength, len(postHeader))
	}
	e.Position = byteio.Uint64(postHeader)
	if len(body) > maxRotateNameLength {
		return e, errors.Errorf("event: rotate name length %d exceeds %d", len(body), maxRotateNameLength)
	}
	e.NextName = string(body)
	return e, nil
}
