package event

import (
	"github.com/gongzhxu/binsrv/byteio"
	"github.com/pingcap/errors"
)

const queryPostHeaderLength = 13

// QueryEvent carries a statement executed outside a row-based change set.
// Framing only: the query text is kept as opaque bytes (§1 Non-goals: no
// SQL parsing beyond what framing requires).
type QueryEvent struct {
	SlaveProxyID  uint32
	ExecutionTime uint32
	ErrorCode     uint16
	StatusVars    []byte
	Schema        []byte
	Query         []byte
}

func (QueryEvent) Type() Type { return TypeQuery }

func decodeQuery(postHeader, body []byte) (QueryEvent, error) {
	var e QueryEvent
	if len(postHeader) != queryPostHeaderLength {
		return e, errors.Errorf("event: query post-header must be %d bytes, got %d",
			queryPostHeaderLength, len(postHeader))
	}
	e.SlaveProxyID = byteio.Uint32(postHeader[0:4])
	e.ExecutionTime = byteio.Uint32(postHeader[4:8])
	schemaLength := int(postHeader[8])
	e.ErrorCode = byteio.Uint16(postHeader[9:11])
	statusVarsLength := int(byteio.Uint16(postHeader[11:13]))

	rest := body
	statusVars, rest, err := byteio.CopyFixed(rest, statusVarsLength)
	if err != nil {
		return e, errors.Annotate(err, "event: query status_vars")
	}
	e.StatusVars = statusVars

	schema, rest, err := byteio.CopyFixed(rest, schemaLength)
	if err != nil {
		return e, errors.Annotate(err, "event: query schema")
	}
	e.Schema = schema

	_, rest, err = byteio.TakeFixed(rest, 1) // schema null terminator
	if err != nil {
		return e, errors.Annotate(err, "event: query schema terminator")
	}
	e.Query = append([]byte(nil), rest...)
	return e, nil
}
