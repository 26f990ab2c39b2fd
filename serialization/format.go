// Package serialization implements the self-describing tagged-field
// message framing used by the GTID-tagged-log event body (§3): a varlen
// version and payload size, a "last non-ignorable field id" watermark, and
// a run of (field_id, data) pairs in strictly increasing id order. Field
// ids at or below the watermark must be contiguous from 0; ids above it
// form a sparse "ignorable" tail. Every id, tail included, must appear in
// the Format the message is decoded against; an unknown id is an error.
package serialization

import "github.com/pingcap/errors"

// FieldKind selects how a field's data bytes are interpreted.
type FieldKind int

const (
	// FieldUintVar is an unsigned value stored as a varlen int.
	FieldUintVar FieldKind = iota
	// FieldIntVar is a signed value stored as a zig-zag varlen int.
	FieldIntVar
	// FieldBytes is a varlen-length-prefixed raw byte string.
	FieldBytes
	// FieldFixedBytes is a fixed-width raw byte string (e.g. a uuid).
	FieldFixedBytes
)

// FieldDescriptor names and types one field id in a Format.
type FieldDescriptor struct {
	ID    uint8
	Name  string
	Kind  FieldKind
	Width int // byte count, only meaningful for FieldFixedBytes
}

// Format is the ordered field dictionary a Message is framed against.
type Format struct {
	Fields []FieldDescriptor
}

// ByID returns the descriptor for id, if any.
func (f Format) ByID(id uint8) (FieldDescriptor, bool) {
	for _, d := range f.Fields {
		if d.ID == id {
			return d, true
		}
	}
	return FieldDescriptor{}, false
}

// ByName returns the descriptor for name, if any.
func (f Format) ByName(name string) (FieldDescriptor, bool) {
	for _, d := range f.Fields {
		if d.Name == name {
			return d, true
		}
	}
	return FieldDescriptor{}, false
}

var errNoSuchField = errors.New("serialization: no such field")
