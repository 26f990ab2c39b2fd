package serialization

import (
	"github.com/gongzhxu/binsrv/byteio"
	"github.com/pingcap/errors"
)

// serializationVersion is the only version this repository understands.
const serializationVersion = 1

// Field is one decoded (or to-be-encoded) value within a Message.
type Field struct {
	ID    uint8
	Kind  FieldKind
	Uint  uint64
	Int   int64
	Bytes []byte
}

// Message is a decoded tagged-field payload (§3 gtid_tagged_log body).
type Message struct {
	Format Format
	Fields []Field
}

// GetFieldByName looks up a decoded field by its descriptor name.
func (m *Message) GetFieldByName(name string) (Field, bool) {
	d, ok := m.Format.ByName(name)
	if !ok {
		return Field{}, false
	}
	for _, f := range m.Fields {
		if f.ID == d.ID {
			return f, true
		}
	}
	return Field{}, false
}

// Decode parses data against format, enforcing the contiguous-non-
// ignorable-prefix rule from §3.
func Decode(format Format, data []byte) (*Message, []byte, error) {
	version, rest, err := byteio.ReadVarlenUint(data)
	if err != nil {
		return nil, data, errors.Annotate(err, "serialization: version")
	}
	if version != serializationVersion {
		return nil, data, errors.Errorf("serialization: unsupported version %d", version)
	}

	payloadSize, rest, err := byteio.ReadVarlenUint(rest)
	if err != nil {
		return nil, data, errors.Annotate(err, "serialization: payload_size")
	}
	if uint64(len(rest)) < payloadSize {
		return nil, data, errors.Errorf("serialization: payload_size %d exceeds remaining %d bytes", payloadSize, len(rest))
	}
	payload := rest[:payloadSize]
	trailing := rest[payloadSize:]

	lastNonIgnorable, payload, err := byteio.ReadVarlenUint(payload)
	if err != nil {
		return nil, data, errors.Annotate(err, "serialization: last_non_ignorable_field_id")
	}

	msg := &Message{Format: format}
	var prevID int64 = -1
	nextContiguous := uint8(0)
	for len(payload) > 0 {
		idValue, next, err := byteio.ReadVarlenUint(payload)
		if err != nil {
			return nil, data, errors.Annotate(err, "serialization: field_id")
		}
		id := uint8(idValue)
		if int64(id) <= prevID {
			return nil, data, errors.Errorf("serialization: field id %d not strictly increasing after %d", id, prevID)
		}
		if uint64(id) <= lastNonIgnorable {
			if id != nextContiguous {
				return nil, data, errors.Errorf("serialization: non-ignorable field id %d skips expected %d", id, nextContiguous)
			}
			nextContiguous++
		}
		prevID = int64(id)
		payload = next

		desc, ok := format.ByID(id)
		if !ok {
			return nil, data, errors.Errorf("serialization: field id %d not in format", id)
		}

		field := Field{ID: id, Kind: desc.Kind}
		switch desc.Kind {
		case FieldUintVar:
			field.Uint, payload, err = byteio.ReadVarlenUint(payload)
		case FieldIntVar:
			field.Int, payload, err = byteio.ReadVarlenInt(payload)
		case FieldBytes:
			var n uint64
			n, payload, err = byteio.ReadVarlenUint(payload)
			if err == nil {
				field.Bytes, payload, err = byteio.CopyFixed(payload, int(n))
			}
		case FieldFixedBytes:
			field.Bytes, payload, err = byteio.CopyFixed(payload, desc.Width)
		}
		if err != nil {
			return nil, data, errors.Annotatef(err, "serialization: field %q data", desc.Name)
		}
		msg.Fields = append(msg.Fields, field)
	}

	if uint64(nextContiguous) != lastNonIgnorable+1 {
		return nil, data, errors.Errorf("serialization: non-ignorable field prefix incomplete: reached %d, watermark %d",
			nextContiguous, lastNonIgnorable)
	}

	return msg, trailing, nil
}

// Encode renders fields (already in strictly increasing id order) against
// format, computing the last-non-ignorable-id watermark as the highest
// contiguous-from-0 id present.
func Encode(format Format, fields []Field) ([]byte, error) {
	var payload []byte
	lastNonIgnorable := uint64(0)
	nextContiguous := uint8(0)
	prevID := int64(-1)

	for _, f := range fields {
		if int64(f.ID) <= prevID {
			return nil, errors.Errorf("serialization: field id %d not strictly increasing after %d", f.ID, prevID)
		}
		prevID = int64(f.ID)
		if f.ID == nextContiguous {
			lastNonIgnorable = uint64(f.ID)
			nextContiguous++
		}

		payload = byteio.WriteVarlenUint(payload, uint64(f.ID))
		desc, ok := format.ByID(f.ID)
		if !ok {
			return nil, errors.Errorf("serialization: field id %d not in format", f.ID)
		}
		switch desc.Kind {
		case FieldUintVar:
			payload = byteio.WriteVarlenUint(payload, f.Uint)
		case FieldIntVar:
			payload = byteio.WriteVarlenInt(payload, f.Int)
		case FieldBytes:
			payload = byteio.WriteVarlenUint(payload, uint64(len(f.Bytes)))
			payload = append(payload, f.Bytes...)
		case FieldFixedBytes:
			if len(f.Bytes) != desc.Width {
				return nil, errors.Errorf("serialization: field %q must be %d bytes, got %d", desc.Name, desc.Width, len(f.Bytes))
			}
			payload = append(payload, f.Bytes...)
		}
	}

	full := byteio.WriteVarlenUint(nil, uint64(lastNonIgnorable))
	full = append(full, payload...)

	dst := byteio.WriteVarlenUint(nil, serializationVersion)
	dst = byteio.WriteVarlenUint(dst, uint64(len(full)))
	dst = append(dst, full...)
	return dst, nil
}
