// Package gtid implements the replication-progress data model: UUID, Tag,
// GNO, the GTID triple, and GTIDSet's interval-set algebra with canonical
// textual rendering and binary encode/decode (§3, §4.4).
package gtid

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
)

// UUID is the 16-byte source identifier half of a GTID.
type UUID [16]byte

// Nil is the zero UUID.
var Nil UUID

// ParseUUID accepts canonical hyphenated, unhyphenated, and brace-wrapped
// 32-hex forms (§8 property 7); it rejects any other length, non-hex
// digits, mismatched braces, or misplaced hyphens.
func ParseUUID(s string) (UUID, error) {
	trimmed := s
	if strings.HasPrefix(trimmed, "{") {
		if !strings.HasSuffix(trimmed, "}") {
			return Nil, errors.Errorf("gtid: unmatched brace in uuid %q", s)
		}
		trimmed = trimmed[1 : len(trimmed)-1]
	} else if strings.Contains(trimmed, "}") {
		return Nil, errors.Errorf("gtid: unmatched brace in uuid %q", s)
	}
	if len(trimmed) != 36 && len(trimmed) != 32 {
		return Nil, errors.Errorf("gtid: invalid uuid length in %q", s)
	}

	u, err := uuid.Parse(trimmed)
	if err != nil {
		return Nil, errors.Annotatef(err, "gtid: invalid uuid %q", s)
	}
	return UUID(u), nil
}

// String renders the canonical 8-4-4-4-12 hyphenated hex form.
func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// IsNil reports whether u is the zero UUID.
func (u UUID) IsNil() bool { return u == Nil }

// Bytes returns the 16 raw bytes of u.
func (u UUID) Bytes() []byte {
	return append([]byte(nil), u[:]...)
}

// UUIDFromBytes copies exactly 16 bytes into a UUID.
func UUIDFromBytes(b []byte) (UUID, error) {
	var u UUID
	if len(b) != 16 {
		return u, errors.Errorf("gtid: uuid must be 16 bytes, got %d", len(b))
	}
	copy(u[:], b)
	return u, nil
}
