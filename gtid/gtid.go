package gtid

import (
	"fmt"

	"github.com/pingcap/errors"
)

// GNO is a transaction sequence number, unique within (uuid, tag). 0 is the
// sentinel "empty/no GNO"; valid GNOs are in [1, MaxGNO].
type GNO = int64

// MaxGNO is the largest valid GNO (2^63 - 1).
const MaxGNO GNO = 1<<63 - 1

// ValidGNO reports whether g is in the legal range [1, MaxGNO].
func ValidGNO(g GNO) bool { return g >= 1 && g <= MaxGNO }

// GTID is the triple (uuid, tag, gno) identifying one transaction (§3).
type GTID struct {
	UUID UUID
	Tag  Tag
	GNO  GNO
}

// New constructs a GTID, validating gno is in range.
func New(u UUID, tag Tag, gno GNO) (GTID, error) {
	if !ValidGNO(gno) {
		return GTID{}, errors.Errorf("gtid: gno %d out of range [1, %d]", gno, MaxGNO)
	}
	return GTID{UUID: u, Tag: tag, GNO: gno}, nil
}

// String renders uuid[:tag]:gno (§8 scenario b).
func (g GTID) String() string {
	if g.Tag.Empty() {
		return fmt.Sprintf("%s:%d", g.UUID.String(), g.GNO)
	}
	return fmt.Sprintf("%s:%s:%d", g.UUID.String(), string(g.Tag), g.GNO)
}

// Equal compares all three fields.
func (g GTID) Equal(other GTID) bool {
	return g.UUID == other.UUID && g.Tag == other.Tag && g.GNO == other.GNO
}
