// Package reader implements the binlog reader context: the state machine
// that enforces legal event ordering, tracks the position and
// format-description-derived parsing parameters every subsequent event
// needs, and validates checksums (§4.3).
package reader

// State is one of the six reader context states from §4.3.
type State int

const (
	// StateRotateArtificialExpected is the initial state: only the
	// artificial rotate that bootstraps a binlog file is accepted.
	StateRotateArtificialExpected State = iota
	StateFormatDescriptionExpected
	StatePreviousGTIDsExpected
	StateGTIDLogExpected
	StateAnyOtherExpected
	StateRotateOrStopExpected
)

func (s State) String() string {
	switch s {
	case StateRotateArtificialExpected:
		return "rotate_artificial_expected"
	case StateFormatDescriptionExpected:
		return "format_description_expected"
	case StatePreviousGTIDsExpected:
		return "previous_gtids_expected"
	case StateGTIDLogExpected:
		return "gtid_log_expected"
	case StateAnyOtherExpected:
		return "any_other_expected"
	case StateRotateOrStopExpected:
		return "rotate_or_stop_expected"
	default:
		return "invalid_state"
	}
}

// Mode selects whether the stream carries GTID events (previous_gtids_log,
// gtid_log/anonymous_gtid_log/gtid_tagged_log) or plain position-based
// replication.
type Mode int

const (
	ModePosition Mode = iota
	ModeGTID
)
