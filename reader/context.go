package reader

import (
	"github.com/gongzhxu/binsrv/event"
	"github.com/gongzhxu/binsrv/gtid"
	"github.com/pingcap/errors"
)

// magicBinlogOffset is the position the first artificial rotate of every
// binlog file must carry (§4.3).
const magicBinlogOffset = 4

// Context holds everything §3's "Reader context" data model names: parsing
// state, server version, verify-checksum flag, replication mode, the
// current post-header-length table and checksum algorithm (both adopted
// from the last FDE), current position, current transaction GTID, and
// transaction byte-length tracking.
type Context struct {
	state State
	mode  Mode

	ServerVersion  string
	VerifyChecksum bool

	haveFDE           bool
	postHeaderLengths [event.TypeDelimiter - 1]uint8
	checksumAlgorithm event.ChecksumAlgorithm

	position uint32

	currentTransaction         gtid.GTID
	haveCurrentTransaction     bool
	expectedTransactionLength  uint64
	currentTransactionLength   uint64

	// GTIDSet accumulates previous_gtids_log plus every completed
	// transaction's GTID, mirroring what storage persists to
	// metadata.json in GTID mode.
	GTIDSet *gtid.Set
}

// New returns a context ready to parse a fresh binlog file from its
// artificial rotate.
func New(mode Mode, verifyChecksum bool) *Context {
	return &Context{
		state:          StateRotateArtificialExpected,
		mode:           mode,
		VerifyChecksum: verifyChecksum,
		GTIDSet:        gtid.NewSet(),
	}
}

// State returns the current state, mostly for tests and diagnostics.
func (c *Context) State() State { return c.state }

// Position returns the current offset within the binlog file.
func (c *Context) Position() uint32 { return c.position }

// ParseParams returns the event.ParseParams this context's current
// knowledge implies, for use with event.Parse ahead of Process.
func (c *Context) ParseParams() event.ParseParams {
	if !c.haveFDE {
		return event.ParseParams{VerifyChecksum: c.VerifyChecksum}
	}
	return event.ParseParams{
		HaveFDE:           true,
		ChecksumAlgorithm: c.checksumAlgorithm,
		PostHeaderLengths: c.postHeaderLengths,
		VerifyChecksum:    c.VerifyChecksum,
	}
}

func isPseudo(h event.CommonHeader) bool {
	return h.NextEventPosition == 0
}

// advance applies §4.3's position discipline: for a non-pseudo event,
// context.position + event_size must equal next_event_position, and
// position becomes next_event_position. A pseudo event (next_event_position
// == 0) leaves position untouched.
func (c *Context) advance(h event.CommonHeader) error {
	if isPseudo(h) {
		return nil
	}
	want := c.position + h.EventSize
	if want != h.NextEventPosition {
		return errors.Errorf("reader: position mismatch: %d + %d = %d, want next_event_position %d",
			c.position, h.EventSize, want, h.NextEventPosition)
	}
	c.position = h.NextEventPosition
	return nil
}

func isGTIDEventType(t event.Type) bool {
	return t == event.TypeGTIDLog || t == event.TypeAnonymousGTIDLog
}

// Process feeds one decoded event through the state machine, returning a
// protocol-violation error for any event not legal in the current state.
func (c *Context) Process(ev event.Event) error {
	switch c.state {
	case StateRotateArtificialExpected:
		return c.processRotateArtificialExpected(ev)
	case StateFormatDescriptionExpected:
		return c.processFormatDescriptionExpected(ev)
	case StatePreviousGTIDsExpected:
		return c.processPreviousGTIDsExpected(ev)
	case StateGTIDLogExpected:
		return c.processGTIDLogExpected(ev)
	case StateAnyOtherExpected:
		return c.processAnyOtherExpected(ev)
	case StateRotateOrStopExpected:
		return c.processRotateOrStopExpected(ev)
	default:
		return errors.Errorf("reader: unknown state %v", c.state)
	}
}

func (c *Context) processRotateArtificialExpected(ev event.Event) error {
	h := ev.Header
	rot, ok := ev.Body.(event.RotateEvent)
	if !ok || h.TypeCode != event.TypeRotate {
		return errors.Errorf("reader: expected artificial rotate in state %s, got %s", c.state, h.TypeCode)
	}
	if !h.Artificial() {
		return errors.New("reader: expected artificial flag on bootstrap rotate")
	}
	if h.Timestamp != 0 || h.NextEventPosition != 0 {
		return errors.New("reader: bootstrap rotate must have timestamp=0 and next_event_position=0")
	}
	if c.position != 0 {
		return errors.Errorf("reader: bootstrap rotate requires context position 0, got %d", c.position)
	}
	if rot.Position != magicBinlogOffset {
		return errors.Errorf("reader: bootstrap rotate position must be %d, got %d", magicBinlogOffset, rot.Position)
	}
	c.position = uint32(rot.Position)
	c.state = StateFormatDescriptionExpected
	return nil
}

func (c *Context) processFormatDescriptionExpected(ev event.Event) error {
	h := ev.Header
	fde, ok := ev.Body.(event.FormatDescriptionEvent)
	if !ok || h.TypeCode != event.TypeFormatDescription {
		return errors.Errorf("reader: expected format_description in state %s, got %s", c.state, h.TypeCode)
	}

	if err := fde.ReconcileWith(event.ExpectedPostHeaderLengths()); err != nil {
		return errors.Annotate(err, "reader: format_description reconciliation")
	}

	c.postHeaderLengths = fde.PostHeaderLengths
	c.checksumAlgorithm = fde.ChecksumAlgorithm
	c.haveFDE = true
	c.ServerVersion = fde.ServerVersion

	if h.NextEventPosition != 0 {
		if err := c.advance(h); err != nil {
			return err
		}
	}

	if c.mode == ModeGTID {
		c.state = StatePreviousGTIDsExpected
	} else {
		c.state = StateAnyOtherExpected
	}
	return nil
}

func (c *Context) processPreviousGTIDsExpected(ev event.Event) error {
	h := ev.Header
	prev, ok := ev.Body.(event.PreviousGTIDsEvent)
	if !ok || h.TypeCode != event.TypePreviousGTIDsLog {
		return errors.Errorf("reader: expected previous_gtids_log in state %s, got %s", c.state, h.TypeCode)
	}
	if err := c.advance(h); err != nil {
		return err
	}
	c.GTIDSet = prev.Set
	c.state = StateGTIDLogExpected
	return nil
}

func (c *Context) processGTIDLogExpected(ev event.Event) error {
	h := ev.Header
	if !isGTIDEventType(h.TypeCode) {
		return errors.Errorf("reader: expected gtid_log/anonymous_gtid_log/gtid_tagged_log in state %s, got %s", c.state, h.TypeCode)
	}
	if err := c.advance(h); err != nil {
		return err
	}
	c.beginTransaction(ev)
	c.state = StateAnyOtherExpected
	return nil
}

func (c *Context) beginTransaction(ev event.Event) {
	g := ev.Body.(event.GTIDLogEvent)
	c.currentTransaction = g.GTID
	c.haveCurrentTransaction = true
	c.expectedTransactionLength = g.TransactionLength
	c.currentTransactionLength = uint64(ev.Header.EventSize)
}

func (c *Context) finishTransaction() {
	if c.haveCurrentTransaction {
		c.GTIDSet.AddGTID(c.currentTransaction)
	}
	c.haveCurrentTransaction = false
	c.currentTransactionLength = 0
	c.expectedTransactionLength = 0
}

func (c *Context) processAnyOtherExpected(ev event.Event) error {
	h := ev.Header
	if h.TypeCode == event.TypeFormatDescription {
		return errors.New("reader: second format_description within a file is a protocol violation")
	}
	if h.TypeCode == event.TypeRotate && h.Artificial() && c.position == 0 {
		return errors.New("reader: unexpected bootstrap rotate mid-file")
	}

	if err := c.advance(h); err != nil {
		return err
	}

	// Realistic multi-transaction files begin a new transaction whenever
	// a GTID event recurs here; spec.md's gtid_log_expected state only
	// formalizes the very first transaction after previous_gtids_log
	// (see DESIGN.md's Open Question decision).
	if isGTIDEventType(h.TypeCode) {
		c.finishTransaction()
		c.beginTransaction(ev)
		return nil
	}

	if c.haveCurrentTransaction {
		c.currentTransactionLength += uint64(h.EventSize)
		if c.expectedTransactionLength != 0 && c.currentTransactionLength == c.expectedTransactionLength {
			c.finishTransaction()
		}
	}

	realRotate := h.TypeCode == event.TypeRotate && !h.Artificial()
	if h.TypeCode == event.TypeStop || realRotate {
		c.state = StateRotateOrStopExpected
	}
	return nil
}

func (c *Context) processRotateOrStopExpected(ev event.Event) error {
	h := ev.Header
	rot, ok := ev.Body.(event.RotateEvent)
	if !ok || h.TypeCode != event.TypeRotate || !h.Artificial() {
		return errors.Errorf("reader: expected artificial rotate in state %s, got %s", c.state, h.TypeCode)
	}
	if rot.Position != magicBinlogOffset {
		return errors.Errorf("reader: new-file rotate position must be %d, got %d", magicBinlogOffset, rot.Position)
	}
	c.position = 0
	c.state = StateRotateArtificialExpected
	// Re-enter from the initial state, then immediately replay the
	// bootstrap transition since this rotate already satisfies it.
	return c.processRotateArtificialExpected(ev)
}
