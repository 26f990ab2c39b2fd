package storage

import (
	"strings"
	"time"

	"github.com/pingcap/errors"

	"github.com/gongzhxu/binsrv/gtid"
)

const (
	// DefaultBinlogIndexName is the reserved object holding the list of
	// binlog names, one `./<name>` per line (§4.5, §6).
	DefaultBinlogIndexName = "binlog.index"
	// MetadataName is the reserved GTID-mode checkpoint object (§6).
	MetadataName = "metadata.json"
	// magicBinlogOffset is the position a freshly created binlog file
	// holds after its 4-byte magic payload is written.
	magicBinlogOffset = 4
)

var magicBinlogPayload = []byte{0xFE, 0x62, 0x69, 0x6E}

// Engine sequences binlog lifecycle, index maintenance, resume-point
// discovery, and checkpoint policy on top of a Backend (§4.5).
type Engine struct {
	backend Backend
	mode    ReplicationMode

	binlogNames []string
	position    uint64

	gtidSet *gtid.Set

	checkpointSizeBytes    uint64
	lastCheckpointPosition uint64

	checkpointInterval    time.Duration
	lastCheckpointAt      time.Time
}

// Open initializes an engine against backend, loading and validating
// the existing index/metadata if the backend is non-empty (§4.5 steps
// 1-5).
func Open(backend Backend, mode ReplicationMode, checkpointSize uint64, checkpointInterval time.Duration) (*Engine, error) {
	e := &Engine{
		backend:            backend,
		mode:               mode,
		gtidSet:            gtid.NewSet(),
		checkpointSizeBytes: checkpointSize,
		checkpointInterval:  checkpointInterval,
	}

	objects, err := backend.ListObjects()
	if err != nil {
		return nil, errors.Annotate(err, "storage: listing backend objects")
	}
	if len(objects) == 0 {
		return e, nil
	}

	if _, ok := objects[DefaultBinlogIndexName]; !ok {
		return nil, errors.New("storage: backend is not empty but does not contain a binlog index")
	}

	if err := e.loadBinlogIndex(); err != nil {
		return nil, err
	}
	if err := e.validateBinlogIndex(objects); err != nil {
		return nil, err
	}
	if len(e.binlogNames) > 0 {
		e.position = objects[e.binlogNames[len(e.binlogNames)-1]]
	}

	if mode == ReplicationModeGTID {
		if err := e.loadMetadata(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Description forwards the backend's human-readable description.
func (e *Engine) Description() string { return e.backend.Description() }

// CurrentBinlogName returns the tail binlog, or "" if none exists yet.
func (e *Engine) CurrentBinlogName() string {
	if len(e.binlogNames) == 0 {
		return ""
	}
	return e.binlogNames[len(e.binlogNames)-1]
}

// Position returns the current offset within the open (or most
// recently open) binlog.
func (e *Engine) Position() uint64 { return e.position }

// GTIDSet returns the set loaded from metadata.json or most recently
// passed to SetGTIDSet (an empty set when neither happened). It is
// persisted only in GTID mode.
func (e *Engine) GTIDSet() *gtid.Set { return e.gtidSet }

// SetGTIDSet replaces the set that saveMetadata persists on the next
// checkpoint. The engine has no view of transaction boundaries itself
// (that lives in reader.Context), so the driver loop must push the
// reader's set in after every successfully processed event, before the
// next checkpoint can fire.
func (e *Engine) SetGTIDSet(set *gtid.Set) { e.gtidSet = set }

// CheckBinlogName validates a candidate binlog name: no path
// separator, and distinct from the reserved index/metadata names
// (§4.5's "Binlog name validation").
func CheckBinlogName(name string) bool {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return false
	}
	return name != DefaultBinlogIndexName && name != MetadataName
}

// IsBinlogOpen reports whether the backend currently has an open
// stream.
func (e *Engine) IsBinlogOpen() bool { return e.backend.IsStreamOpen() }

// OpenBinlog opens name in create mode if position is 0 (a brand-new
// file) or append mode otherwise, writing the magic payload and
// updating the index only on create (§4.5 "Opening a binlog").
func (e *Engine) OpenBinlog(name string) error {
	if !CheckBinlogName(name) {
		return errors.Errorf("storage: invalid binlog name %q", name)
	}

	mode := StreamAppend
	if e.position == 0 {
		mode = StreamCreate
	}

	size, err := e.backend.OpenStream(name, mode)
	if err != nil {
		return errors.Annotatef(err, "storage: opening binlog %s", name)
	}

	if mode == StreamCreate {
		if err := e.backend.WriteToStream(magicBinlogPayload); err != nil {
			return errors.Annotate(err, "storage: writing magic payload")
		}
		if err := e.backend.FlushStream(); err != nil {
			return errors.Annotate(err, "storage: flushing magic payload")
		}
		e.binlogNames = append(e.binlogNames, name)
		if err := e.saveBinlogIndex(); err != nil {
			return err
		}
		e.position = magicBinlogOffset
	} else {
		e.position = size
	}

	if e.checkpointSizeBytes != 0 {
		e.lastCheckpointPosition = e.position
	}
	if e.checkpointInterval != 0 {
		e.lastCheckpointAt = time.Now()
	}
	return nil
}

// WriteEvent streams event bytes and applies size/time checkpoint
// policy, re-persisting metadata.json in GTID mode on every checkpoint
// (§4.5 "Writing an event").
func (e *Engine) WriteEvent(data []byte) error {
	if err := e.backend.WriteToStream(data); err != nil {
		return errors.Annotate(err, "storage: writing event")
	}
	e.position += uint64(len(data))

	checkpoint := false
	if e.checkpointSizeBytes != 0 && e.position >= e.lastCheckpointPosition+e.checkpointSizeBytes {
		checkpoint = true
	}
	if e.checkpointInterval != 0 && time.Since(e.lastCheckpointAt) >= e.checkpointInterval {
		checkpoint = true
	}
	if !checkpoint {
		return nil
	}

	if err := e.backend.FlushStream(); err != nil {
		return errors.Annotate(err, "storage: flushing checkpoint")
	}
	e.lastCheckpointPosition = e.position
	e.lastCheckpointAt = time.Now()

	if e.mode == ReplicationModeGTID {
		if err := e.saveMetadata(); err != nil {
			return err
		}
	}
	return nil
}

// CloseBinlog closes the open stream and resets position/checkpoint
// state (§4.5 "Closing a binlog").
func (e *Engine) CloseBinlog() error {
	if err := e.backend.CloseStream(); err != nil {
		return errors.Annotate(err, "storage: closing binlog")
	}
	e.position = 0
	if e.checkpointSizeBytes != 0 {
		e.lastCheckpointPosition = 0
	}
	return nil
}

// Close releases the backend's stream best-effort, mirroring the
// source's destructor behavior (errors suppressed).
func (e *Engine) Close() {
	if e.backend.IsStreamOpen() {
		_ = e.backend.CloseStream()
	}
}

func (e *Engine) loadBinlogIndex() error {
	content, err := e.backend.GetObject(DefaultBinlogIndexName)
	if err != nil {
		return errors.Annotate(err, "storage: reading binlog index")
	}
	seen := make(map[string]struct{})
	for _, line := range strings.Split(string(content), "\n") {
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "./") {
			return errors.Errorf("storage: binlog index entry %q has an invalid path", line)
		}
		name := strings.TrimPrefix(line, "./")
		if strings.ContainsAny(name, "/\\") {
			return errors.Errorf("storage: binlog index entry %q has an invalid path", line)
		}
		if name == DefaultBinlogIndexName {
			return errors.New("storage: binlog index references itself")
		}
		if !CheckBinlogName(name) {
			return errors.Errorf("storage: binlog index references invalid binlog name %q", name)
		}
		if _, dup := seen[name]; dup {
			return errors.Errorf("storage: binlog index contains duplicate entry %q", name)
		}
		seen[name] = struct{}{}
		e.binlogNames = append(e.binlogNames, name)
	}
	return nil
}

func (e *Engine) validateBinlogIndex(objects map[string]uint64) error {
	known := make(map[string]struct{}, len(e.binlogNames))
	for _, name := range e.binlogNames {
		known[name] = struct{}{}
	}
	knownEntries := 0
	for name := range objects {
		if name == DefaultBinlogIndexName || (e.mode == ReplicationModeGTID && name == MetadataName) {
			continue
		}
		if _, ok := known[name]; !ok {
			return errors.Errorf("storage: object %q is not referenced in the binlog index", name)
		}
		knownEntries++
	}
	if knownEntries != len(e.binlogNames) {
		return errors.New("storage: binlog index references a non-existing object")
	}
	return nil
}

func (e *Engine) saveBinlogIndex() error {
	var sb strings.Builder
	for _, name := range e.binlogNames {
		sb.WriteString("./")
		sb.WriteString(name)
		sb.WriteByte('\n')
	}
	if err := e.backend.PutObject(DefaultBinlogIndexName, []byte(sb.String())); err != nil {
		return errors.Annotate(err, "storage: saving binlog index")
	}
	return nil
}

func (e *Engine) loadMetadata() error {
	content, err := e.backend.GetObject(MetadataName)
	if err != nil {
		return errors.Annotate(err, "storage: reading metadata.json")
	}
	set, err := decodeMetadata(content, e.mode)
	if err != nil {
		return err
	}
	e.gtidSet = set
	return nil
}

func (e *Engine) saveMetadata() error {
	data, err := encodeMetadata(e.mode, e.gtidSet)
	if err != nil {
		return err
	}
	if err := e.backend.PutObject(MetadataName, data); err != nil {
		return errors.Annotate(err, "storage: saving metadata.json")
	}
	return nil
}
