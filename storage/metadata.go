package storage

import (
	"encoding/hex"

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"

	"github.com/gongzhxu/binsrv/gtid"
)

// metadataVersion is the only supported `metadata.json` version (§6);
// a mismatch fails initialization.
const metadataVersion = 1

// ReplicationMode mirrors reader.Mode as a JSON-serializable enum,
// kept independent of the reader package so storage does not depend
// on it.
type ReplicationMode string

const (
	ReplicationModePosition ReplicationMode = "position"
	ReplicationModeGTID     ReplicationMode = "gtid"
)

// metadataFile is `metadata.json`'s on-disk shape: version, mode, and
// the GTID set's canonical binary encoding as hex text.
type metadataFile struct {
	Version uint32          `json:"version"`
	Mode    ReplicationMode `json:"mode"`
	GTIDSet string          `json:"gtid_set"`
}

func encodeMetadata(mode ReplicationMode, set *gtid.Set) ([]byte, error) {
	m := metadataFile{
		Version: metadataVersion,
		Mode:    mode,
		GTIDSet: hex.EncodeToString(set.Encode()),
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Annotate(err, "storage: marshaling metadata.json")
	}
	return data, nil
}

func decodeMetadata(data []byte, wantMode ReplicationMode) (*gtid.Set, error) {
	var m metadataFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Annotate(err, "storage: parsing metadata.json")
	}
	if m.Version != metadataVersion {
		return nil, errors.Errorf("storage: metadata.json version %d unsupported, want %d", m.Version, metadataVersion)
	}
	if m.Mode != wantMode {
		return nil, errors.Errorf("storage: metadata.json mode %q does not match replication mode %q", m.Mode, wantMode)
	}
	raw, err := hex.DecodeString(m.GTIDSet)
	if err != nil {
		return nil, errors.Annotate(err, "storage: decoding metadata.json gtid_set hex")
	}
	set, rest, err := gtid.DecodeSet(raw)
	if err != nil {
		return nil, errors.Annotate(err, "storage: decoding metadata.json gtid_set")
	}
	if len(rest) != 0 {
		return nil, errors.New("storage: metadata.json gtid_set has trailing bytes")
	}
	return set, nil
}
