// Package storage implements binlog persistence: the backend contract
// (§4.6), the engine that sequences binlog lifecycle, index, and
// checkpointing on top of it (§4.5), and the filesystem/object-store
// backend implementations.
package storage

import (
	"github.com/pingcap/errors"
)

// StreamMode selects how OpenStream opens its underlying resource.
type StreamMode int

const (
	// StreamCreate truncates (or creates) the object before writing.
	StreamCreate StreamMode = iota
	// StreamAppend resumes writing at the object's current end.
	StreamAppend
)

// Backend is the capability set the engine requires of any storage
// backend (§4.6): whole-object list/get/put, plus a single open stream
// at a time for incremental writes.
type Backend interface {
	ListObjects() (map[string]uint64, error)
	GetObject(name string) ([]byte, error)
	PutObject(name string, content []byte) error

	IsStreamOpen() bool
	OpenStream(name string, mode StreamMode) (uint64, error)
	WriteToStream(data []byte) error
	FlushStream() error
	CloseStream() error

	Description() string
}

// baseBackend enforces the one-open-stream invariant and open-before-
// write/close ordering shared by every backend, mirroring
// basic_storage_backend's template-method split between the public
// entry points and the do_* virtuals.
type baseBackend struct {
	streamOpen bool
}

func (b *baseBackend) IsStreamOpen() bool { return b.streamOpen }

func (b *baseBackend) checkOpen() error {
	if b.streamOpen {
		return errors.New("storage: a stream is already open")
	}
	return nil
}

func (b *baseBackend) checkWritable() error {
	if !b.streamOpen {
		return errors.New("storage: no stream is open")
	}
	return nil
}

func (b *baseBackend) markOpen()  { b.streamOpen = true }
func (b *baseBackend) markClosed() { b.streamOpen = false }
