package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pingcap/errors"
)

// FilesystemBackend is the `file://<path>` backend: objects are files
// directly under root; root must already exist as a directory (§4.6).
type FilesystemBackend struct {
	baseBackend

	root string
	file *os.File
}

// NewFilesystemBackend opens root as the backend's storage directory.
func NewFilesystemBackend(root string) (*FilesystemBackend, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Annotatef(err, "storage: filesystem root %s", root)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("storage: filesystem root %s is not a directory", root)
	}
	return &FilesystemBackend{root: root}, nil
}

func (b *FilesystemBackend) objectPath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return "", errors.Errorf("storage: invalid object name %q", name)
	}
	return filepath.Join(b.root, name), nil
}

func (b *FilesystemBackend) ListObjects() (map[string]uint64, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, errors.Annotate(err, "storage: listing filesystem root")
	}
	out := make(map[string]uint64, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, errors.Annotatef(err, "storage: stat %s", e.Name())
		}
		out[e.Name()] = uint64(info.Size())
	}
	return out, nil
}

func (b *FilesystemBackend) GetObject(name string) ([]byte, error) {
	path, err := b.objectPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "storage: reading object %s", name)
	}
	return data, nil
}

// PutObject writes content atomically: write to a temp file in root
// then rename over the target, avoiding torn writes on crash (the
// checkpoint-durability open question, recorded in DESIGN.md).
func (b *FilesystemBackend) PutObject(name string, content []byte) error {
	path, err := b.objectPath(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.root, ".tmp-"+name+"-*")
	if err != nil {
		return errors.Annotatef(err, "storage: creating temp file for %s", name)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Annotatef(err, "storage: writing temp file for %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Annotatef(err, "storage: closing temp file for %s", name)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Annotatef(err, "storage: renaming temp file for %s", name)
	}
	return nil
}

func (b *FilesystemBackend) OpenStream(name string, mode StreamMode) (uint64, error) {
	if err := b.checkOpen(); err != nil {
		return 0, err
	}
	path, err := b.objectPath(name)
	if err != nil {
		return 0, err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if mode == StreamCreate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return 0, errors.Annotatef(err, "storage: opening stream %s", name)
	}
	size := uint64(0)
	if mode == StreamAppend {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return 0, errors.Annotatef(err, "storage: stat stream %s", name)
		}
		size = uint64(info.Size())
	}
	b.file = f
	b.markOpen()
	return size, nil
}

func (b *FilesystemBackend) WriteToStream(data []byte) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if _, err := b.file.Write(data); err != nil {
		return errors.Annotate(err, "storage: writing to stream")
	}
	return nil
}

func (b *FilesystemBackend) FlushStream() error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if err := b.file.Sync(); err != nil {
		return errors.Annotate(err, "storage: flushing stream")
	}
	return nil
}

func (b *FilesystemBackend) CloseStream() error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	err := b.file.Close()
	b.file = nil
	b.markClosed()
	if err != nil {
		return errors.Annotate(err, "storage: closing stream")
	}
	return nil
}

func (b *FilesystemBackend) Description() string {
	return "filesystem storage at " + b.root
}
