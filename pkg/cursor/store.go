package cursor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/saturnines/repsly-export/pkg/errors"
)

// Store loads the whole cursor map before a run and overwrites it after.
type Store interface {
	Load(ctx context.Context) (Map, error)
	Save(ctx context.Context, m Map) error
	// Path is the store's location; the run lock sits next to it.
	Path() string
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, errors.WrapError(
			fmt.Errorf("unknown cursor backend %q", backend),
			errors.ErrConfiguration,
			"open cursor store",
		)
	}
}

// FileStore keeps cursors in a YAML mapping of endpoint name to value.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore at path. The file need not exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads the file. A missing file is an empty map.
func (s *FileStore) Load(ctx context.Context) (Map, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Map{}, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCursorStore, "read "+s.path)
	}

	m := Map{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapError(err, errors.ErrCursorStore, "parse "+s.path)
	}
	return m, nil
}

// Save overwrites the file with m, going through a temp file and rename so a
// crash never leaves a half-written store.
func (s *FileStore) Save(ctx context.Context, m Map) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.WrapError(err, errors.ErrCursorStore, "encode cursors")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapError(err, errors.ErrCursorStore, "create "+dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.WrapError(err, errors.ErrCursorStore, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WrapError(err, errors.ErrCursorStore, "write "+tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapError(err, errors.ErrCursorStore, "close "+tmp.Name())
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.WrapError(err, errors.ErrCursorStore, "replace "+s.path)
	}
	return nil
}

// Close is a no-op for files.
func (s *FileStore) Close() error { return nil }

// RunLock is an advisory lock next to the cursor store, held from Load to
// Save so two processes never interleave their runs.
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes the lock for storePath, retrying until ctx is done.
func AcquireRunLock(ctx context.Context, storePath string) (*RunLock, error) {
	lockPath := storePath + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, errors.WrapError(err, errors.ErrCursorStore, "create lock directory")
	}
	l := flock.New(lockPath)
	ok, err := l.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCursorStore, "lock "+lockPath)
	}
	if !ok {
		return nil, errors.WrapError(
			fmt.Errorf("another export holds %s", lockPath),
			errors.ErrCursorStore,
			"lock cursor store",
		)
	}
	return &RunLock{lock: l}, nil
}

// TryAcquireRunLock takes the lock without waiting. ok is false when another
// holder has it.
func TryAcquireRunLock(storePath string) (*RunLock, bool, error) {
	l := flock.New(storePath + ".lock")
	ok, err := l.TryLock()
	if err != nil {
		return nil, false, errors.WrapError(err, errors.ErrCursorStore, "lock "+storePath)
	}
	if !ok {
		return nil, false, nil
	}
	return &RunLock{lock: l}, true, nil
}

// Release drops the lock.
func (r *RunLock) Release() error {
	if r == nil || r.lock == nil {
		return nil
	}
	return r.lock.Unlock()
}
