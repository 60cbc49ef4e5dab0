package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

const lockName = ".recipebox.lock"

// ErrLocked is returned by Lock when another process holds the data directory.
var ErrLocked = errors.New("storage: data directory is in use by another process")

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to data directory
	lock *flock.Flock

	mu      sync.Mutex
	written map[string]string // name -> checksum of the last image we wrote
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{
		root:    abs,
		lock:    flock.New(filepath.Join(abs, lockName)),
		written: make(map[string]string),
	}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string {
	return f.root
}

// Lock takes an exclusive advisory lock on the data directory so a second
// process cannot load the same stores.
func (f *FS) Lock() error {
	ok, err := f.lock.TryLock()
	if err != nil {
		return fmt.Errorf("storage: acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Unlock releases the data directory lock.
func (f *FS) Unlock() error {
	return f.lock.Unlock()
}

// safePath resolves a name against the data root and rejects any result
// that escapes it.
func (f *FS) safePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: empty file name")
	}
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", name)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes data root: %s", name)
	}
	return abs, nil
}

// Read returns the raw bytes of a backing file.
func (f *FS) Read(name string) ([]byte, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	f.remember(name, data)
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(name string, content []byte) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".recipebox-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}

	// Record before the rename so a watcher event racing the rename already
	// sees the new checksum.
	sum := checksum(content)
	f.mu.Lock()
	prev, hadPrev := f.written[name]
	f.written[name] = sum
	f.mu.Unlock()

	if err := os.Rename(tmpName, abs); err != nil {
		f.mu.Lock()
		if hadPrev {
			f.written[name] = prev
		} else {
			delete(f.written, name)
		}
		f.mu.Unlock()
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// lastWritten returns the checksum of the last image written for name.
func (f *FS) lastWritten(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum, ok := f.written[name]
	return sum, ok
}

// remember records data as the current known image of name.
func (f *FS) remember(name string, data []byte) {
	f.mu.Lock()
	f.written[name] = checksum(data)
	f.mu.Unlock()
}

func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
