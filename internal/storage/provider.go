// Package storage owns the data directory: backing-file I/O for every store,
// the delimited-text table format, and detection of outside modification.
package storage

// Provider is the interface for backing-file operations. Names are relative
// to the data directory.
type Provider interface {
	// Read returns the raw bytes of name. A missing file yields an error
	// satisfying errors.Is(err, fs.ErrNotExist).
	Read(name string) ([]byte, error)
	// Write atomically replaces name with content.
	Write(name string, content []byte) error
}
