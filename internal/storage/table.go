package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"

	"github.com/starford/recipebox/internal/apperr"
)

// Table is a delimited-text backing file: one header row followed by one
// comma-separated record per line. It is the default store backend.
type Table struct {
	provider Provider
	name     string
	header   []string
}

// OpenTable binds a table file to provider. When the file is absent or
// empty a header-only skeleton is written immediately.
func OpenTable(provider Provider, name string, header []string) (*Table, error) {
	t := &Table{provider: provider, name: name, header: slices.Clone(header)}

	data, err := provider.Read(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data = nil
	case err != nil:
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if err := t.Save(nil); err != nil {
			return nil, fmt.Errorf("storage: init %s: %w", name, err)
		}
	}
	return t, nil
}

// Name returns the file name relative to the data directory.
func (t *Table) Name() string {
	return t.name
}

// Load parses every record. The header must match exactly and every record
// must have as many fields as the header.
func (t *Table) Load() ([][]string, error) {
	data, err := t.provider.Read(t.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read header: %v", apperr.ErrStorageCorrupt, t.name, err)
	}
	if !slices.Equal(header, t.header) {
		return nil, fmt.Errorf("%w: %s: header %q, want %q", apperr.ErrStorageCorrupt,
			t.name, strings.Join(header, ","), strings.Join(t.header, ","))
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperr.ErrStorageCorrupt, t.name, err)
		}
		if len(rec) != len(t.header) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%w: %s: line %d has %d fields, want %d", apperr.ErrStorageCorrupt,
				t.name, line, len(rec), len(t.header))
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// Save rewrites the whole file with the header and rows.
func (t *Table) Save(rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.header); err != nil {
		return fmt.Errorf("storage: encode %s: %w", t.name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("storage: encode %s: %w", t.name, err)
	}
	return t.provider.Write(t.name, buf.Bytes())
}

// Close is a no-op; files are not held open between writes.
func (t *Table) Close() error {
	return nil
}
