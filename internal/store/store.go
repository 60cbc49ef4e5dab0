// Package store implements the durable in-memory record stores: a generic
// keyed store used for saved recipes and ratings, and the fridge store.
//
// Every store loads its backend fully when opened and rewrites the whole
// backend after each mutation. A store instance is safe for concurrent use;
// one mutex per store serialises the in-memory index and the write.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/starford/recipebox/internal/apperr"
)

// Backend persists a store as rows of text fields. Load verifies the
// backend's declared schema and reports apperr.ErrStorageCorrupt on mismatch.
type Backend interface {
	Load() ([][]string, error)
	Save(rows [][]string) error
	Close() error
}

// Schema describes how a record type maps onto backend rows.
type Schema[K comparable, V any] struct {
	Name   string
	Header []string
	Key    func(V) K
	ID     func(V) int64
	SetID  func(*V, int64)
	Encode func(V) []string
	Decode func([]string) (V, error)
}

// Keyed is a file-backed associative store with surrogate id allocation.
type Keyed[K comparable, V any] struct {
	schema  Schema[K, V]
	backend Backend
	logger  *slog.Logger

	mu      sync.RWMutex
	records map[K]V
	maxID   int64
	closed  bool
}

// Open loads every record from backend. Duplicate natural keys or an
// undecodable row abort the load with apperr.ErrStorageCorrupt.
func Open[K comparable, V any](backend Backend, schema Schema[K, V], logger *slog.Logger) (*Keyed[K, V], error) {
	if logger == nil {
		logger = slog.Default()
	}
	rows, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", schema.Name, err)
	}

	s := &Keyed[K, V]{
		schema:  schema,
		backend: backend,
		logger:  logger.With(slog.String("component", "store"), slog.String("store", schema.Name)),
		records: make(map[K]V, len(rows)),
	}
	for i, row := range rows {
		v, err := schema.Decode(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: record %d: %v", apperr.ErrStorageCorrupt, schema.Name, i+1, err)
		}
		k := schema.Key(v)
		if _, dup := s.records[k]; dup {
			return nil, fmt.Errorf("%w: %s: record %d: duplicate key %v", apperr.ErrStorageCorrupt, schema.Name, i+1, k)
		}
		s.records[k] = v
		s.maxID = max(s.maxID, schema.ID(v))
	}

	s.logger.Debug("store loaded", slog.Int("records", len(s.records)), slog.Int64("max_id", s.maxID))
	return s, nil
}

// Exists reports whether a record with key is present.
func (s *Keyed[K, V]) Exists(key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

// Get returns the record for key or apperr.ErrNotFound.
func (s *Keyed[K, V]) Get(key K) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%s %v: %w", s.schema.Name, key, apperr.ErrNotFound)
	}
	return v, nil
}

// Put inserts or replaces the record with v's natural key and rewrites the
// backend. A zero id is filled in: a replaced record keeps its id, a new
// one gets max id + 1. The stored record is returned.
func (s *Keyed[K, V]) Put(v V) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		var zero V
		return zero, err
	}

	key := s.schema.Key(v)
	prev, existed := s.records[key]
	prevMax := s.maxID

	if s.schema.ID(v) == 0 {
		if existed {
			s.schema.SetID(&v, s.schema.ID(prev))
		} else {
			s.schema.SetID(&v, s.maxID+1)
		}
	}
	s.records[key] = v
	s.maxID = max(s.maxID, s.schema.ID(v))

	if err := s.flushLocked(); err != nil {
		if existed {
			s.records[key] = prev
		} else {
			delete(s.records, key)
		}
		s.maxID = prevMax
		var zero V
		return zero, err
	}
	return v, nil
}

// Delete removes the record for key. It returns false without touching the
// backend when the key is absent.
func (s *Keyed[K, V]) Delete(key K) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return false, err
	}

	prev, ok := s.records[key]
	if !ok {
		return false, nil
	}
	delete(s.records, key)

	if err := s.flushLocked(); err != nil {
		s.records[key] = prev
		return false, err
	}
	return true, nil
}

// ScanBy returns every record matching pred ordered by surrogate id.
func (s *Keyed[K, V]) ScanBy(pred func(K) bool) []V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []V
	for k, v := range s.records {
		if pred == nil || pred(k) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b V) int {
		return compareInt64(s.schema.ID(a), s.schema.ID(b))
	})
	return out
}

// Len returns the number of records.
func (s *Keyed[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// MaxID returns the highest surrogate id seen so far.
func (s *Keyed[K, V]) MaxID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxID
}

// Flush rewrites the backend from memory.
func (s *Keyed[K, V]) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.flushLocked()
}

// Close releases the backend. Later mutations fail.
func (s *Keyed[K, V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}

func (s *Keyed[K, V]) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Keyed[K, V]) flushLocked() error {
	values := make([]V, 0, len(s.records))
	for _, v := range s.records {
		values = append(values, v)
	}
	slices.SortFunc(values, func(a, b V) int {
		return compareInt64(s.schema.ID(a), s.schema.ID(b))
	})
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = s.schema.Encode(v)
	}
	if err := s.backend.Save(rows); err != nil {
		s.logger.Error("store write failed",
			slog.String("event_type", "storage_write_failed"),
			slog.String("error", err.Error()),
			slog.String("impact", "change rolled back in memory; backing file holds the previous image"))
		return fmt.Errorf("%w: %s: %v", apperr.ErrStorageIO, s.schema.Name, err)
	}
	return nil
}

// ErrClosed is returned by mutations on a closed store.
var ErrClosed = errors.New("store: closed")
