package store

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/starford/recipebox/internal/apperr"
	"github.com/starford/recipebox/internal/models"
)

// FridgeFile is the default backing file of the fridge store.
const FridgeFile = "fridge.csv"

// FridgeHeader is the column layout of the fridge store.
var FridgeHeader = []string{"id", "userId", "item"}

// Fridge keeps each user's set of ingredient strings. Ids are surrogates
// kept only so the backing file round-trips.
type Fridge struct {
	backend Backend
	logger  *slog.Logger

	mu     sync.RWMutex
	items  map[int64]map[string]int64 // user -> item -> id
	maxID  int64
	closed bool
}

// OpenFridge loads the fridge store from backend.
func OpenFridge(backend Backend, logger *slog.Logger) (*Fridge, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rows, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("store: open fridge: %w", err)
	}

	f := &Fridge{
		backend: backend,
		logger:  logger.With(slog.String("component", "store"), slog.String("store", "fridge")),
		items:   make(map[int64]map[string]int64),
	}
	for i, row := range rows {
		it, err := decodeFridgeItem(row)
		if err != nil {
			return nil, fmt.Errorf("%w: fridge: record %d: %v", apperr.ErrStorageCorrupt, i+1, err)
		}
		set := f.items[it.UserID]
		if set == nil {
			set = make(map[string]int64)
			f.items[it.UserID] = set
		}
		if _, dup := set[it.Item]; dup {
			return nil, fmt.Errorf("%w: fridge: record %d: duplicate item %q for user %d",
				apperr.ErrStorageCorrupt, i+1, it.Item, it.UserID)
		}
		set[it.Item] = it.ID
		f.maxID = max(f.maxID, it.ID)
	}
	return f, nil
}

func decodeFridgeItem(row []string) (models.FridgeItem, error) {
	if len(row) != len(FridgeHeader) {
		return models.FridgeItem{}, fmt.Errorf("got %d fields, want %d", len(row), len(FridgeHeader))
	}
	id, err1 := parseID("id", row[0])
	user, err2 := parseInt("userId", row[1])
	item, err3 := requireText("item", row[2])
	if err := errors.Join(err1, err2, err3); err != nil {
		return models.FridgeItem{}, err
	}
	return models.FridgeItem{ID: id, UserID: user, Item: item}, nil
}

// HasItem reports whether user has item (after trimming whitespace).
func (f *Fridge) HasItem(userID int64, item string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.hasLocked(userID, strings.TrimSpace(item))
}

func (f *Fridge) hasLocked(userID int64, item string) bool {
	_, ok := f.items[userID][item]
	return ok
}

// AddItem stores the trimmed item for user. Adding an item that is already
// present is a silent no-op and performs no write.
func (f *Fridge) AddItem(userID int64, item string) error {
	item = strings.TrimSpace(item)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if f.hasLocked(userID, item) {
		return nil
	}

	set := f.items[userID]
	created := set == nil
	if created {
		set = make(map[string]int64)
		f.items[userID] = set
	}
	f.maxID++
	set[item] = f.maxID

	if err := f.flushLocked(); err != nil {
		delete(set, item)
		if created {
			delete(f.items, userID)
		}
		f.maxID--
		return err
	}
	return nil
}

// RemoveItem deletes item for user. It returns false and performs no write
// when the item is absent.
func (f *Fridge) RemoveItem(userID int64, item string) (bool, error) {
	item = strings.TrimSpace(item)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false, ErrClosed
	}
	set := f.items[userID]
	id, ok := set[item]
	if !ok {
		return false, nil
	}
	delete(set, item)

	if err := f.flushLocked(); err != nil {
		set[item] = id
		return false, err
	}
	if len(set) == 0 {
		delete(f.items, userID)
	}
	return true, nil
}

// ItemsFor returns user's items in the order they were added.
func (f *Fridge) ItemsFor(userID int64) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	set := f.items[userID]
	out := make([]string, 0, len(set))
	for item := range set {
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b string) int {
		return compareInt64(set[a], set[b])
	})
	return out
}

// Close releases the backend. Later mutations fail.
func (f *Fridge) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.backend.Close()
}

func (f *Fridge) flushLocked() error {
	var all []models.FridgeItem
	for user, set := range f.items {
		for item, id := range set {
			all = append(all, models.FridgeItem{ID: id, UserID: user, Item: item})
		}
	}
	slices.SortFunc(all, func(a, b models.FridgeItem) int {
		return compareInt64(a.ID, b.ID)
	})
	rows := make([][]string, len(all))
	for i, it := range all {
		rows[i] = []string{formatInt(it.ID), formatInt(it.UserID), it.Item}
	}
	if err := f.backend.Save(rows); err != nil {
		f.logger.Error("store write failed",
			slog.String("event_type", "storage_write_failed"),
			slog.String("error", err.Error()),
			slog.String("impact", "change rolled back in memory; backing file holds the previous image"))
		return fmt.Errorf("%w: fridge: %v", apperr.ErrStorageIO, err)
	}
	return nil
}
