// Package recipecache stores fully expanded custom recipes in a single JSON
// document keyed by decimal recipe id.
package recipecache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"sync"

	"github.com/starford/recipebox/internal/apperr"
	"github.com/starford/recipebox/internal/models"
	"github.com/starford/recipebox/internal/storage"
)

// DefaultFile is the backing file name inside the data directory.
const DefaultFile = "recipes.json"

// Cache is a durable map of recipe id to recipe document. It is safe for
// concurrent use.
type Cache struct {
	provider storage.Provider
	name     string
	logger   *slog.Logger

	mu     sync.RWMutex
	docs   map[uint64]document
	closed bool
}

// Open loads the cache file. An absent or empty file becomes "{}" on disk.
// A malformed document or a missing required field is apperr.ErrStorageCorrupt.
func Open(provider storage.Provider, name string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		provider: provider,
		name:     name,
		logger:   logger.With(slog.String("component", "recipecache")),
		docs:     make(map[uint64]document),
	}

	data, err := provider.Read(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data = nil
	case err != nil:
		return nil, fmt.Errorf("recipecache: read %s: %w", name, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		if err := provider.Write(name, []byte("{}\n")); err != nil {
			return nil, fmt.Errorf("recipecache: init %s: %w", name, err)
		}
		return c, nil
	}

	var raw map[string]document
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrStorageCorrupt, name, err)
	}
	for key, doc := range raw {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: key %q is not a recipe id", apperr.ErrStorageCorrupt, name, key)
		}
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: recipe %d: %v", apperr.ErrStorageCorrupt, name, id, err)
		}
		c.docs[id] = doc
	}

	c.logger.Debug("recipe cache loaded", slog.Int("recipes", len(c.docs)))
	return c, nil
}

// Exists reports whether a recipe with id is cached.
func (c *Cache) Exists(id uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.docs[id]
	return ok
}

// Find returns the recipe for id or apperr.ErrNotFound.
func (c *Cache) Find(id uint64) (models.Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[id]
	if !ok {
		return models.Recipe{}, fmt.Errorf("recipe %d: %w", id, apperr.ErrNotFound)
	}
	return toRecipe(id, doc), nil
}

// Save inserts or overwrites recipe under recipe.ID and rewrites the file.
// On a failed write the previous document is restored in memory.
func (c *Cache) Save(recipe models.Recipe) error {
	if recipe.ID == 0 {
		return errors.New("recipecache: recipe id must be positive")
	}
	doc := fromRecipe(recipe)
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%w: recipe %d: %v", apperr.ErrInvalidInput, recipe.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	prev, existed := c.docs[recipe.ID]
	c.docs[recipe.ID] = doc

	if err := c.flushLocked(); err != nil {
		if existed {
			c.docs[recipe.ID] = prev
		} else {
			delete(c.docs, recipe.ID)
		}
		return err
	}
	return nil
}

// NextID returns one more than the highest cached id.
func (c *Cache) NextID() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var top uint64
	for id := range c.docs {
		top = max(top, id)
	}
	return top + 1
}

// Len returns the number of cached recipes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Close marks the cache closed. Later saves fail.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Cache) flushLocked() error {
	raw := make(map[string]document, len(c.docs))
	for id, doc := range c.docs {
		raw[strconv.FormatUint(id, 10)] = doc
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err == nil {
		err = c.provider.Write(c.name, append(data, '\n'))
	}
	if err != nil {
		c.logger.Error("recipe cache write failed",
			slog.String("event_type", "storage_write_failed"),
			slog.String("error", err.Error()),
			slog.String("impact", "change rolled back in memory; backing file holds the previous image"))
		return fmt.Errorf("%w: %s: %v", apperr.ErrStorageIO, c.name, err)
	}
	return nil
}

// ErrClosed is returned by Save on a closed cache.
var ErrClosed = errors.New("recipecache: closed")
