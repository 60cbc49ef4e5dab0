// Package testutil provides shared test helpers for setting up data
// directories and stores.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/recipebox/internal/recipecache"
	"github.com/starford/recipebox/internal/sqlitedb"
	"github.com/starford/recipebox/internal/storage"
	"github.com/starford/recipebox/internal/store"
)

// TestDataDir creates a temporary data directory with a storage.FS.
func TestDataDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fsys, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fsys
}

// TestDB creates a temporary SQLite database that is automatically closed.
func TestDB(t *testing.T) *sqlitedb.DB {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "recipebox-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// CSVOpener opens store tables as delimited-text files on fsys.
func CSVOpener(fsys *storage.FS) store.Opener {
	return func(tbl store.Table) (store.Backend, error) {
		return storage.OpenTable(fsys, tbl.File, tbl.Header)
	}
}

// TestStores opens the user stores and the recipe cache on fsys.
func TestStores(t *testing.T, fsys *storage.FS) (*store.Set, *recipecache.Cache) {
	t.Helper()
	set, err := store.OpenSet(CSVOpener(fsys), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { set.Close() })

	cache, err := recipecache.Open(fsys, recipecache.DefaultFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	return set, cache
}
