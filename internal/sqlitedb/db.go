// Package sqlitedb provides a SQLite engine for the keyed record stores,
// selected with data.backend: sqlite. Each store maps to one table whose
// columns mirror the delimited-text header.
package sqlitedb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a sql.DB shared by all store tables.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: open db: %w", err)
	}
	// One writer; the stores serialise their own mutations.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitedb: ping: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
