package sqlitedb

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/starford/recipebox/internal/apperr"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table stores one record store as rows of TEXT columns. Save replaces the
// whole table inside a single transaction.
type Table struct {
	db      *DB
	name    string
	columns []string
}

// OpenTable creates the table if needed and verifies that an existing
// table has exactly the expected columns.
func (db *DB) OpenTable(name string, columns []string) (*Table, error) {
	if !identRe.MatchString(name) {
		return nil, fmt.Errorf("sqlitedb: invalid table name %q", name)
	}
	for _, c := range columns {
		if !identRe.MatchString(c) {
			return nil, fmt.Errorf("sqlitedb: invalid column name %q", c)
		}
	}
	t := &Table{db: db, name: name, columns: slices.Clone(columns)}

	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quote(c) + " TEXT NOT NULL"
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(name), strings.Join(defs, ", "))
	if _, err := db.conn.Exec(ddl); err != nil {
		return nil, fmt.Errorf("sqlitedb: create %s: %w", name, err)
	}

	got, err := t.existingColumns()
	if err != nil {
		return nil, err
	}
	if !slices.Equal(got, t.columns) {
		return nil, fmt.Errorf("%w: table %s has columns %q, want %q", apperr.ErrStorageCorrupt,
			name, strings.Join(got, ","), strings.Join(t.columns, ","))
	}
	return t, nil
}

func (t *Table) existingColumns() ([]string, error) {
	rows, err := t.db.conn.Query(fmt.Sprintf("PRAGMA table_info(%s)", quote(t.name)))
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: table info %s: %w", t.name, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			typ       string
			notNull   int
			dflt      any
			primaryKy int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &primaryKy); err != nil {
			return nil, fmt.Errorf("sqlitedb: scan table info: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// Load returns every row in insertion order.
func (t *Table) Load() ([][]string, error) {
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", t.columnList(), quote(t.name))
	rows, err := t.db.conn.Query(q)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: load %s: %w", t.name, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		rec := make([]string, len(t.columns))
		ptrs := make([]any, len(rec))
		for i := range rec {
			ptrs[i] = &rec[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperr.ErrStorageCorrupt, t.name, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Save replaces the table contents with rows.
func (t *Table) Save(rows [][]string) error {
	tx, err := t.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("sqlitedb: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", quote(t.name))); err != nil {
		return fmt.Errorf("sqlitedb: clear %s: %w", t.name, err)
	}
	if len(rows) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
		stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quote(t.name), t.columnList(), placeholders))
		if err != nil {
			return fmt.Errorf("sqlitedb: prepare insert: %w", err)
		}
		defer stmt.Close()
		args := make([]any, len(t.columns))
		for _, rec := range rows {
			if len(rec) != len(t.columns) {
				return fmt.Errorf("sqlitedb: %s: row has %d fields, want %d", t.name, len(rec), len(t.columns))
			}
			for i, v := range rec {
				args[i] = v
			}
			if _, err := stmt.Exec(args...); err != nil {
				return fmt.Errorf("sqlitedb: insert %s: %w", t.name, err)
			}
		}
	}
	return tx.Commit()
}

// Close is a no-op; the connection belongs to DB.
func (t *Table) Close() error {
	return nil
}

func (t *Table) columnList() string {
	quoted := make([]string, len(t.columns))
	for i, c := range t.columns {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

func quote(ident string) string {
	return `"` + ident + `"`
}
