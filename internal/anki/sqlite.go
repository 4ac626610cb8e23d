package anki

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

func init() {
	RegisterBackend("sqlite", func() Backend { return &sqliteBackend{} })
}

// sqliteBackend opens collection blobs through database/sql with the
// pure-Go sqlite driver. The driver needs a file, so the blob is written
// to a uniquely named scratch file which is removed again when the
// database closes, including when opening fails partway.
type sqliteBackend struct{}

func (b *sqliteBackend) Name() string { return "sqlite" }

func (b *sqliteBackend) Open(blob []byte) (Database, error) {
	scratch := filepath.Join(os.TempDir(), fmt.Sprintf("memodeck-collection-%s.db", uuid.NewString()))
	if err := os.WriteFile(scratch, blob, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write scratch database: %w", err)
	}

	db, err := sql.Open("sqlite", scratch)
	if err != nil {
		os.Remove(scratch)
		return nil, fmt.Errorf("failed to open collection database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		os.Remove(scratch)
		return nil, fmt.Errorf("failed to read collection database: %w", err)
	}

	return &sqliteDatabase{db: db, scratch: scratch}, nil
}

type sqliteDatabase struct {
	db      *sql.DB
	scratch string
}

func (d *sqliteDatabase) Prepare(query string) (Cursor, error) {
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to run collection query: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	return &sqliteCursor{rows: rows, cols: cols}, nil
}

func (d *sqliteDatabase) Close() error {
	err := d.db.Close()
	if rmErr := os.Remove(d.scratch); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}

type sqliteCursor struct {
	rows    *sql.Rows
	cols    []string
	current map[string]any
	err     error
}

func (c *sqliteCursor) Step() bool {
	if c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}

	values := make([]any, len(c.cols))
	pointers := make([]any, len(c.cols))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := c.rows.Scan(pointers...); err != nil {
		c.err = err
		return false
	}

	row := make(map[string]any, len(c.cols))
	for i, col := range c.cols {
		if b, ok := values[i].([]byte); ok {
			row[col] = string(b)
			continue
		}
		row[col] = values[i]
	}
	c.current = row
	return true
}

func (c *sqliteCursor) Row() map[string]any { return c.current }

func (c *sqliteCursor) Err() error { return c.err }

func (c *sqliteCursor) Free() { c.rows.Close() }
