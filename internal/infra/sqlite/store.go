// Package sqlite persists tickets and listings in a local SQLite file.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"voice-assistant/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// DB is an open database with the schema applied. TicketStore and
// ListingStore share it.
type DB struct {
	db *sql.DB
}

// Open creates or opens the database at path. Use ":memory:" for a
// throwaway database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite has a single writer, and an in-memory database lives only as
	// long as its one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) Tickets() *TicketStore {
	return &TicketStore{db: d.db}
}

func (d *DB) Listings() *ListingStore {
	return &ListingStore{db: d.db}
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("executing %q: %w", pragma, err)
		}
	}

	return nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}
