// Package postgres persists tickets and listings in PostgreSQL through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"voice-assistant/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

type DB struct {
	db *sql.DB
}

// Open connects with a postgres:// URL or keyword DSN and applies the schema.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Tickets() *TicketStore {
	return &TicketStore{db: d.db}
}

func (d *DB) Listings() *ListingStore {
	return &ListingStore{db: d.db}
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}
