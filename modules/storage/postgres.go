package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS kv_entries (
	entry_key   TEXT PRIMARY KEY,
	entry_value TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresFacility stores entries in a PostgreSQL table.
type PostgresFacility struct {
	pool *pgxpool.Pool
}

var _ Facility = (*PostgresFacility)(nil)

// OpenPostgres connects to databaseURL and creates the entries table if needed.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresFacility, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	f, err := NewPostgresFacility(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return f, nil
}

// NewPostgresFacility uses an existing pool.
func NewPostgresFacility(ctx context.Context, pool *pgxpool.Pool) (*PostgresFacility, error) {
	if _, err := pool.Exec(ctx, createEntriesTable); err != nil {
		return nil, fmt.Errorf("failed to create kv_entries table: %w", err)
	}
	return &PostgresFacility{pool: pool}, nil
}

// Get retrieves a value.
func (f *PostgresFacility) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := f.pool.QueryRow(ctx, `SELECT entry_value FROM kv_entries WHERE entry_key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get entry: %w", err)
	}
	return value, true, nil
}

// Set upserts a value.
func (f *PostgresFacility) Set(ctx context.Context, key, value string) error {
	_, err := f.pool.Exec(ctx, `
		INSERT INTO kv_entries (entry_key, entry_value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (entry_key) DO UPDATE
		SET entry_value = EXCLUDED.entry_value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set entry: %w", err)
	}
	return nil
}

// Remove deletes a key.
func (f *PostgresFacility) Remove(ctx context.Context, key string) error {
	if _, err := f.pool.Exec(ctx, `DELETE FROM kv_entries WHERE entry_key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// ListKeys returns all keys in ascending order.
func (f *PostgresFacility) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := f.pool.Query(ctx, `SELECT entry_key FROM kv_entries ORDER BY entry_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Ping verifies the connection.
func (f *PostgresFacility) Ping(ctx context.Context) error {
	return f.pool.Ping(ctx)
}

// Close closes the pool.
func (f *PostgresFacility) Close() error {
	f.pool.Close()
	return nil
}
