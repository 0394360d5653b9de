// Package symbols maps human trading symbols to the broker's internal
// instrument tokens.
package symbols

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// ErrSymbolNotFound is returned when no instrument token exists for a
// symbol/exchange pair.
var ErrSymbolNotFound = errors.New("symbol not found")

// Resolver maps a trading symbol and exchange to the broker's instrument
// token.
type Resolver interface {
	Resolve(ctx context.Context, symbol, exchange string) (string, error)
}

// ---------------------------------------------------------------------------
// SQLite-backed resolver
// ---------------------------------------------------------------------------

// Compile-time interface check.
var _ Resolver = (*SQLiteResolver)(nil)

const instrumentsSchema = `
CREATE TABLE IF NOT EXISTS instruments (
	symbol   TEXT NOT NULL,
	exchange TEXT NOT NULL,
	token    TEXT NOT NULL,
	PRIMARY KEY (symbol, exchange)
);`

// SQLiteResolver resolves instrument tokens from a SQLite instruments table.
type SQLiteResolver struct {
	db *sql.DB
}

// NewSQLiteResolver opens (or creates) the instruments database at dbPath.
func NewSQLiteResolver(dbPath string) (*SQLiteResolver, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(instrumentsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating instruments table: %w", err)
	}
	return &SQLiteResolver{db: db}, nil
}

// Close closes the underlying database connection.
func (r *SQLiteResolver) Close() error {
	return r.db.Close()
}

// Resolve returns the instrument token for symbol on exchange.
func (r *SQLiteResolver) Resolve(ctx context.Context, symbol, exchange string) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx,
		`SELECT token FROM instruments WHERE symbol = ? AND exchange = ?`,
		symbol, exchange).Scan(&token)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%s on %s: %w", symbol, exchange, ErrSymbolNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("resolving %s on %s: %w", symbol, exchange, err)
	}
	return token, nil
}

// Upsert inserts or replaces an instrument mapping. Used by instrument
// master imports.
func (r *SQLiteResolver) Upsert(ctx context.Context, symbol, exchange, token string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO instruments (symbol, exchange, token) VALUES (?, ?, ?)
		ON CONFLICT(symbol, exchange) DO UPDATE SET token = excluded.token`,
		symbol, exchange, token)
	if err != nil {
		return fmt.Errorf("upserting instrument %s on %s: %w", symbol, exchange, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Static resolver
// ---------------------------------------------------------------------------

// Compile-time interface check.
var _ Resolver = (Static)(nil)

// Static resolves tokens from a fixed map keyed "SYMBOL:EXCHANGE". Used by
// tests and the simulator gateway.
type Static map[string]string

// Resolve returns the mapped instrument token.
func (s Static) Resolve(_ context.Context, symbol, exchange string) (string, error) {
	token, ok := s[symbol+":"+exchange]
	if !ok {
		return "", fmt.Errorf("%s on %s: %w", symbol, exchange, ErrSymbolNotFound)
	}
	return token, nil
}
