package creds

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradeflow/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

const credentialsSchema = `
CREATE TABLE IF NOT EXISTS credentials (
	principal    TEXT PRIMARY KEY,
	access_token TEXT NOT NULL,
	api_key      TEXT NOT NULL,
	revoked      INTEGER NOT NULL DEFAULT 0,
	expires_at   INTEGER NOT NULL DEFAULT 0,
	updated_at   INTEGER NOT NULL
);`

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the credentials table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(credentialsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating credentials table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the stored credential for a principal, or (nil, nil) when no
// record exists.
func (s *SQLiteStore) Get(ctx context.Context, principal string) (*domain.Credential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT access_token, api_key, revoked, expires_at FROM credentials WHERE principal = ?`,
		principal)

	var (
		cred      = domain.Credential{Principal: principal}
		revoked   int
		expiresAt int64
	)
	err := row.Scan(&cred.AccessToken, &cred.APIKey, &revoked, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying credential for %q: %w", principal, err)
	}
	cred.Revoked = revoked != 0
	if expiresAt > 0 {
		cred.ExpiresAt = time.Unix(expiresAt, 0)
	}
	return &cred, nil
}

// Put inserts or replaces the credential for cred.Principal.
func (s *SQLiteStore) Put(ctx context.Context, cred domain.Credential) error {
	var expiresAt int64
	if !cred.ExpiresAt.IsZero() {
		expiresAt = cred.ExpiresAt.Unix()
	}
	revoked := 0
	if cred.Revoked {
		revoked = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (principal, access_token, api_key, revoked, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(principal) DO UPDATE SET
			access_token = excluded.access_token,
			api_key      = excluded.api_key,
			revoked      = excluded.revoked,
			expires_at   = excluded.expires_at,
			updated_at   = excluded.updated_at`,
		cred.Principal, cred.AccessToken, cred.APIKey, revoked, expiresAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upserting credential for %q: %w", cred.Principal, err)
	}
	return nil
}

// Revoke marks the principal's credential revoked.
func (s *SQLiteStore) Revoke(ctx context.Context, principal string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET revoked = 1, updated_at = ? WHERE principal = ?`,
		time.Now().Unix(), principal)
	if err != nil {
		return fmt.Errorf("revoking credential for %q: %w", principal, err)
	}
	return nil
}
