package creds

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tradeflow/internal/domain"
)

// Compile-time interface check.
var _ Store = (*RedisStore)(nil)

// RedisStore implements Store on a Redis hash per principal, for deployments
// that already run Redis and want credentials shared across processes.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore on the given client. Keys are written
// as "cred:<principal>".
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "cred:"}
}

// Get returns the stored credential for a principal, or (nil, nil) when the
// hash does not exist.
func (s *RedisStore) Get(ctx context.Context, principal string) (*domain.Credential, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+principal).Result()
	if err != nil {
		return nil, fmt.Errorf("reading credential for %q: %w", principal, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	cred := &domain.Credential{
		Principal:   principal,
		AccessToken: fields["access_token"],
		APIKey:      fields["api_key"],
		Revoked:     fields["revoked"] == "1",
	}
	if v := fields["expires_at"]; v != "" && v != "0" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			cred.ExpiresAt = time.Unix(unix, 0)
		}
	}
	return cred, nil
}

// Put inserts or replaces the credential for cred.Principal.
func (s *RedisStore) Put(ctx context.Context, cred domain.Credential) error {
	revoked := "0"
	if cred.Revoked {
		revoked = "1"
	}
	var expiresAt int64
	if !cred.ExpiresAt.IsZero() {
		expiresAt = cred.ExpiresAt.Unix()
	}
	err := s.client.HSet(ctx, s.prefix+cred.Principal,
		"access_token", cred.AccessToken,
		"api_key", cred.APIKey,
		"revoked", revoked,
		"expires_at", strconv.FormatInt(expiresAt, 10),
	).Err()
	if err != nil {
		return fmt.Errorf("writing credential for %q: %w", cred.Principal, err)
	}
	return nil
}

// Revoke marks the principal's credential revoked.
func (s *RedisStore) Revoke(ctx context.Context, principal string) error {
	err := s.client.HSet(ctx, s.prefix+principal, "revoked", "1").Err()
	if err != nil {
		return fmt.Errorf("revoking credential for %q: %w", principal, err)
	}
	return nil
}
