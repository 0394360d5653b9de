// Package creds resolves the short-lived auth material (access token +
// private API key) required to authorize broker calls for a principal. A
// small TTL cache sits in front of a persistent store, with a process-wide
// default credential as the final fallback for single-tenant deployments.
package creds

import (
	"context"

	"tradeflow/internal/domain"
)

// Store is the persistent credential backend.
type Store interface {
	// Get returns the stored credential for a principal, or (nil, nil) when
	// no record exists. Revoked credentials are returned with Revoked set so
	// callers can distinguish revoked from absent.
	Get(ctx context.Context, principal string) (*domain.Credential, error)

	// Put inserts or replaces the credential for cred.Principal.
	Put(ctx context.Context, cred domain.Credential) error

	// Revoke marks the principal's credential revoked. Revoking an unknown
	// principal is not an error.
	Revoke(ctx context.Context, principal string) error
}
