package creds

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tradeflow/internal/domain"
)

// DefaultTTL bounds how long a cached credential can outlive a revocation
// event that bypassed this process.
const DefaultTTL = 30 * time.Second

type cacheEntry struct {
	cred    domain.Credential
	expires time.Time
}

// Resolver answers credential lookups from a per-principal TTL cache, then
// the Store, then an optional process-wide default credential. Revoked
// credentials are never cached and never returned.
//
// Safe for concurrent use; eviction is per principal, so invalidating one
// principal does not disturb cached entries for others.
type Resolver struct {
	store    Store
	ttl      time.Duration
	fallback *domain.Credential

	mu      sync.RWMutex
	entries map[string]cacheEntry

	log *slog.Logger

	// Optional cache observability; nil counters are skipped.
	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewResolver creates a Resolver over store with the given cache TTL
// (DefaultTTL when ttl <= 0). fallback, when non-nil, is the process-wide
// default credential used on a total miss.
func NewResolver(store Store, ttl time.Duration, fallback *domain.Credential) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		store:    store,
		ttl:      ttl,
		fallback: fallback,
		entries:  make(map[string]cacheEntry),
		log:      slog.Default().With("component", "creds"),
	}
}

// SetCacheCounters wires cache hit/miss counters. Either may be nil.
func (r *Resolver) SetCacheCounters(hits, misses prometheus.Counter) {
	r.hits = hits
	r.misses = misses
}

// Resolve returns a usable credential for the principal. An empty principal
// resolves straight to the process default. Failure is always a
// *domain.CredentialError; callers must not touch the broker without a
// resolved credential.
func (r *Resolver) Resolve(ctx context.Context, principal string) (domain.Credential, error) {
	if principal == "" {
		if r.fallback != nil {
			return *r.fallback, nil
		}
		return domain.Credential{}, &domain.CredentialError{Principal: principal, Reason: domain.CredentialNotFound}
	}

	now := time.Now()

	r.mu.RLock()
	entry, ok := r.entries[principal]
	r.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		r.count(r.hits)
		return entry.cred, nil
	}
	r.count(r.misses)

	cred, err := r.store.Get(ctx, principal)
	if err != nil {
		r.log.Error("credential store lookup failed", "principal", principal, "error", err)
		return domain.Credential{}, &domain.CredentialError{Principal: principal, Reason: domain.CredentialNotFound}
	}

	if cred != nil && cred.Revoked {
		// Revoked is not absent: surface it distinctly and keep it out of
		// the cache.
		r.invalidate(principal)
		return domain.Credential{}, &domain.CredentialError{Principal: principal, Reason: domain.CredentialRevoked}
	}

	if cred != nil && (cred.ExpiresAt.IsZero() || now.Before(cred.ExpiresAt)) {
		r.mu.Lock()
		r.entries[principal] = cacheEntry{cred: *cred, expires: now.Add(r.ttl)}
		r.mu.Unlock()
		return *cred, nil
	}

	// Total miss (absent or expired): fall back to the process default.
	if r.fallback != nil {
		return *r.fallback, nil
	}
	return domain.Credential{}, &domain.CredentialError{Principal: principal, Reason: domain.CredentialNotFound}
}

// Upsert writes a credential through to the store and evicts the cached
// entry so the next Resolve sees the new material immediately.
func (r *Resolver) Upsert(ctx context.Context, cred domain.Credential) error {
	if err := r.store.Put(ctx, cred); err != nil {
		return err
	}
	r.invalidate(cred.Principal)
	return nil
}

// Revoke revokes a principal's credential in the store and evicts the cached
// entry immediately, so a revocation never lingers for the TTL window.
func (r *Resolver) Revoke(ctx context.Context, principal string) error {
	if err := r.store.Revoke(ctx, principal); err != nil {
		return err
	}
	r.invalidate(principal)
	r.log.Info("credential revoked", "principal", principal)
	return nil
}

// Invalidate drops the cached entry for a principal without touching the
// store (e.g. after an out-of-band token rotation).
func (r *Resolver) Invalidate(principal string) {
	r.invalidate(principal)
}

func (r *Resolver) invalidate(principal string) {
	r.mu.Lock()
	delete(r.entries, principal)
	r.mu.Unlock()
}

func (r *Resolver) count(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}
