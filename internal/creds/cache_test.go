package creds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradeflow/internal/domain"
)

// memStore is an in-memory Store for exercising the resolver.
type memStore struct {
	mu    sync.Mutex
	creds map[string]domain.Credential
	gets  int
}

func newMemStore() *memStore {
	return &memStore{creds: make(map[string]domain.Credential)}
}

func (s *memStore) Get(_ context.Context, principal string) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	c, ok := s.creds[principal]
	if !ok {
		return nil, nil
	}
	cp := c
	return &cp, nil
}

func (s *memStore) Put(_ context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.Principal] = cred
	return nil
}

func (s *memStore) Revoke(_ context.Context, principal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[principal]
	if ok {
		c.Revoked = true
		s.creds[principal] = c
	}
	return nil
}

func (s *memStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func TestResolveCachesStoreHit(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.Put(ctx, domain.Credential{Principal: "alice", AccessToken: "tok-a", APIKey: "key-a"})

	r := NewResolver(store, time.Minute, nil)

	for i := 0; i < 3; i++ {
		cred, err := r.Resolve(ctx, "alice")
		if err != nil {
			t.Fatalf("Resolve #%d returned error: %v", i+1, err)
		}
		if cred.AccessToken != "tok-a" || cred.APIKey != "key-a" {
			t.Fatalf("Resolve #%d = %+v", i+1, cred)
		}
	}

	if got := store.getCount(); got != 1 {
		t.Errorf("store.Get called %d times, want 1 (cache should absorb repeats)", got)
	}
}

func TestRevokeEvictsWithinTTL(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.Put(ctx, domain.Credential{Principal: "alice", AccessToken: "tok-a", APIKey: "key-a"})

	r := NewResolver(store, time.Hour, nil)

	if _, err := r.Resolve(ctx, "alice"); err != nil {
		t.Fatalf("initial Resolve: %v", err)
	}

	// Revoke well inside the TTL window; the cached entry must not survive.
	if err := r.Revoke(ctx, "alice"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	_, err := r.Resolve(ctx, "alice")
	var ce *domain.CredentialError
	if !errors.As(err, &ce) {
		t.Fatalf("Resolve after revoke = %v, want CredentialError", err)
	}
	if ce.Reason != domain.CredentialRevoked {
		t.Errorf("CredentialError.Reason = %q, want %q", ce.Reason, domain.CredentialRevoked)
	}
}

func TestResolveRevokedNeverCached(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.Put(ctx, domain.Credential{Principal: "bob", AccessToken: "tok-b", APIKey: "key-b", Revoked: true})

	r := NewResolver(store, time.Hour, nil)

	for i := 0; i < 2; i++ {
		_, err := r.Resolve(ctx, "bob")
		var ce *domain.CredentialError
		if !errors.As(err, &ce) || ce.Reason != domain.CredentialRevoked {
			t.Fatalf("Resolve #%d = %v, want revoked CredentialError", i+1, err)
		}
	}

	// Both resolves must have gone to the store: revoked is never cached.
	if got := store.getCount(); got != 2 {
		t.Errorf("store.Get called %d times, want 2", got)
	}
}

func TestResolveFallbackOnTotalMiss(t *testing.T) {
	ctx := context.Background()
	fallback := &domain.Credential{Principal: "service", AccessToken: "tok-svc", APIKey: "key-svc"}
	r := NewResolver(newMemStore(), time.Minute, fallback)

	cred, err := r.Resolve(ctx, "unknown")
	if err != nil {
		t.Fatalf("Resolve with fallback returned error: %v", err)
	}
	if cred.AccessToken != "tok-svc" {
		t.Errorf("Resolve returned %+v, want fallback credential", cred)
	}

	// Empty principal resolves straight to the default.
	cred, err = r.Resolve(ctx, "")
	if err != nil {
		t.Fatalf("Resolve(\"\") returned error: %v", err)
	}
	if cred.Principal != "service" {
		t.Errorf("Resolve(\"\") = %+v, want fallback credential", cred)
	}
}

func TestResolveNotFoundWithoutFallback(t *testing.T) {
	r := NewResolver(newMemStore(), time.Minute, nil)

	_, err := r.Resolve(context.Background(), "ghost")
	var ce *domain.CredentialError
	if !errors.As(err, &ce) {
		t.Fatalf("Resolve = %v, want CredentialError", err)
	}
	if ce.Reason != domain.CredentialNotFound {
		t.Errorf("CredentialError.Reason = %q, want %q", ce.Reason, domain.CredentialNotFound)
	}
}

func TestResolveExpiredCredentialFallsThrough(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.Put(ctx, domain.Credential{
		Principal:   "carol",
		AccessToken: "tok-c",
		APIKey:      "key-c",
		ExpiresAt:   time.Now().Add(-time.Minute),
	})

	fallback := &domain.Credential{Principal: "service", AccessToken: "tok-svc", APIKey: "key-svc"}
	r := NewResolver(store, time.Minute, fallback)

	cred, err := r.Resolve(ctx, "carol")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cred.AccessToken != "tok-svc" {
		t.Errorf("expired credential should fall back to default, got %+v", cred)
	}
}

func TestUpsertEvictsCache(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.Put(ctx, domain.Credential{Principal: "alice", AccessToken: "old", APIKey: "key"})

	r := NewResolver(store, time.Hour, nil)
	if _, err := r.Resolve(ctx, "alice"); err != nil {
		t.Fatalf("initial Resolve: %v", err)
	}

	if err := r.Upsert(ctx, domain.Credential{Principal: "alice", AccessToken: "new", APIKey: "key"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	cred, err := r.Resolve(ctx, "alice")
	if err != nil {
		t.Fatalf("Resolve after Upsert: %v", err)
	}
	if cred.AccessToken != "new" {
		t.Errorf("AccessToken = %q, want %q (rotation must be visible at once)", cred.AccessToken, "new")
	}
}
