package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ziadkadry99/intent-agent/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestDemoResolver(t *testing.T) {
	r := DemoResolver()
	ctx := context.Background()

	ident, err := r.Resolve(ctx, "user_kushagra_token")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"Food", "Merchant", "Transport"}
	if len(ident.Scopes) != len(want) {
		t.Fatalf("Scopes = %v, want %v", ident.Scopes, want)
	}
	for i := range want {
		if ident.Scopes[i] != want[i] {
			t.Errorf("Scopes[%d] = %q, want %q", i, ident.Scopes[i], want[i])
		}
	}

	simple, err := r.Resolve(ctx, "user_simple_token")
	if err != nil {
		t.Fatalf("Resolve simple: %v", err)
	}
	if len(simple.Scopes) != 1 || simple.Scopes[0] != "Food" {
		t.Errorf("simple scopes = %v, want [Food]", simple.Scopes)
	}

	if _, err := r.Resolve(ctx, "nope"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := r.Resolve(ctx, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for empty credential, got %v", err)
	}
}

func TestStaticResolverReturnsCopy(t *testing.T) {
	r := DemoResolver()
	ctx := context.Background()

	first, _ := r.Resolve(ctx, "user_kushagra_token")
	first.Scopes[0] = "Mutated"

	second, _ := r.Resolve(ctx, "user_kushagra_token")
	if second.Scopes[0] != "Food" {
		t.Errorf("resolver table was mutated through a returned identity: %v", second.Scopes)
	}
}

func TestIdentityPermits(t *testing.T) {
	ident := &Identity{Scopes: []string{"Food", "Merchant"}}
	if !ident.Permits("Merchant") {
		t.Error("expected Merchant to be permitted")
	}
	if ident.Permits("merchant") {
		t.Error("scope comparison must be case-sensitive")
	}
	if ident.Permits("Transport") {
		t.Error("expected Transport to be rejected")
	}
}

func TestValidateScopes(t *testing.T) {
	tests := []struct {
		name    string
		scopes  []string
		wantErr bool
	}{
		{"valid", []string{"Food", "Merchant"}, false},
		{"empty", nil, true},
		{"blank", []string{"Food", " "}, true},
		{"duplicate", []string{"Food", "Food"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScopes(tt.scopes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScopes(%v) error = %v, wantErr %v", tt.scopes, err, tt.wantErr)
			}
		})
	}
}

func TestChainResolver(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ident, err := store.CreateIdentity(ctx, "alice", []string{"Transport"})
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	secret, _, err := store.IssueToken(ctx, ident.ID, "cli", 0)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	chain := ChainResolver{store, DemoResolver()}

	got, err := chain.Resolve(ctx, secret)
	if err != nil || got.Name != "alice" {
		t.Fatalf("expected alice from store, got %v, %v", got, err)
	}
	got, err = chain.Resolve(ctx, "user_simple_token")
	if err != nil || got.ID != "simple.user" {
		t.Fatalf("expected demo identity, got %v, %v", got, err)
	}
	if _, err := chain.Resolve(ctx, "unknown"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStoreCreateAndGetIdentity(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created, err := store.CreateIdentity(ctx, "bob", []string{"Transport", "Food"})
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := store.GetIdentity(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetIdentity: %v", err)
	}
	// Scopes must come back in grant order, not alphabetical.
	if len(got.Scopes) != 2 || got.Scopes[0] != "Transport" || got.Scopes[1] != "Food" {
		t.Errorf("Scopes = %v, want [Transport Food]", got.Scopes)
	}

	byName, err := store.FindIdentity(ctx, "bob")
	if err != nil {
		t.Fatalf("FindIdentity: %v", err)
	}
	if byName.ID != created.ID {
		t.Errorf("FindIdentity ID = %q, want %q", byName.ID, created.ID)
	}

	if _, err := store.FindIdentity(ctx, "nobody"); !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("FindIdentity(nobody) err = %v, want ErrIdentityNotFound", err)
	}

	if _, err := store.CreateIdentity(ctx, "carol", nil); err == nil {
		t.Error("expected error for identity without scopes")
	}
	if _, err := store.CreateIdentity(ctx, "bob", []string{"Food"}); err == nil {
		t.Error("expected error for duplicate identity name")
	}
}

func TestStoreListIdentities(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, name := range []string{"zed", "amy"} {
		if _, err := store.CreateIdentity(ctx, name, []string{"Food", "Merchant"}); err != nil {
			t.Fatalf("CreateIdentity(%s): %v", name, err)
		}
	}

	idents, err := store.ListIdentities(ctx)
	if err != nil {
		t.Fatalf("ListIdentities: %v", err)
	}
	if len(idents) != 2 {
		t.Fatalf("expected 2 identities, got %d", len(idents))
	}
	if idents[0].Name != "amy" || len(idents[0].Scopes) != 2 {
		t.Errorf("first identity = %+v", idents[0])
	}
}

func TestStoreResolveToken(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ident, err := store.CreateIdentity(ctx, "dana", []string{"Food", "Merchant", "Transport"})
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	secret, info, err := store.IssueToken(ctx, ident.ID, "laptop", 0)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if info.ExpiresAt != nil {
		t.Error("zero ttl should not set an expiry")
	}

	got, err := store.Resolve(ctx, secret)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != ident.ID || len(got.Scopes) != 3 {
		t.Errorf("Resolve = %+v, want identity %s with 3 scopes", got, ident.ID)
	}

	if _, err := store.Resolve(ctx, secret+"x"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for wrong token, got %v", err)
	}
}

func TestStoreRevokeToken(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ident, _ := store.CreateIdentity(ctx, "erin", []string{"Food"})
	secret, info, err := store.IssueToken(ctx, ident.ID, "ci", 0)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if err := store.RevokeToken(ctx, info.ID); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if _, err := store.Resolve(ctx, secret); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected revoked token to be rejected, got %v", err)
	}
	if err := store.RevokeToken(ctx, "missing"); err == nil {
		t.Error("expected error revoking unknown token")
	}

	tokens, err := store.ListTokens(ctx, ident.ID)
	if err != nil {
		t.Fatalf("ListTokens: %v", err)
	}
	if len(tokens) != 1 || !tokens[0].Revoked {
		t.Errorf("ListTokens = %+v, want one revoked token", tokens)
	}
}

func TestStoreExpiredToken(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	ident, _ := store.CreateIdentity(ctx, "frank", []string{"Food"})
	secret, _, err := store.IssueToken(ctx, ident.ID, "short", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := store.Resolve(ctx, secret); err != nil {
		t.Fatalf("token should be valid before expiry: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := store.Resolve(ctx, secret); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}
}

func TestIssueTokenUnknownIdentity(t *testing.T) {
	store := setupStore(t)
	if _, _, err := store.IssueToken(context.Background(), "ghost", "x", 0); err == nil {
		t.Error("expected error issuing token for unknown identity")
	}
}
