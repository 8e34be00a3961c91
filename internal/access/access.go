package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized is returned when a credential does not map to a known identity.
var ErrUnauthorized = errors.New("invalid authentication token")

// ErrIdentityNotFound is returned by Store.FindIdentity for an unknown name.
var ErrIdentityNotFound = errors.New("identity not found")

// Identity is a caller together with the departments it may query.
// Scopes keeps the order in which they were granted.
type Identity struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// Permits reports whether scope is one of the identity's scopes.
func (i *Identity) Permits(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Resolver maps a caller credential to an Identity.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*Identity, error)
}

// ValidateScopes checks that a scope list is non-empty and free of
// blank or duplicate entries.
func ValidateScopes(scopes []string) error {
	if len(scopes) == 0 {
		return fmt.Errorf("at least one scope is required")
	}
	seen := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("scope names must not be blank")
		}
		if seen[s] {
			return fmt.Errorf("duplicate scope %q", s)
		}
		seen[s] = true
	}
	return nil
}

// StaticResolver resolves credentials from a fixed in-memory table.
type StaticResolver struct {
	identities map[string]Identity
}

// NewStaticResolver creates a resolver over the given credential table.
func NewStaticResolver(table map[string]Identity) *StaticResolver {
	identities := make(map[string]Identity, len(table))
	for token, ident := range table {
		identities[token] = ident
	}
	return &StaticResolver{identities: identities}
}

// DemoResolver returns a resolver seeded with the two demo accounts:
// a multi-department analyst and a single-department user.
func DemoResolver() *StaticResolver {
	return NewStaticResolver(map[string]Identity{
		"user_kushagra_token": {
			ID:     "kushagra.kumar",
			Name:   "kushagra.kumar",
			Scopes: []string{"Food", "Merchant", "Transport"},
		},
		"user_simple_token": {
			ID:     "simple.user",
			Name:   "simple.user",
			Scopes: []string{"Food"},
		},
	})
}

// Resolve implements Resolver. The returned identity is a copy.
func (r *StaticResolver) Resolve(_ context.Context, credential string) (*Identity, error) {
	ident, ok := r.identities[credential]
	if !ok || credential == "" {
		return nil, ErrUnauthorized
	}
	out := ident
	out.Scopes = append([]string(nil), ident.Scopes...)
	return &out, nil
}

// ChainResolver tries each resolver in order and returns the first identity found.
type ChainResolver []Resolver

// Resolve implements Resolver. Only ErrUnauthorized moves on to the next
// resolver; any other error is returned immediately.
func (c ChainResolver) Resolve(ctx context.Context, credential string) (*Identity, error) {
	for _, r := range c {
		ident, err := r.Resolve(ctx, credential)
		if err == nil {
			return ident, nil
		}
		if !errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
	}
	return nil, ErrUnauthorized
}
