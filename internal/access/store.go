package access

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/intent-agent/internal/db"
)

// TokenInfo describes an issued token without its secret.
type TokenInfo struct {
	ID         string     `json:"id"`
	IdentityID string     `json:"identity_id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Revoked    bool       `json:"revoked"`
}

// Store persists identities and their API tokens in SQLite.
// Tokens are kept only as SHA-256 hashes.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// CreateIdentity inserts a new identity with its ordered scopes.
func (s *Store) CreateIdentity(ctx context.Context, name string, scopes []string) (*Identity, error) {
	if name == "" {
		return nil, fmt.Errorf("identity name is required")
	}
	if err := ValidateScopes(scopes); err != nil {
		return nil, err
	}

	ident := &Identity{
		ID:     uuid.NewString(),
		Name:   name,
		Scopes: append([]string(nil), scopes...),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO identities (id, name, created_at) VALUES (?, ?, ?)`,
		ident.ID, ident.Name, s.now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("creating identity: %w", err)
	}
	for i, scope := range ident.Scopes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO identity_scopes (identity_id, scope, position) VALUES (?, ?, ?)`,
			ident.ID, scope, i,
		); err != nil {
			return nil, fmt.Errorf("adding scope %q: %w", scope, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing identity: %w", err)
	}
	return ident, nil
}

// GetIdentity returns the identity with the given id, or ErrUnauthorized
// if it does not exist.
func (s *Store) GetIdentity(ctx context.Context, id string) (*Identity, error) {
	ident := &Identity{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM identities WHERE id = ?`, id,
	).Scan(&ident.ID, &ident.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("getting identity: %w", err)
	}

	ident.Scopes, err = s.scopes(ctx, id)
	if err != nil {
		return nil, err
	}
	return ident, nil
}

// FindIdentity looks an identity up by name.
func (s *Store) FindIdentity(ctx context.Context, name string) (*Identity, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM identities WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrIdentityNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("finding identity: %w", err)
	}
	return s.GetIdentity(ctx, id)
}

// ListIdentities returns all identities ordered by name.
func (s *Store) ListIdentities(ctx context.Context) ([]Identity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM identities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}

	var idents []Identity
	for rows.Next() {
		var ident Identity
		if err := rows.Scan(&ident.ID, &ident.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning identity: %w", err)
		}
		idents = append(idents, ident)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range idents {
		idents[i].Scopes, err = s.scopes(ctx, idents[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return idents, nil
}

func (s *Store) scopes(ctx context.Context, identityID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scope FROM identity_scopes WHERE identity_id = ? ORDER BY position`, identityID)
	if err != nil {
		return nil, fmt.Errorf("listing scopes: %w", err)
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fmt.Errorf("scanning scope: %w", err)
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

// IssueToken creates a new API token for the identity and returns the
// plaintext secret. The secret cannot be recovered later. A zero ttl
// issues a token that never expires.
func (s *Store) IssueToken(ctx context.Context, identityID, name string, ttl time.Duration) (string, *TokenInfo, error) {
	if _, err := s.GetIdentity(ctx, identityID); err != nil {
		return "", nil, fmt.Errorf("issuing token: %w", err)
	}

	secret, err := newSecret()
	if err != nil {
		return "", nil, err
	}

	info := &TokenInfo{
		ID:         uuid.NewString(),
		IdentityID: identityID,
		Name:       name,
		CreatedAt:  s.now().UTC(),
	}
	var expires sql.NullTime
	if ttl > 0 {
		t := info.CreatedAt.Add(ttl)
		info.ExpiresAt = &t
		expires = sql.NullTime{Time: t, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO api_tokens (id, identity_id, name, token_hash, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		info.ID, info.IdentityID, info.Name, hashToken(secret), info.CreatedAt, expires,
	)
	if err != nil {
		return "", nil, fmt.Errorf("inserting token: %w", err)
	}
	return secret, info, nil
}

// RevokeToken marks a token as revoked by its id.
func (s *Store) RevokeToken(ctx context.Context, tokenID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE api_tokens SET revoked = 1 WHERE id = ?`, tokenID)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("token %q not found", tokenID)
	}
	return nil
}

// ListTokens returns the tokens issued to an identity, newest first.
func (s *Store) ListTokens(ctx context.Context, identityID string) ([]TokenInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identity_id, name, created_at, expires_at, revoked
		 FROM api_tokens WHERE identity_id = ? ORDER BY created_at DESC`, identityID)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	defer rows.Close()

	var tokens []TokenInfo
	for rows.Next() {
		var (
			t       TokenInfo
			expires sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.IdentityID, &t.Name, &t.CreatedAt, &expires, &t.Revoked); err != nil {
			return nil, fmt.Errorf("scanning token: %w", err)
		}
		if expires.Valid {
			e := expires.Time
			t.ExpiresAt = &e
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Resolve implements Resolver. Unknown, revoked and expired tokens all
// yield ErrUnauthorized.
func (s *Store) Resolve(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrUnauthorized
	}

	var (
		tokenID, identityID string
		expires             sql.NullTime
		revoked             bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, identity_id, expires_at, revoked FROM api_tokens WHERE token_hash = ?`,
		hashToken(credential),
	).Scan(&tokenID, &identityID, &expires, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("looking up token: %w", err)
	}

	now := s.now().UTC()
	if revoked || (expires.Valid && !now.Before(expires.Time)) {
		return nil, ErrUnauthorized
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE api_tokens SET last_used = ? WHERE id = ?`, now, tokenID,
	); err != nil {
		return nil, fmt.Errorf("touching token: %w", err)
	}

	return s.GetIdentity(ctx, identityID)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return "iat_" + hex.EncodeToString(buf), nil
}
