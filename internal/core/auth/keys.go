package auth

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/solatis/skiplogic/internal/types"
)

// IssuedKey is returned once at creation; the plaintext key is never stored.
type IssuedKey struct {
	ID        string
	Key       string
	Workspace string
	Name      string
	SecretID  string
	CreatedAt time.Time
}

// KeyInfo describes a stored API key without its material.
type KeyInfo struct {
	ID         string         `db:"api_key_id"`
	Workspace  string         `db:"workspace"`
	Name       string         `db:"name"`
	SecretID   string         `db:"secret_id"`
	CreatedAt  string         `db:"created_at"`
	LastUsedAt sql.NullString `db:"last_used_at"`
	RevokedAt  sql.NullString `db:"revoked_at"`
}

// Revoked reports whether the key has been revoked.
func (k KeyInfo) Revoked() bool {
	return k.RevokedAt.Valid
}

// IssuedAt is the issue time embedded in the UUIDv7 key id.
func (k KeyInfo) IssuedAt() time.Time {
	return types.APIKeyIDTime(k.ID)
}

// KeyStore issues, lists and revokes API keys in the api_keys table.
type KeyStore struct {
	secrets map[string][]byte
	queries Queries
	now     func() time.Time
}

// NewKeyStore creates a key store. Issue needs at least one secret.
func NewKeyStore(secrets map[string][]byte, queries Queries) *KeyStore {
	return &KeyStore{secrets: secrets, queries: queries, now: time.Now}
}

// CurrentSecretID returns the newest configured secret. Secret ids are
// UUIDv7, so lexical order is issue order.
func (k *KeyStore) CurrentSecretID() (string, error) {
	if len(k.secrets) == 0 {
		return "", ErrNoSecrets
	}
	ids := make([]string, 0, len(k.secrets))
	for id := range k.secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids[len(ids)-1], nil
}

// Issue creates a key for workspace signed with the current secret.
func (k *KeyStore) Issue(ctx context.Context, workspace, name string) (IssuedKey, error) {
	workspace = strings.TrimSpace(workspace)
	if workspace == "" {
		return IssuedKey{}, ErrEmptyWorkspace
	}

	secretID, err := k.CurrentSecretID()
	if err != nil {
		return IssuedKey{}, err
	}
	key, err := GenerateAPIKey(secretID)
	if err != nil {
		return IssuedKey{}, err
	}

	issued := IssuedKey{
		ID:        types.NewAPIKeyID(),
		Key:       key,
		Workspace: workspace,
		Name:      name,
		SecretID:  secretID,
		CreatedAt: k.now().UTC().Truncate(time.Second),
	}

	_, err = k.queries.ExecContext(ctx, "insert-api-key",
		issued.ID, issued.Workspace, issued.Name, issued.SecretID,
		KeyHash(k.secrets[secretID], key), issued.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return IssuedKey{}, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return issued, nil
}

// List returns the keys of workspace ordered by issue time.
func (k *KeyStore) List(ctx context.Context, workspace string) ([]KeyInfo, error) {
	var keys []KeyInfo
	if err := k.queries.SelectContext(ctx, "list-api-keys", &keys, workspace); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return keys, nil
}

// Revoke marks key id as revoked. Revoking an unknown or already revoked key
// returns ErrKeyNotFound.
func (k *KeyStore) Revoke(ctx context.Context, id string) error {
	id, err := types.ParseAPIKeyID(id)
	if err != nil {
		return fmt.Errorf("invalid API key id: %w", err)
	}

	res, err := k.queries.ExecContext(ctx, "revoke-api-key", k.now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}
