package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/solatis/skiplogic/internal/core/config"
	"github.com/solatis/skiplogic/internal/core/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testMethod = "/skiplogic.sync.v1.RuleSetSync/ListRuleSets"

type fixture struct {
	auth    *Authenticator
	keys    *KeyStore
	queries *db.Queries
	close   func() error
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	database, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.MigrateUp(database))

	queries, err := db.LoadQueries(database)
	require.NoError(t, err)

	secretID, envValue, err := GenerateSecret()
	require.NoError(t, err)
	_, secret, err := config.ParseHMACSecretWithID(envValue)
	require.NoError(t, err)
	secrets := map[string][]byte{secretID: secret}

	return fixture{
		auth:    NewAuthenticator(secrets, queries, nil),
		keys:    NewKeyStore(secrets, queries),
		queries: queries,
		close:   database.Close,
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.keys.Issue(ctx, "acme", "survey runtime")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(issued.Key, "sl-v1-"))
	assert.Len(t, issued.Key, len(keyPrefix)+len(keyVersion)+32+2*randomBytes+3)
	assert.Len(t, issued.Key, 103)

	workspace, err := f.auth.Authenticate(ctx, issued.Key)
	require.NoError(t, err)
	assert.Equal(t, "acme", workspace)

	// Flip the last hex digit: same secret, unknown hash.
	tampered := issued.Key[:len(issued.Key)-1] + flipHex(issued.Key[len(issued.Key)-1])
	_, err = f.auth.Authenticate(ctx, tampered)
	assert.ErrorIs(t, err, ErrInvalidKey)

	unknownSecret := FormatAPIKey(strings.Repeat("a", 32), strings.Repeat("b", 64))
	_, err = f.auth.Authenticate(ctx, unknownSecret)
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = f.auth.Authenticate(ctx, "tk-v1-nope")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	require.NoError(t, f.keys.Revoke(ctx, issued.ID))
	_, err = f.auth.Authenticate(ctx, issued.Key)
	assert.ErrorIs(t, err, ErrKeyRevoked)
}

func TestAuthenticate_LastUsedThrottle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.keys.Issue(ctx, "acme", "")
	require.NoError(t, err)

	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f.auth.now = func() time.Time { return start }
	_, err = f.auth.Authenticate(ctx, issued.Key)
	require.NoError(t, err)

	f.auth.now = func() time.Time { return start.Add(30 * time.Second) }
	_, err = f.auth.Authenticate(ctx, issued.Key)
	require.NoError(t, err)

	keys, err := f.keys.List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, start.Format(time.RFC3339), keys[0].LastUsedAt.String)

	f.auth.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = f.auth.Authenticate(ctx, issued.Key)
	require.NoError(t, err)

	keys, err = f.keys.List(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, start.Add(2*time.Minute).Format(time.RFC3339), keys[0].LastUsedAt.String)
}

func TestAuthenticate_DatabaseError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.keys.Issue(ctx, "acme", "")
	require.NoError(t, err)
	require.NoError(t, f.close())

	_, err = f.auth.Authenticate(ctx, issued.Key)
	assert.ErrorIs(t, err, ErrDatabase)
}

func TestKeyStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.keys.Issue(ctx, "acme", "one")
	require.NoError(t, err)
	second, err := f.keys.Issue(ctx, "acme", "two")
	require.NoError(t, err)
	_, err = f.keys.Issue(ctx, "globex", "other")
	require.NoError(t, err)

	keys, err := f.keys.List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, []string{first.ID, second.ID}, []string{keys[0].ID, keys[1].ID})
	assert.False(t, keys[0].Revoked())
	assert.False(t, keys[0].IssuedAt().IsZero())

	require.NoError(t, f.keys.Revoke(ctx, first.ID))
	assert.ErrorIs(t, f.keys.Revoke(ctx, first.ID), ErrKeyNotFound)
	assert.Error(t, f.keys.Revoke(ctx, "not-a-uuid"))

	keys, err = f.keys.List(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, keys[0].Revoked())

	_, err = f.keys.Issue(ctx, "  ", "blank")
	assert.ErrorIs(t, err, ErrEmptyWorkspace)

	_, err = NewKeyStore(nil, f.queries).Issue(ctx, "acme", "")
	assert.ErrorIs(t, err, ErrNoSecrets)
}

func TestCurrentSecretID(t *testing.T) {
	ks := NewKeyStore(map[string][]byte{
		"0190a0a0a0a0a0a0a0a0a0a0a0a0a0a0": nil,
		"0190b0b0b0b0b0b0b0b0b0b0b0b0b0b0": nil,
	}, nil)

	id, err := ks.CurrentSecretID()
	require.NoError(t, err)
	assert.Equal(t, "0190b0b0b0b0b0b0b0b0b0b0b0b0b0b0", id)
}

func TestUnaryInterceptor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active, err := f.keys.Issue(ctx, "acme", "")
	require.NoError(t, err)
	revoked, err := f.keys.Issue(ctx, "acme", "")
	require.NoError(t, err)
	require.NoError(t, f.keys.Revoke(ctx, revoked.ID))

	interceptor := f.auth.UnaryInterceptor("/grpc.health.v1.Health/Check")

	var seen string
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = WorkspaceFromContext(ctx)
		return "ok", nil
	}
	call := func(ctx context.Context, method string) error {
		_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
		return err
	}
	withKey := func(key string) context.Context {
		return metadata.NewIncomingContext(ctx, metadata.Pairs("x-api-key", key))
	}

	tests := []struct {
		name string
		ctx  context.Context
		want codes.Code
	}{
		{"no metadata", ctx, codes.Unauthenticated},
		{"no key", metadata.NewIncomingContext(ctx, metadata.Pairs("other", "x")), codes.Unauthenticated},
		{"malformed key", withKey("garbage"), codes.Unauthenticated},
		{"revoked key", withKey(revoked.Key), codes.PermissionDenied},
		{"valid key", withKey(active.Key), codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			err := call(tt.ctx, testMethod)
			assert.Equal(t, tt.want, status.Code(err))
			if tt.want == codes.OK {
				assert.Equal(t, "acme", seen)
			}
		})
	}

	require.NoError(t, call(ctx, "/grpc.health.v1.Health/Check"))
	assert.Empty(t, seen)
}

func TestParseAPIKey(t *testing.T) {
	secretID := strings.Repeat("0", 32)
	random := strings.Repeat("f", 64)

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", FormatAPIKey(secretID, random), false},
		{"wrong prefix", "tk-v1-" + secretID + "-" + random, true},
		{"wrong version", "sl-v2-" + secretID + "-" + random, true},
		{"short secret id", "sl-v1-abc-" + random, true},
		{"short random", "sl-v1-" + secretID + "-abc", true},
		{"uppercase hex", "sl-v1-" + strings.ToUpper(strings.Repeat("a", 32)) + "-" + random, true},
		{"extra segment", "sl-v1-" + secretID + "-" + random + "-x", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, gotRandom, err := ParseAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (gotID != secretID || gotRandom != random) {
				t.Errorf("ParseAPIKey() = %s, %s", gotID, gotRandom)
			}
		})
	}
}

func flipHex(c byte) string {
	if c == '0' {
		return "1"
	}
	return "0"
}
