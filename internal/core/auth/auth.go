// Package auth provides HMAC-based API key authentication for gRPC services.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// workspaceKey is the context key for storing the authenticated workspace.
const workspaceKey = contextKey("workspace")

// Queries interface defines database operations needed for authentication.
// Implemented by *db.Queries to allow query loading via LoadQueries().
type Queries interface {
	GetContext(ctx context.Context, name string, dest interface{}, args ...interface{}) error
	SelectContext(ctx context.Context, name string, dest interface{}, args ...interface{}) error
	ExecContext(ctx context.Context, name string, args ...interface{}) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds in-memory secret map for O(1) lookup and queries for key verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		logger:  logger,
		now:     time.Now,
	}
}

// Authenticate validates API key and returns its workspace on success.
// Returns specific error for each failure mode (5-tier taxonomy).
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (string, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	// O(1) lookup of HMAC secret using secret_id from key format
	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	var row struct {
		APIKeyID   string         `db:"api_key_id"`
		Workspace  string         `db:"workspace"`
		RevokedAt  sql.NullString `db:"revoked_at"`
		LastUsedAt sql.NullString `db:"last_used_at"`
	}

	// key_hash is unique, so at most one row matches
	err = a.queries.GetContext(ctx, "get-api-key-by-hash", &row, KeyHash(secret, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if row.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	// 1-minute throttle keeps active clients from writing on every call
	now := a.now().UTC()
	if shouldUpdateLastUsed(row.LastUsedAt, now) {
		if _, err := a.queries.ExecContext(ctx, "update-last-used", now.Format(time.RFC3339), row.APIKeyID); err != nil {
			a.logger.Warn("failed to record API key use", zap.String("api_key_id", row.APIKeyID), zap.Error(err))
		}
	}

	return row.Workspace, nil
}

// shouldUpdateLastUsed reports whether lastUsed is unset, unparseable or
// older than a minute.
func shouldUpdateLastUsed(lastUsed sql.NullString, now time.Time) bool {
	if !lastUsed.Valid {
		return true
	}
	t, err := time.Parse(time.RFC3339, lastUsed.String)
	if err != nil {
		return true
	}
	return now.Sub(t) > time.Minute
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
// Methods listed in public skip authentication.
func (a *Authenticator) UnaryInterceptor(public ...string) grpc.UnaryServerInterceptor {
	skip := make(map[string]bool, len(public))
	for _, m := range public {
		skip[m] = true
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if skip[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get("x-api-key")
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		workspace, err := a.Authenticate(ctx, apiKeys[0])
		if err != nil {
			a.logger.Debug("authentication failed", zap.String("method", info.FullMethod), zap.Error(err))
			switch {
			case errors.Is(err, ErrKeyRevoked):
				return nil, status.Error(codes.PermissionDenied, err.Error())
			case errors.Is(err, ErrDatabase):
				return nil, status.Error(codes.Unavailable, err.Error())
			default:
				return nil, status.Error(codes.Unauthenticated, err.Error())
			}
		}

		return handler(WithWorkspace(ctx, workspace), req)
	}
}

// WithWorkspace returns ctx carrying an authenticated workspace.
func WithWorkspace(ctx context.Context, workspace string) context.Context {
	return context.WithValue(ctx, workspaceKey, workspace)
}

// WorkspaceFromContext extracts the authenticated workspace from context.
// Returns empty string if not found.
func WorkspaceFromContext(ctx context.Context) string {
	if ws, ok := ctx.Value(workspaceKey).(string); ok {
		return ws
	}
	return ""
}
