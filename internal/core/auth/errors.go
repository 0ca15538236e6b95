package auth

import "errors"

// Authentication error types enable 5-tier error taxonomy.
// UNAUTHENTICATED for missing/invalid (doesn't confirm key existence).
// PERMISSION_DENIED for revoked (confirms key exists but blocked).
// UNAVAILABLE for database failures.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key metadata")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")
	ErrDatabase         = errors.New("database error")

	// Key management errors.
	ErrNoSecrets      = errors.New("no HMAC secrets configured (set SKIPLOGIC_HMAC_SECRET environment variable)")
	ErrKeyNotFound    = errors.New("API key not found or already revoked")
	ErrEmptyWorkspace = errors.New("workspace is required")
)
