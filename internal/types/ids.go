package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSecretID generates a UUIDv7 identifier for an HMAC secret, rendered as
// 32 lowercase hex chars without hyphens so it can be embedded in API keys.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewSecretID() string {
	return strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
}

// NewAPIKeyID generates a UUIDv7 identifier for an issued API key row.
func NewAPIKeyID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseAPIKeyID validates an API key row identifier.
func ParseAPIKeyID(s string) (string, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return s, nil
}

// APIKeyIDTime extracts the issue time embedded in a UUIDv7 key ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func APIKeyIDTime(id string) time.Time {
	u, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
