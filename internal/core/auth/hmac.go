package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/solatis/skiplogic/internal/types"
)

const (
	keyPrefix  = "sl"
	keyVersion = "v1"

	randomBytes = 32 // 64 hex chars
	secretBytes = 32
)

// ParseAPIKey extracts secret_id and random_data from API key format.
// Format: sl-v1-<secret_id>-<random_data> (103 chars total).
// Returns ErrInvalidKeyFormat if format doesn't match.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != keyPrefix || parts[1] != keyVersion {
		return "", "", ErrInvalidKeyFormat
	}

	secretID = parts[2]
	randomData = parts[3]

	// secret_id is a UUIDv7 without hyphens, random_data is 256 bits
	if len(secretID) != 32 || len(randomData) != 2*randomBytes {
		return "", "", ErrInvalidKeyFormat
	}

	for _, c := range secretID + randomData {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", "", ErrInvalidKeyFormat
		}
	}

	return secretID, randomData, nil
}

// FormatAPIKey constructs API key from components.
func FormatAPIKey(secretID, randomData string) string {
	return fmt.Sprintf("%s-%s-%s-%s", keyPrefix, keyVersion, secretID, randomData)
}

// ComputeHMAC computes HMAC-SHA256 signature of API key using secret.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// KeyHash is the hex-encoded HMAC stored in the api_keys table.
func KeyHash(secret []byte, apiKey string) string {
	return hex.EncodeToString(ComputeHMAC(secret, apiKey))
}

// GenerateAPIKey creates a new key bound to secretID.
func GenerateAPIKey(secretID string) (string, error) {
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}
	return FormatAPIKey(secretID, hex.EncodeToString(buf)), nil
}

// GenerateSecret creates a fresh HMAC secret and returns its id together with
// the <secret_id>:<base64_secret> value expected in SKIPLOGIC_HMAC_SECRET.
func GenerateSecret() (secretID, envValue string, err error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate secret: %w", err)
	}
	secretID = types.NewSecretID()
	return secretID, secretID + ":" + base64.StdEncoding.EncodeToString(buf), nil
}
