// Package config provides configuration management for skiplogic commands.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/solatis/skiplogic/internal/rulegroup"
)

// EnvPrefix prefixes every environment variable read by skiplogic.
const EnvPrefix = "SKIPLOGIC"

// Config holds configuration shared by all skiplogic commands.
type Config struct {
	Storage StorageConfig
	Catalog CatalogConfig
	Log     LogConfig
	SyncAPI SyncAPIConfig
}

// StorageConfig selects the backend holding drafts and saved rule sets.
type StorageConfig struct {
	URL         string
	Namespace   string
	Timeout     time.Duration
	DraftKey    string
	SavedKey    string
	AutoMigrate bool
}

// CatalogConfig points at the survey's question catalog.
type CatalogConfig struct {
	Path string
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string
	Format string
}

// SyncAPIConfig holds configuration for the gRPC rule set sync service.
type SyncAPIConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			URL:       "sqlite://skiplogic.db",
			Namespace: "default",
			Timeout:   5 * time.Second,
			DraftKey:  rulegroup.DefaultDraftKey,
			SavedKey:  rulegroup.DefaultSavedKey,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		SyncAPI: SyncAPIConfig{
			Host:           "0.0.0.0",
			Port:           50061,
			RequestTimeout: 30 * time.Second,
		},
	}
}

// Addr returns the listen address host:port.
func (c SyncAPIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports SKIPLOGIC_HMAC_SECRET (single) and SKIPLOGIC_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
// Secret IDs are UUIDv7 (32 hex chars without hyphens) matching API key format.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)
	single := EnvPrefix + "_HMAC_SECRET"

	add := func(name, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check %s and %s_* for conflicts)", secretID, single, single)
		}
		secrets[secretID] = decoded
		return nil
	}

	// Format: <secret_id>:<base64_secret>
	if val := os.Getenv(single); val != "" {
		if err := add(single, val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old and new keys valid during rotation.
	for i := 1; ; i++ {
		key := fmt.Sprintf("%s_%d", single, i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}
	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(secret) < 32 {
		return "", nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(secret))
	}

	return secretID, secret, nil
}
