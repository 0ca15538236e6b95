package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "text": true, "console": true}
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; callers apply
// changed flags to the returned Config.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	// SKIPLOGIC_STORAGE_URL, SKIPLOGIC_SYNC_API_PORT, ...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets must be environment-only.
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Storage: StorageConfig{
			URL:         v.GetString("storage.url"),
			Namespace:   v.GetString("storage.namespace"),
			Timeout:     v.GetDuration("storage.timeout"),
			DraftKey:    v.GetString("storage.draft_key"),
			SavedKey:    v.GetString("storage.saved_key"),
			AutoMigrate: v.GetBool("storage.auto_migrate"),
		},
		Catalog: CatalogConfig{
			Path: v.GetString("catalog.path"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		SyncAPI: SyncAPIConfig{
			Host:           v.GetString("sync_api.host"),
			Port:           v.GetInt("sync_api.port"),
			RequestTimeout: v.GetDuration("sync_api.request_timeout"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.url", d.Storage.URL)
	v.SetDefault("storage.namespace", d.Storage.Namespace)
	v.SetDefault("storage.timeout", d.Storage.Timeout.String())
	v.SetDefault("storage.draft_key", d.Storage.DraftKey)
	v.SetDefault("storage.saved_key", d.Storage.SavedKey)
	v.SetDefault("storage.auto_migrate", d.Storage.AutoMigrate)
	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("sync_api.host", d.SyncAPI.Host)
	v.SetDefault("sync_api.port", d.SyncAPI.Port)
	v.SetDefault("sync_api.request_timeout", d.SyncAPI.RequestTimeout.String())
}

// Validate checks port range, positive timeouts, storage keys and log settings.
// Commands call it again after applying flag overrides.
func Validate(cfg *Config) error {
	if cfg.Storage.URL == "" {
		return fmt.Errorf("storage.url must not be empty")
	}
	if cfg.Storage.Namespace == "" {
		return fmt.Errorf("storage.namespace must not be empty")
	}
	if cfg.Storage.Timeout <= 0 {
		return fmt.Errorf("storage.timeout must be positive, got %v", cfg.Storage.Timeout)
	}
	if cfg.Storage.DraftKey == "" || cfg.Storage.SavedKey == "" {
		return fmt.Errorf("storage.draft_key and storage.saved_key must not be empty")
	}
	if cfg.Storage.DraftKey == cfg.Storage.SavedKey {
		return fmt.Errorf("storage.draft_key and storage.saved_key must differ, both are %q", cfg.Storage.DraftKey)
	}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", cfg.Log.Level)
	}
	if !validLogFormats[cfg.Log.Format] {
		return fmt.Errorf("log.format must be json, text or console, got %q", cfg.Log.Format)
	}
	if cfg.SyncAPI.Port <= 0 || cfg.SyncAPI.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.SyncAPI.Port)
	}
	if cfg.SyncAPI.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.SyncAPI.RequestTimeout)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
// InConfig looks at the file only, so SKIPLOGIC_HMAC_SECRET in the environment passes.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("sync_api.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use %s_HMAC_SECRET environment variable)", EnvPrefix)
	}
	return nil
}
