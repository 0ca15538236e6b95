package cmd

import (
	"fmt"

	"github.com/solatis/skiplogic/internal/catalog"
	"github.com/solatis/skiplogic/internal/core/config"
	"github.com/solatis/skiplogic/internal/logging"
	"github.com/solatis/skiplogic/internal/rulegroup"
	"github.com/solatis/skiplogic/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is reported by the sync API on startup.
const Version = "0.1.0"

var (
	configFile  string
	storageURL  string
	catalogPath string
	logLevel    string
	logFormat   string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "skiplogic",
	Short: "Survey skip-logic rule groups",
	Long: `skiplogic manages the conditional-logic rule groups of a survey: the draft
being edited, the list of saved rule sets, and the sync API that survey
runtimes use to evaluate them.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&storageURL, "storage-url", "", "storage URL (memory:, sqlite://path, postgres://..., redis://...)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "question catalog file (.yaml, .yml or .json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration, applies changed flags on top and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("storage-url") {
		loaded.Storage.URL = storageURL
	}
	if flags.Changed("catalog") {
		loaded.Catalog.Path = catalogPath
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		loaded.Log.Format = logFormat
	}
	if err := config.Validate(loaded); err != nil {
		return err
	}

	l, err := logging.New(loaded.Log.Level, loaded.Log.Format)
	if err != nil {
		return err
	}

	cfg = loaded
	logger = l
	return nil
}

// openStore opens the configured backend in namespace.
func openStore(namespace string) (store.Backend, error) {
	backend, err := store.Open(cfg.Storage.URL, store.Options{
		Namespace:   namespace,
		Timeout:     cfg.Storage.Timeout,
		AutoMigrate: cfg.Storage.AutoMigrate,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return backend, nil
}

// loadCatalog reads the configured catalog. Without one, summaries fall back
// to question ids.
func loadCatalog() (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return nil, nil
	}
	return catalog.LoadFile(cfg.Catalog.Path)
}

// openManager opens storage and the editing session of the configured namespace.
// The caller closes the returned backend.
func openManager() (*rulegroup.Manager, store.Backend, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, nil, err
	}
	backend, err := openStore(cfg.Storage.Namespace)
	if err != nil {
		return nil, nil, err
	}

	m, err := rulegroup.New(rulegroup.Options{
		Catalog:  cat,
		Store:    backend,
		DraftKey: cfg.Storage.DraftKey,
		SavedKey: cfg.Storage.SavedKey,
		Logger:   logger,
	}).Init()
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return m, backend, nil
}
