package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solatis/skiplogic/internal/core/api"
	"github.com/solatis/skiplogic/internal/core/auth"
	"github.com/solatis/skiplogic/internal/core/config"
	"github.com/solatis/skiplogic/internal/core/server"
	"github.com/solatis/skiplogic/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC rule set sync API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50061, "gRPC server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if cmd.Flags().Changed("host") {
		cfg.SyncAPI.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.SyncAPI.Port, _ = cmd.Flags().GetInt("port")
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
	}

	database, queries, err := openSQL()
	if err != nil {
		return err
	}
	defer database.Close()

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	// Each workspace reads its rule sets from its own namespace.
	stores := func(workspace string) (store.Store, error) {
		return store.NewSQL(queries, workspace, cfg.Storage.Timeout), nil
	}
	service, err := api.NewRuleSetService(stores, cfg.Storage.SavedKey, cat, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.SyncAPI, service, auth.NewAuthenticator(secrets, queries, logger), logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting skiplogic sync API",
		zap.String("version", Version),
		zap.String("addr", cfg.SyncAPI.Addr()),
		zap.Int("hmac_secrets", len(secrets)))

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return grpcServer.Shutdown(shutdownCtx)
	}
}
