package cmd

import (
	"fmt"

	"github.com/solatis/skiplogic/internal/core/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL storage migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("status", false, "show migration status without applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if _, _, err := db.ParseURL(cfg.Storage.URL); err != nil {
		return fmt.Errorf("migrations require sqlite or postgres storage: %w", err)
	}
	database, err := db.Open(cfg.Storage.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if status, _ := cmd.Flags().GetBool("status"); !status {
		if err := db.MigrateUp(database); err != nil {
			return err
		}
		logger.Info("migrations applied", zap.String("driver", database.DriverName()))
	}

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, s := range statuses {
		state := missStyle.Render("pending")
		if s.Applied {
			state = matchStyle.Render("applied")
		}
		fmt.Fprintf(out, "%s  %s\n", state, s.ID)
	}
	return nil
}
