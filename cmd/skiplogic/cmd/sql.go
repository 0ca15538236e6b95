package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/solatis/skiplogic/internal/core/db"
)

// openSQL opens the configured storage as a SQL database. API keys and
// migrations live there, so memory and redis storage cannot serve them.
func openSQL() (*sqlx.DB, *db.Queries, error) {
	if _, _, err := db.ParseURL(cfg.Storage.URL); err != nil {
		return nil, nil, fmt.Errorf("this command requires sqlite or postgres storage: %w", err)
	}

	database, err := db.Open(cfg.Storage.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Storage.AutoMigrate {
		err = db.MigrateUp(database)
	} else {
		err = db.RequireMigrations(database)
	}
	if err != nil {
		database.Close()
		return nil, nil, err
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, nil
}
