package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/asset-portal/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|redo|reset|version]",
	Short:     "Run client state migrations",
	Long:      `Apply or roll back the embedded migrations of the local client state database. Defaults to "up".`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"up", "down", "status", "redo", "reset", "version"},
	RunE:      runMigration,
}

func runMigration(cmd *cobra.Command, args []string) error {
	command := "up"
	if len(args) == 1 {
		command = args[0]
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := storage.Connect(cfg.Storage)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := storage.Migrate(cmd.Context(), db, storage.Dialect(cfg.Storage.Driver), command); err != nil {
		return err
	}
	return nil
}
