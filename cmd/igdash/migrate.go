package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"igdash/pkg/config"
	"igdash/pkg/storage"
	"igdash/pkg/ui"
)

// migrateCmd applies the postgres schema
var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|reset]",
	Short:     "Manage the postgres schema",
	Long:      `Run the embedded goose migrations against the configured postgres database. Defaults to up.`,
	Example:   `  igdash migrate status`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{storage.MigrateUp, storage.MigrateDown, storage.MigrateStatus, storage.MigrateReset},
	Run:       runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	command := storage.MigrateUp
	if len(args) == 1 {
		command = args[0]
	}

	cfg, log := mustSetup(config.Overrides{StorageDriver: config.StorageDriverPostgres})

	if err := storage.Migrate(context.Background(), cfg.Storage.Postgres.DSN(), command, log); err != nil {
		ui.PrintError("Migration failed", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Migration " + command + " completed")
}
