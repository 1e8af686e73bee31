package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"statuslookup/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations to database.url",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Database.URL == "" {
			return fmt.Errorf("database.url is not set")
		}
		if err := db.Migrate(cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}
