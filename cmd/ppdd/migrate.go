package main

import (
	"github.com/spf13/cobra"

	"github.com/pokepocketdata/ppdd/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and normalise legacy data",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		logger.Info("Database is up to date")
		return database.Close(db)
	},
}
