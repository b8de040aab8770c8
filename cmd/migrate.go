package cmd

import (
	"github.com/spf13/cobra"

	"Invoicing/Models"
	"Invoicing/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)
		if err := Models.Migrate(db); err != nil {
			return err
		}
		log := logger.WithComponent("migrate")
		log.Info().Str("driver", cfg.DBDriver).Msg("migration complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
