package cmd

import (
	"fmt"

	"github.com/minecom/minedash/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update the schema of the local audit database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		fmt.Printf("Database %s migrated successfully!\n", cfg.Database.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
