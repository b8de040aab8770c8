package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"Invoicing/Config"
	"Invoicing/Models"
	"Invoicing/logger"
)

var version = "1.0.0"

// cfg is set by Execute before any command runs.
var cfg *Config.Config

var rootCmd = &cobra.Command{
	Use:   "invoicing",
	Short: "Invoicing service - contracts, invoices and payments",
	Long: `Invoicing manages clients, products, contracts and the invoices billed
from them. Run "invoicing serve" to start the HTTP API.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI with the loaded configuration. A nil config means
// loading failed; commands that need it report that error.
func Execute(config *Config.Config, loadErr error) {
	log := logger.WithComponent("cmd")
	cfg = config
	if cfg == nil {
		rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
			return fmt.Errorf("configuration not loaded: %w", loadErr)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func openDB() (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return Models.Connect(Models.DBConfig{
		Driver:   cfg.DBDriver,
		Path:     cfg.DBPath,
		DSN:      cfg.DBDSN,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Debug:    cfg.LogLevel == "debug" || cfg.LogLevel == "trace",
	})
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
