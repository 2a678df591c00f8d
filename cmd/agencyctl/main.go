package main

import (
	"fmt"
	"os"

	"github.com/agency-cms-api/internal/config"
	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var Version = "dev"

var migrationsPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "agencyctl",
		Short:         "Operations tool for the agency CMS API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "migrations", "", "migrations directory (default MIGRATIONS_PATH or ./migrations)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env bundles what every subcommand needs
type env struct {
	cfg *config.Config
	db  *database.DB
	log zerolog.Logger
}

func connect() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if migrationsPath != "" {
		cfg.Server.MigrationsPath = migrationsPath
	}

	log := logger.NewWithWriter(os.Stderr, cfg.Log.Level, "pretty")
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &env{cfg: cfg, db: db, log: log}, nil
}

func (e *env) Close() {
	if err := e.db.Close(); err != nil {
		e.log.Warn().Err(err).Msg("Failed to close database")
	}
}
