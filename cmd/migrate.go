/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/

// The migrate command bootstraps a local SQLite database with the dashboard
// schema. The production database schema is managed outside homedash; this is
// meant for development databases.
//
// Example usage:
//
//	homedash migrate --db=dev.db
//	homedash migrate --db=dev.db --seed=fixtures.sql
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seckatie/homedash/internal/core/db"
	"github.com/seckatie/homedash/internal/logging"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Apply the bootstrap schema to a local database",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd)
	},
}

// runMigrate is the main function for the migrate command.
func runMigrate(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to read --verbose: %w", err)
	}
	logger, err := logging.New(cfg.Mode, verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	seed, err := cmd.Flags().GetString("seed")
	if err != nil {
		return fmt.Errorf("failed to read --seed: %w", err)
	}

	database, err := db.Open(cfg.DBURL, db.Options{Driver: cfg.DBDriver, Token: cfg.DBToken, Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()

	return migrate(cmd.Context(), database, seed, logger)
}

// migrate applies the schema and, when seed is set, the seed script.
func migrate(ctx context.Context, database *db.DB, seed string, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("database migrated successfully")

	if seed == "" {
		return nil
	}
	if err := database.SeedFile(ctx, seed); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().String("db", "", "Database path or URL (overrides db_url from the config file)")
	migrateCmd.Flags().String("seed", "", "SQL script to run after migrating")
}
