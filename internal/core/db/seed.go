package db

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Seed runs a SQL script (one or more statements) in a single transaction.
func (db *DB) Seed(ctx context.Context, script string) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, script); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to run seed script: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SeedFile runs the SQL script at path with Seed.
func (db *DB) SeedFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	if err := db.Seed(ctx, string(content)); err != nil {
		return err
	}
	db.logger.Info("seed applied", zap.String("path", path))
	return nil
}
