/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/seckatie/homedash/internal/core/db"
)

func TestMigrateCmd_Flags(t *testing.T) {
	for _, name := range []string{"db", "seed"} {
		v, err := migrateCmd.Flags().GetString(name)
		if err != nil {
			t.Fatalf("Failed to get flag %s: %v", name, err)
		}
		if v != "" {
			t.Errorf("Flag %s: got %q, want empty", name, v)
		}
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("schema only", func(t *testing.T) {
		database, err := db.NewSQLiteDB(":memory:")
		if err != nil {
			t.Fatalf("failed to open db: %v", err)
		}
		defer database.Close()

		if err := migrate(ctx, database, "", zap.NewNop()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		servers, err := database.ListServers(ctx)
		if err != nil {
			t.Fatalf("expected schema to exist: %v", err)
		}
		if len(servers) != 0 {
			t.Errorf("expected no servers, got %d", len(servers))
		}
	})

	t.Run("with seed", func(t *testing.T) {
		database, err := db.NewSQLiteDB(":memory:")
		if err != nil {
			t.Fatalf("failed to open db: %v", err)
		}
		defer database.Close()

		seed := filepath.Join(t.TempDir(), "seed.sql")
		if err := os.WriteFile(seed, []byte(`INSERT INTO servers (name, host, port) VALUES ('srv1', 'host1', 22);`), 0644); err != nil {
			t.Fatalf("failed to write seed: %v", err)
		}

		if err := migrate(ctx, database, seed, zap.NewNop()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		servers, err := database.ListServers(ctx)
		if err != nil {
			t.Fatalf("failed to list servers: %v", err)
		}
		if len(servers) != 1 || servers[0].Name != "srv1" {
			t.Errorf("unexpected servers %+v", servers)
		}

		// Applied migrations are skipped.
		if err := migrate(ctx, database, "", zap.NewNop()); err != nil {
			t.Errorf("expected second migrate to succeed, got %v", err)
		}
	})

	t.Run("missing seed file", func(t *testing.T) {
		database, err := db.NewSQLiteDB(":memory:")
		if err != nil {
			t.Fatalf("failed to open db: %v", err)
		}
		defer database.Close()

		if err := migrate(ctx, database, filepath.Join(t.TempDir(), "nope.sql"), zap.NewNop()); err == nil {
			t.Error("expected error for missing seed file")
		}
	})
}
