package main

import (
	"context"
	"fmt"

	mongoMigration "roomsync/internal/migrations/mongo"
	"roomsync/pkg/config"

	"github.com/spf13/cobra"
)

// runMigrate talks to mongo directly with the service's environment rather
// than going through the HTTP API.
func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg := config.Load("roomctl")
	if !cfg.UsesMongo() {
		return fmt.Errorf("store backend is %q, migrations only apply to mongo", cfg.StoreBackend)
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied to", cfg.MongoDatabaseName)
	return nil
}
