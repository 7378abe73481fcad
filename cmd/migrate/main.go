package main

import (
	"context"
	"time"

	mongoMigration "deskbook/internal/migrations/mongo"
	"deskbook/pkg/config"
)

const (
	jobName        = "mongo-migration"
	migrateTimeout = 120 * time.Second
)

func main() {
	cfg := config.Load(jobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	cfg.Log.Info("Starting Mongo migration job", "database", cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed")
}
