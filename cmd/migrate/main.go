package main

import (
	"context"
	"os"
	"time"

	mongoMigration "campusbook/internal/migrations/mongo"
	"campusbook/pkg/config"
)

const (
	JobName = "mongo-migration"
	timeout = 2 * time.Minute
)

func main() {
	cfg := config.Load(JobName)
	cfg.SetMongo()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log)
	cancel()
	cfg.GracefulShutdown()

	if err != nil {
		cfg.Log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	cfg.Log.Info("migration completed", "database", cfg.MongoDatabaseName)
}
