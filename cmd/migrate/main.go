package main

import (
	"context"
	_ "embed"
	"flag"
	"time"

	"go.uber.org/zap"

	"goflare.io/marketplace/config"
	"goflare.io/marketplace/driver"
)

var (
	//go:embed schema.sql
	schemaSQL string

	//go:embed drop.sql
	dropSQL string
)

func main() {
	drop := flag.Bool("drop", false, "Drop all tables before migration")
	flag.Parse()

	logger := config.NewLogger()
	defer func() { _ = logger.Sync() }()

	appConfig, err := config.ProvideApplicationConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := driver.ConnectSQL(appConfig.Postgres.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err = migrate(ctx, db.Pool, *drop); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	logger.Info("Database migration completed successfully", zap.Bool("drop", *drop))
}
