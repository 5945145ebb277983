package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"goflare.io/marketplace"
	"goflare.io/marketplace/config"
	"goflare.io/marketplace/event"
	"goflare.io/marketplace/server"
)

type Application struct {
	Config      *config.Config
	Server      *server.Server
	Marketplace marketplace.Marketplace
	Events      event.Service
	Logger      *zap.Logger
}

func NewApplication(
	appConfig *config.Config,
	server *server.Server,
	marketplace marketplace.Marketplace,
	events event.Service,
	logger *zap.Logger,
) *Application {
	return &Application{
		Config:      appConfig,
		Server:      server,
		Marketplace: marketplace,
		Events:      events,
		Logger:      logger,
	}
}

func main() {

	app, err := InitializeApplication()
	if err != nil {
		log.Fatal(err)
		return
	}
	defer app.Marketplace.Close()
	defer func() { _ = app.Logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err = app.Events.RepublishPending(ctx); err != nil {
		app.Logger.Warn("Failed to republish pending discount events", zap.Error(err))
	}
	cancel()

	app.Logger.Info("Starting marketplace server", zap.String("address", app.Config.Server.Address))
	if err = app.Server.Run(app.Config.Server.Address); err != nil {
		app.Logger.Error("Server shutdown failed", zap.Error(err))
	}
}
