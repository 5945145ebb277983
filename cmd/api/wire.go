//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"goflare.io/marketplace"
	"goflare.io/marketplace/catalog"
	"goflare.io/marketplace/config"
	"goflare.io/marketplace/discount"
	"goflare.io/marketplace/driver"
	"goflare.io/marketplace/event"
	"goflare.io/marketplace/handlers"
	"goflare.io/marketplace/resolver"
	"goflare.io/marketplace/server"
)

func InitializeApplication() (*Application, error) {

	wire.Build(
		config.ProvideApplicationConfig,
		config.NewLogger,
		config.ProvidePostgresConn,
		config.ProvideRedis,
		config.ProvideEmber,
		config.ProvideIgnite,
		config.ProvideNats,
		driver.NewTransactionManager,
		catalog.NewRepository,
		catalog.NewService,
		discount.NewRepository,
		marketplace.ProvideDispatcher,
		marketplace.ProvideEventManager,
		event.NewRepository,
		wire.Bind(new(event.Publisher), new(*marketplace.EventManager)),
		event.NewService,
		wire.Bind(new(discount.Publisher), new(event.Service)),
		discount.NewService,
		resolver.NewService,
		marketplace.NewMarketplace,
		handlers.NewCatalogHandler,
		handlers.NewDiscountHandler,
		handlers.NewHealthHandler,
		server.NewServer,
		NewApplication,
	)

	return &Application{}, nil
}
