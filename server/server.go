package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"goflare.io/marketplace/handlers"
)

type Server struct {
	echo     *echo.Echo
	Catalog  handlers.CatalogHandler
	Discount handlers.DiscountHandler
	Health   handlers.HealthHandler
	logger   *zap.Logger
}

func NewServer(
	Catalog handlers.CatalogHandler,
	Discount handlers.DiscountHandler,
	Health handlers.HealthHandler,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true

	s := &Server{
		echo:     e,
		Catalog:  Catalog,
		Discount: Discount,
		Health:   Health,
		logger:   logger,
	}
	s.registerMiddlewares()
	s.registerRoutes()
	return s
}

// Start starts listening for connections on the provided address.
func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Run starts the server in a goroutine and blocks until SIGINT or SIGTERM,
// then shuts down with a 5 second timeout.
func (s *Server) Run(address string) error {

	go func() {
		if err := s.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be driven by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) registerMiddlewares() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				s.logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			s.logger.Info("request", fields...)
			return nil
		},
	}))
}

func (s *Server) registerRoutes() {

	s.echo.GET("/healthz", s.Health.Healthz)

	stores := s.echo.Group("/stores/:store_id")
	stores.POST("/discounts", s.Discount.CreateDiscount)
	stores.GET("/discounts", s.Discount.ListDiscounts)
	stores.GET("/:kind", s.Catalog.ListEntities)
	stores.GET("/:kind/:id", s.Catalog.GetEntity)

	discounts := s.echo.Group("/discounts")
	discounts.GET("/:id", s.Discount.GetDiscount)
	discounts.PUT("/:id", s.Discount.UpdateDiscount)
	discounts.DELETE("/:id", s.Discount.DeleteDiscount)
	discounts.GET("/:id/items", s.Discount.ListItems)
	discounts.GET("/:id/events", s.Discount.ListEvents)
	discounts.POST("/:id/items", s.Discount.LinkItem)
	discounts.DELETE("/:id/items/:kind/:item_id", s.Discount.UnlinkItem)
}
