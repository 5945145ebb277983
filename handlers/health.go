package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"goflare.io/marketplace"
)

type HealthHandler interface {
	Healthz(c echo.Context) error
}

type healthHandler struct {
	Marketplace marketplace.Marketplace
	Logger      *zap.Logger
}

func NewHealthHandler(marketplace marketplace.Marketplace, logger *zap.Logger) HealthHandler {
	return &healthHandler{
		Marketplace: marketplace,
		Logger:      logger,
	}
}

// Healthz handles GET /healthz
func (hh *healthHandler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := hh.Marketplace.Ping(ctx); err != nil {
		hh.Logger.Warn("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
