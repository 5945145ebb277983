package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"goflare.io/marketplace"
)

type CatalogHandler interface {
	GetEntity(c echo.Context) error
	ListEntities(c echo.Context) error
}

type catalogHandler struct {
	Marketplace marketplace.Marketplace
	Logger      *zap.Logger
}

func NewCatalogHandler(marketplace marketplace.Marketplace, logger *zap.Logger) CatalogHandler {
	return &catalogHandler{
		Marketplace: marketplace,
		Logger:      logger,
	}
}

// GetEntity handles GET /stores/:store_id/:kind/:id
func (ch *catalogHandler) GetEntity(c echo.Context) error {
	entityType, err := parseKind(c.Param("kind"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, err.Error())
	}

	var storeID, id uint64
	if err = echo.PathParamsBinder(c).
		MustUint64("store_id", &storeID).
		MustUint64("id", &id).
		BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid path parameters")
	}

	entity, err := ch.Marketplace.GetEntity(c.Request().Context(), entityType, id, storeID)
	if err != nil {
		ch.Logger.Error("Failed to get entity",
			zap.Error(err),
			zap.String("type", string(entityType)),
			zap.Uint64("id", id),
			zap.Uint64("store_id", storeID))
		return errorResponse(c, err, "Failed to get entity")
	}

	return c.JSON(http.StatusOK, entity)
}

// ListEntities handles GET /stores/:store_id/:kind?limit=&offset=
func (ch *catalogHandler) ListEntities(c echo.Context) error {
	entityType, err := parseKind(c.Param("kind"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, err.Error())
	}

	var storeID, limit, offset uint64
	if err = echo.PathParamsBinder(c).MustUint64("store_id", &storeID).BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid store_id")
	}
	if err = echo.QueryParamsBinder(c).
		Uint64("limit", &limit).
		Uint64("offset", &offset).
		BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid limit or offset")
	}

	entities, err := ch.Marketplace.ListEntities(c.Request().Context(), entityType, storeID, limit, offset)
	if err != nil {
		ch.Logger.Error("Failed to list entities",
			zap.Error(err),
			zap.String("type", string(entityType)),
			zap.Uint64("store_id", storeID))
		return errorResponse(c, err, "Failed to list entities")
	}

	return c.JSON(http.StatusOK, entities)
}
