package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"goflare.io/marketplace/catalog"
	"goflare.io/marketplace/discount"
	"goflare.io/marketplace/models/enum"
	"goflare.io/marketplace/resolver"
)

// kinds maps URL path segments onto catalog entity types.
var kinds = map[string]enum.EntityType{
	"food-items":    enum.EntityTypeFoodItem,
	"sides":         enum.EntityTypeSide,
	"packs":         enum.EntityTypePack,
	"section-items": enum.EntityTypeSectionItem,
}

// parseKind accepts both the URL form ("food-items") and the stored form ("food_item").
func parseKind(kind string) (enum.EntityType, error) {
	if t, ok := kinds[kind]; ok {
		return t, nil
	}
	return enum.ParseEntityType(kind)
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

// statusOf maps service errors onto HTTP status codes. A store failure is a 500
// even when the error it wraps is a not-found sentinel.
func statusOf(err error) int {
	var (
		notFound   *resolver.NotFoundError
		dataAccess *resolver.DataAccessError
	)
	switch {
	case errors.As(err, &dataAccess):
		return http.StatusInternalServerError
	case errors.As(err, &notFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, discount.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, discount.ErrInvalidDiscount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c echo.Context, err error, fallback string) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		return errorJSON(c, status, fallback)
	}
	return errorJSON(c, status, err.Error())
}
