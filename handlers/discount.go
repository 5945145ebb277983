package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"goflare.io/marketplace"
	"goflare.io/marketplace/models"
	"goflare.io/marketplace/models/enum"
)

type DiscountHandler interface {
	CreateDiscount(c echo.Context) error
	GetDiscount(c echo.Context) error
	UpdateDiscount(c echo.Context) error
	DeleteDiscount(c echo.Context) error
	ListDiscounts(c echo.Context) error
	LinkItem(c echo.Context) error
	UnlinkItem(c echo.Context) error
	ListItems(c echo.Context) error
	ListEvents(c echo.Context) error
}

type discountHandler struct {
	Marketplace marketplace.Marketplace
	Logger      *zap.Logger
}

func NewDiscountHandler(marketplace marketplace.Marketplace, logger *zap.Logger) DiscountHandler {
	return &discountHandler{
		Marketplace: marketplace,
		Logger:      logger,
	}
}

// discountRequest carries dates in YYYY-MM-DD form.
type discountRequest struct {
	StoreID    *uint64              `json:"store_id"`
	Percentage *decimal.Decimal     `json:"percentage"`
	StartDate  *string              `json:"start_date"`
	EndDate    *string              `json:"end_date"`
	Status     *enum.DiscountStatus `json:"status"`
}

func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, *value)
	if err != nil {
		return nil, fmt.Errorf("%s must be formatted as %s", field, models.DateLayout)
	}
	return &t, nil
}

func (r *discountRequest) partial(id uint64) (*models.PartialDiscount, error) {
	startDate, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return nil, err
	}

	return &models.PartialDiscount{
		ID:         id,
		StoreID:    r.StoreID,
		Percentage: r.Percentage,
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     r.Status,
	}, nil
}

type discountItemRequest struct {
	ItemID   uint64 `json:"item_id"`
	ItemType string `json:"item_type"`
}

// CreateDiscount handles POST /stores/:store_id/discounts
func (dh *discountHandler) CreateDiscount(c echo.Context) error {
	var storeID uint64
	if err := echo.PathParamsBinder(c).MustUint64("store_id", &storeID).BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid store_id")
	}

	var req discountRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
	}

	partial, err := req.partial(0)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	discount := models.NewDiscount()
	discount.StoreID = storeID
	if partial.Percentage != nil {
		discount.Percentage = *partial.Percentage
	}
	if partial.StartDate != nil {
		discount.StartDate = *partial.StartDate
	}
	if partial.EndDate != nil {
		discount.EndDate = *partial.EndDate
	}
	if partial.Status != nil {
		discount.Status = *partial.Status
	}

	if err = dh.Marketplace.CreateDiscount(c.Request().Context(), discount); err != nil {
		dh.Logger.Error("Failed to create discount", zap.Error(err), zap.Uint64("store_id", storeID))
		return errorResponse(c, err, "Failed to create discount")
	}

	return c.JSON(http.StatusCreated, discount)
}

// GetDiscount handles GET /discounts/:id
func (dh *discountHandler) GetDiscount(c echo.Context) error {
	var id uint64
	if err := echo.PathParamsBinder(c).MustUint64("id", &id).BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid id")
	}

	discount, err := dh.Marketplace.GetDiscount(c.Request().Context(), id)
	if err != nil {
		dh.Logger.Error("Failed to get discount", zap.Error(err), zap.Uint64("id", id))
		return errorResponse(c, err, "Failed to get discount")
	}

	return c.JSON(http.StatusOK, discount)
}

// UpdateDiscount handles PUT /discounts/:id
func (dh *discountHandler) UpdateDiscount(c echo.Context) error {
	var id uint64
	if err := echo.PathParamsBinder(c).MustUint64("id", &id).BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid id")
	}

	var req discountRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
	}

	partial, err := req.partial(id)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	discount, err := dh.Marketplace.UpdateDiscount(c.Request().Context(), partial)
	if err != nil {
		dh.Logger.Error("Failed to update discount", zap.Error(err), zap.Uint64("id", id))
		return errorResponse(c, err, "Failed to update discount")
	}

	return c.JSON(http.StatusOK, discount)
}

// DeleteDiscount handles DELETE /discounts/:id
func (dh *discountHandler) DeleteDiscount(c echo.Context) error {
	var id uint64
	if err := echo.PathParamsBinder(c).MustUint64("id", &id).BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid id")
	}

	if err := dh.Marketplace.DeleteDiscount(c.Request().Context(), id); err != nil {
		dh.Logger.Error("Failed to delete discount", zap.Error(err), zap.Uint64("id", id))
		return errorResponse(c, err, "Failed to delete discount")
	}

	return c.NoContent(http.StatusNoContent)
}

// ListDiscounts handles GET /stores/:store_id/discounts
func (dh *discountHandler) ListDiscounts(c echo.Context) error {
	var storeID uint64
	if err := echo.PathParamsBinder(c).MustUint64("store_id", &storeID).BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid store_id")
	}

	discounts, err := dh.Marketplace.ListDiscounts(c.Request().Context(), storeID)
	if err != nil {
		dh.Logger.Error("Failed to list discounts", zap.Error(err), zap.Uint64("store_id", storeID))
		return errorResponse(c, err, "Failed to list discounts")
	}

	return c.JSON(http.StatusOK, discounts)
}

// LinkItem handles POST /discounts/:id/items
func (dh *discountHandler) LinkItem(c echo.Context) error {
	var id uint64
	if err := echo.PathParamsBinder(c).MustUint64("id", &id).BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid id")
	}

	var req discountItemRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
	}
	itemType, err := parseKind(req.ItemType)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	item := models.DiscountItem{DiscountID: id, ItemID: req.ItemID, ItemType: itemType}
	if err = dh.Marketplace.LinkDiscountItem(c.Request().Context(), item); err != nil {
		dh.Logger.Error("Failed to link discount item", zap.Error(err), zap.Uint64("id", id))
		return errorResponse(c, err, "Failed to link discount item")
	}

	return c.JSON(http.StatusCreated, item)
}

// UnlinkItem handles DELETE /discounts/:id/items/:kind/:item_id
func (dh *discountHandler) UnlinkItem(c echo.Context) error {
	itemType, err := parseKind(c.Param("kind"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	var id, itemID uint64
	if err = echo.PathParamsBinder(c).
		MustUint64("id", &id).
		MustUint64("item_id", &itemID).
		BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid path parameters")
	}

	item := models.DiscountItem{DiscountID: id, ItemID: itemID, ItemType: itemType}
	if err = dh.Marketplace.UnlinkDiscountItem(c.Request().Context(), item); err != nil {
		dh.Logger.Error("Failed to unlink discount item", zap.Error(err), zap.Uint64("id", id))
		return errorResponse(c, err, "Failed to unlink discount item")
	}

	return c.NoContent(http.StatusNoContent)
}

// ListItems handles GET /discounts/:id/items
func (dh *discountHandler) ListItems(c echo.Context) error {
	var id uint64
	if err := echo.PathParamsBinder(c).MustUint64("id", &id).BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid id")
	}

	items, err := dh.Marketplace.ListDiscountItems(c.Request().Context(), id)
	if err != nil {
		dh.Logger.Error("Failed to list discount items", zap.Error(err), zap.Uint64("id", id))
		return errorResponse(c, err, "Failed to list discount items")
	}

	return c.JSON(http.StatusOK, items)
}

// ListEvents handles GET /discounts/:id/events?limit=
func (dh *discountHandler) ListEvents(c echo.Context) error {
	var id, limit uint64
	if err := echo.PathParamsBinder(c).MustUint64("id", &id).BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid id")
	}
	if err := echo.QueryParamsBinder(c).Uint64("limit", &limit).BindError(); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid limit")
	}

	events, err := dh.Marketplace.ListDiscountEvents(c.Request().Context(), id, limit)
	if err != nil {
		dh.Logger.Error("Failed to list discount events", zap.Error(err), zap.Uint64("id", id))
		return errorResponse(c, err, "Failed to list discount events")
	}

	return c.JSON(http.StatusOK, events)
}
