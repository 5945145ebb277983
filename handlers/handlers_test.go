package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/marketplace"
	"goflare.io/marketplace/catalog"
	"goflare.io/marketplace/discount"
	"goflare.io/marketplace/models"
	"goflare.io/marketplace/models/enum"
	"goflare.io/marketplace/resolver"
)

type fakeMarketplace struct {
	marketplace.Marketplace

	entity    *models.EnrichedEntity
	entities  []*models.EnrichedEntity
	discounts []*models.Discount
	err       error
	pingErr   error

	gotType    enum.EntityType
	gotID      uint64
	gotStoreID uint64
	gotLimit   uint64
	gotOffset  uint64
	created    *models.Discount
	updated    *models.PartialDiscount
	deleted    uint64
	linked     models.DiscountItem
	unlinked   models.DiscountItem
}

func (f *fakeMarketplace) GetEntity(_ context.Context, t enum.EntityType, id, storeID uint64) (*models.EnrichedEntity, error) {
	f.gotType, f.gotID, f.gotStoreID = t, id, storeID
	return f.entity, f.err
}

func (f *fakeMarketplace) ListEntities(_ context.Context, t enum.EntityType, storeID, limit, offset uint64) ([]*models.EnrichedEntity, error) {
	f.gotType, f.gotStoreID, f.gotLimit, f.gotOffset = t, storeID, limit, offset
	return f.entities, f.err
}

func (f *fakeMarketplace) CreateDiscount(_ context.Context, d *models.Discount) error {
	if f.err != nil {
		return f.err
	}
	d.ID = 3
	f.created = d
	return nil
}

func (f *fakeMarketplace) GetDiscount(_ context.Context, id uint64) (*models.Discount, error) {
	f.gotID = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.Discount{ID: id, StoreID: 12}, nil
}

func (f *fakeMarketplace) UpdateDiscount(_ context.Context, p *models.PartialDiscount) (*models.Discount, error) {
	f.updated = p
	if f.err != nil {
		return nil, f.err
	}
	return &models.Discount{ID: p.ID}, nil
}

func (f *fakeMarketplace) DeleteDiscount(_ context.Context, id uint64) error {
	f.deleted = id
	return f.err
}

func (f *fakeMarketplace) ListDiscounts(_ context.Context, storeID uint64) ([]*models.Discount, error) {
	f.gotStoreID = storeID
	return f.discounts, f.err
}

func (f *fakeMarketplace) LinkDiscountItem(_ context.Context, item models.DiscountItem) error {
	f.linked = item
	return f.err
}

func (f *fakeMarketplace) UnlinkDiscountItem(_ context.Context, item models.DiscountItem) error {
	f.unlinked = item
	return f.err
}

func (f *fakeMarketplace) ListDiscountItems(_ context.Context, id uint64) ([]models.DiscountItem, error) {
	f.gotID = id
	return []models.DiscountItem{{DiscountID: id, ItemID: 7, ItemType: enum.EntityTypeFoodItem}}, f.err
}

func (f *fakeMarketplace) ListDiscountEvents(_ context.Context, id, limit uint64) ([]*models.DiscountEvent, error) {
	f.gotID, f.gotLimit = id, limit
	return []*models.DiscountEvent{{ID: 1, Type: enum.DiscountEventCreated, DiscountID: id, Published: true}}, f.err
}

func (f *fakeMarketplace) Ping(context.Context) error {
	return f.pingErr
}

func newTestEcho(m marketplace.Marketplace) *echo.Echo {
	logger := zap.NewNop()
	catalogHandler := NewCatalogHandler(m, logger)
	discountHandler := NewDiscountHandler(m, logger)
	healthHandler := NewHealthHandler(m, logger)

	e := echo.New()
	e.GET("/healthz", healthHandler.Healthz)
	e.POST("/stores/:store_id/discounts", discountHandler.CreateDiscount)
	e.GET("/stores/:store_id/discounts", discountHandler.ListDiscounts)
	e.GET("/stores/:store_id/:kind", catalogHandler.ListEntities)
	e.GET("/stores/:store_id/:kind/:id", catalogHandler.GetEntity)
	e.GET("/discounts/:id", discountHandler.GetDiscount)
	e.PUT("/discounts/:id", discountHandler.UpdateDiscount)
	e.DELETE("/discounts/:id", discountHandler.DeleteDiscount)
	e.GET("/discounts/:id/items", discountHandler.ListItems)
	e.GET("/discounts/:id/events", discountHandler.ListEvents)
	e.POST("/discounts/:id/items", discountHandler.LinkItem)
	e.DELETE("/discounts/:id/items/:kind/:item_id", discountHandler.UnlinkItem)
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func foodItem() *models.FoodItem {
	return &models.FoodItem{
		CatalogItem: models.CatalogItem{
			ID:        7,
			StoreID:   12,
			Name:      "Jollof Rice",
			Price:     decimal.RequireFromString("52.99"),
			Available: true,
		},
	}
}

func TestGetEntityWithDiscount(t *testing.T) {
	m := &fakeMarketplace{entity: &models.EnrichedEntity{
		Entity: foodItem(),
		Discount: &models.DiscountInfo{
			DiscountID:    3,
			Percentage:    decimal.NewFromInt(10),
			DiscountPrice: decimal.RequireFromString("47.69"),
			StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}}

	rec := serve(newTestEcho(m), http.MethodGet, "/stores/12/food-items/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enum.EntityTypeFoodItem, m.gotType)
	assert.Equal(t, uint64(7), m.gotID)
	assert.Equal(t, uint64(12), m.gotStoreID)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["discount_id"])
	assert.Equal(t, "47.69", body["discount_price"])
	assert.Equal(t, "2025-01-01", body["discount_start_date"])
	assert.Equal(t, "2025-12-31", body["discount_end_date"])
}

func TestGetEntityWithoutDiscountOmitsFields(t *testing.T) {
	m := &fakeMarketplace{entity: &models.EnrichedEntity{Entity: foodItem()}}

	rec := serve(newTestEcho(m), http.MethodGet, "/stores/12/food-items/7", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, field := range models.DiscountFields {
		assert.NotContains(t, body, field)
	}
}

func TestGetEntityErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{"unknown kind", "/stores/12/drinks/7", nil, http.StatusNotFound},
		{"bad id", "/stores/12/sides/abc", nil, http.StatusBadRequest},
		{"not found", "/stores/12/sides/7", &resolver.NotFoundError{Type: enum.EntityTypeSide, ID: 7, StoreID: 12}, http.StatusNotFound},
		{"data access", "/stores/12/sides/7", &resolver.DataAccessError{Op: "find active discount", Err: errors.New("boom")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMarketplace{err: tt.err}
			rec := serve(newTestEcho(m), http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestDataAccessErrorDoesNotLeakDetails(t *testing.T) {
	m := &fakeMarketplace{err: &resolver.DataAccessError{Op: "get entity", Err: errors.New("password authentication failed")}}

	rec := serve(newTestEcho(m), http.MethodGet, "/stores/12/packs/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestListEntities(t *testing.T) {
	m := &fakeMarketplace{entities: []*models.EnrichedEntity{{Entity: foodItem()}}}

	rec := serve(newTestEcho(m), http.MethodGet, "/stores/12/section-items?limit=5&offset=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enum.EntityTypeSectionItem, m.gotType)
	assert.Equal(t, uint64(5), m.gotLimit)
	assert.Equal(t, uint64(10), m.gotOffset)

	rec = serve(newTestEcho(m), http.MethodGet, "/stores/12/packs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDiscount(t *testing.T) {
	m := &fakeMarketplace{}

	rec := serve(newTestEcho(m), http.MethodPost, "/stores/12/discounts",
		`{"percentage":"10","start_date":"2025-01-01","end_date":"2025-12-31"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, m.created)
	assert.Equal(t, uint64(12), m.created.StoreID)
	assert.True(t, m.created.Percentage.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), m.created.EndDate)
}

func TestCreateDiscountBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{"malformed json", `{"percentage":`, nil},
		{"bad date", `{"percentage":"10","start_date":"01/01/2025","end_date":"2025-12-31"}`, nil},
		{"rejected by validation", `{"percentage":"120","start_date":"2025-01-01","end_date":"2025-12-31"}`, discount.ErrInvalidDiscount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMarketplace{err: tt.err}
			rec := serve(newTestEcho(m), http.MethodPost, "/stores/12/discounts", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateDiscountPartial(t *testing.T) {
	m := &fakeMarketplace{}

	rec := serve(newTestEcho(m), http.MethodPut, "/discounts/3", `{"status":"inactive"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, m.updated)
	assert.Equal(t, uint64(3), m.updated.ID)
	require.NotNil(t, m.updated.Status)
	assert.Equal(t, enum.DiscountStatusInactive, *m.updated.Status)
	assert.Nil(t, m.updated.Percentage)
	assert.Nil(t, m.updated.StartDate)
}

func TestDiscountNotFound(t *testing.T) {
	m := &fakeMarketplace{err: discount.ErrNotFound}
	e := newTestEcho(m)

	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/discounts/9", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodDelete, "/discounts/9", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodPut, "/discounts/9", `{}`).Code)
}

func TestDeleteDiscount(t *testing.T) {
	m := &fakeMarketplace{}

	rec := serve(newTestEcho(m), http.MethodDelete, "/discounts/3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint64(3), m.deleted)
}

func TestListDiscounts(t *testing.T) {
	m := &fakeMarketplace{discounts: []*models.Discount{{ID: 3, StoreID: 12}}}

	rec := serve(newTestEcho(m), http.MethodGet, "/stores/12/discounts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(12), m.gotStoreID)

	var body []models.Discount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, uint64(3), body[0].ID)
}

func TestLinkAndUnlinkItems(t *testing.T) {
	m := &fakeMarketplace{}
	e := newTestEcho(m)

	rec := serve(e, http.MethodPost, "/discounts/3/items", `{"item_id":7,"item_type":"food-items"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.DiscountItem{DiscountID: 3, ItemID: 7, ItemType: enum.EntityTypeFoodItem}, m.linked)

	rec = serve(e, http.MethodPost, "/discounts/3/items", `{"item_id":7,"item_type":"drink"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodDelete, "/discounts/3/items/food_section_item/4", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.DiscountItem{DiscountID: 3, ItemID: 4, ItemType: enum.EntityTypeSectionItem}, m.unlinked)

	rec = serve(e, http.MethodGet, "/discounts/3/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(3), m.gotID)
}

func TestListEvents(t *testing.T) {
	m := &fakeMarketplace{}

	rec := serve(newTestEcho(m), http.MethodGet, "/discounts/3/events?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(3), m.gotID)
	assert.Equal(t, uint64(10), m.gotLimit)
	assert.Contains(t, rec.Body.String(), `"type":"created"`)
}

func TestHealthz(t *testing.T) {
	rec := serve(newTestEcho(&fakeMarketplace{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newTestEcho(&fakeMarketplace{pingErr: errors.New("redis: connection refused")}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusOf(catalog.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, statusOf(&resolver.NotFoundError{}))
	assert.Equal(t, http.StatusBadRequest, statusOf(discount.ErrInvalidDiscount))
	assert.Equal(t, http.StatusInternalServerError, statusOf(&resolver.DataAccessError{Op: "list entities", Err: catalog.ErrNotFound}))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("boom")))
}
