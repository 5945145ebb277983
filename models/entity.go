package models

import (
	"time"

	"github.com/shopspring/decimal"

	"goflare.io/marketplace/models/enum"
)

// Entity is a sellable catalog unit belonging to a store.
// FoodItem, Side, Pack and SectionItem implement it.
type Entity interface {
	EntityType() enum.EntityType
	EntityID() uint64
	EntityStoreID() uint64
	BasePrice() decimal.Decimal
}

var (
	_ Entity = (*FoodItem)(nil)
	_ Entity = (*Side)(nil)
	_ Entity = (*Pack)(nil)
	_ Entity = (*SectionItem)(nil)
)

// CatalogItem holds the columns every catalog table shares.
type CatalogItem struct {
	ID        uint64          `json:"id"`
	StoreID   uint64          `json:"store_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (c *CatalogItem) EntityID() uint64 {
	return c.ID
}

func (c *CatalogItem) EntityStoreID() uint64 {
	return c.StoreID
}

func (c *CatalogItem) BasePrice() decimal.Decimal {
	return c.Price
}

type FoodItem struct {
	CatalogItem
	Description string  `json:"description"`
	CategoryID  *uint64 `json:"category_id"`
	Image       string  `json:"image"`
}

func (*FoodItem) EntityType() enum.EntityType {
	return enum.EntityTypeFoodItem
}

type Side struct {
	CatalogItem
}

func (*Side) EntityType() enum.EntityType {
	return enum.EntityTypeSide
}

type Pack struct {
	CatalogItem
	Description string `json:"description"`
}

func (*Pack) EntityType() enum.EntityType {
	return enum.EntityTypePack
}

// SectionItem is an option inside a food section; its store is the store of the owning section.
type SectionItem struct {
	CatalogItem
	SectionID uint64 `json:"section_id"`
}

func (*SectionItem) EntityType() enum.EntityType {
	return enum.EntityTypeSectionItem
}
