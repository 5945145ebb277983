package models

import (
	"time"

	"github.com/shopspring/decimal"

	"goflare.io/marketplace/models/enum"
)

type Discount struct {
	ID         uint64              `json:"id"`
	StoreID    uint64              `json:"store_id"`
	Percentage decimal.Decimal     `json:"percentage"`
	StartDate  time.Time           `json:"start_date"`
	EndDate    time.Time           `json:"end_date"`
	Status     enum.DiscountStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type PartialDiscount struct {
	ID         uint64
	StoreID    *uint64
	Percentage *decimal.Decimal
	StartDate  *time.Time
	EndDate    *time.Time
	Status     *enum.DiscountStatus
}

// DiscountItem links a discount to one catalog entity.
type DiscountItem struct {
	DiscountID uint64          `json:"discount_id"`
	ItemID     uint64          `json:"item_id"`
	ItemType   enum.EntityType `json:"item_type"`
}

// ActiveDiscount is the discount selected for one item together with the
// number of active discounts that matched it. Candidates > 1 means the data is ambiguous.
type ActiveDiscount struct {
	Discount
	ItemID     uint64 `json:"item_id"`
	Candidates int    `json:"candidates"`
}

func NewDiscount() *Discount {
	return &Discount{}
}

// Covers reports whether the calendar date of asOf falls inside [StartDate, EndDate].
func (d *Discount) Covers(asOf time.Time) bool {
	day := DateOf(asOf)
	return !day.Before(DateOf(d.StartDate)) && !day.After(DateOf(d.EndDate))
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
