package models

import (
	"time"

	"goflare.io/marketplace/models/enum"
)

// DiscountEvent announces a change that may alter which discount applies to the listed items.
type DiscountEvent struct {
	ID         uint64                 `json:"id"`
	Type       enum.DiscountEventType `json:"type"`
	DiscountID uint64                 `json:"discount_id"`
	StoreIDs   []uint64               `json:"store_ids"`
	Items      []DiscountItem         `json:"items"`
	Published  bool                   `json:"published"`
	OccurredAt time.Time              `json:"occurred_at"`
}
