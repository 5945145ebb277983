package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"goflare.io/marketplace/models/enum"
)

const DateLayout = "2006-01-02"

// DiscountFields are the JSON keys added to an entity when a discount applies.
var DiscountFields = []string{
	"discount_id",
	"percentage",
	"discount_price",
	"discount_start_date",
	"discount_end_date",
}

// DiscountInfo is the discount applied to an entity.
type DiscountInfo struct {
	DiscountID    uint64
	Percentage    decimal.Decimal
	DiscountPrice decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
}

// EnrichedEntity wraps a catalog entity together with its discount.
// Discount is nil when no active discount applies.
type EnrichedEntity struct {
	Entity   Entity
	Discount *DiscountInfo
}

func (e *EnrichedEntity) HasDiscount() bool {
	return e.Discount != nil
}

func (e *EnrichedEntity) Type() enum.EntityType {
	return e.Entity.EntityType()
}

// Strip returns the entity without any discount information.
func (e *EnrichedEntity) Strip() Entity {
	return e.Entity
}

// MarshalJSON flattens the entity and, only when a discount applies, the five
// discount fields into one object.
func (e EnrichedEntity) MarshalJSON() ([]byte, error) {
	if e.Entity == nil {
		return nil, fmt.Errorf("enriched entity has no entity")
	}

	raw, err := json.Marshal(e.Entity)
	if err != nil {
		return nil, err
	}
	if e.Discount == nil {
		return raw, nil
	}

	fields := make(map[string]json.RawMessage)
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	extra := map[string]any{
		"discount_id":         e.Discount.DiscountID,
		"percentage":          e.Discount.Percentage,
		"discount_price":      e.Discount.DiscountPrice,
		"discount_start_date": e.Discount.StartDate.Format(DateLayout),
		"discount_end_date":   e.Discount.EndDate.Format(DateLayout),
	}
	for k, v := range extra {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[k] = b
	}

	return json.Marshal(fields)
}
