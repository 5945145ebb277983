package resolver

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DiscountedPrice returns base - base*percentage/100 rounded half away from zero to 2 places.
func DiscountedPrice(base, percentage decimal.Decimal) decimal.Decimal {
	off := base.Mul(percentage).Div(hundred)
	return base.Sub(off).Round(2)
}
