package enum

type DiscountStatus string

const (
	DiscountStatusActive   DiscountStatus = "active"
	DiscountStatusInactive DiscountStatus = "inactive"
)

func (s DiscountStatus) Valid() bool {
	return s == DiscountStatusActive || s == DiscountStatusInactive
}
