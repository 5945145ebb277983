package enum

type DiscountEventType string

const (
	DiscountEventCreated      DiscountEventType = "created"
	DiscountEventUpdated      DiscountEventType = "updated"
	DiscountEventDeleted      DiscountEventType = "deleted"
	DiscountEventItemLinked   DiscountEventType = "item_linked"
	DiscountEventItemUnlinked DiscountEventType = "item_unlinked"
)
