package resolver

import (
	"fmt"

	"goflare.io/marketplace/models/enum"
)

// NotFoundError means the entity does not exist for the requested store.
type NotFoundError struct {
	Type    enum.EntityType
	ID      uint64
	StoreID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found in store %d", e.Type, e.ID, e.StoreID)
}

// DataAccessError wraps a failure of the catalog or discount store.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// DataIntegrityError describes discount data the resolver had to repair on the fly.
// It is logged, never returned to callers.
type DataIntegrityError struct {
	Type       enum.EntityType
	ItemID     uint64
	StoreID    uint64
	DiscountID uint64
	Candidates int
	Reason     string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s %d in store %d: %s (discount %d, %d candidates)",
		e.Type, e.ItemID, e.StoreID, e.Reason, e.DiscountID, e.Candidates)
}
