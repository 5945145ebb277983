package enum

import "fmt"

// EntityType is the catalog entity kind stored in discount_items.item_type.
type EntityType string

const (
	EntityTypeFoodItem    EntityType = "food_item"
	EntityTypeSide        EntityType = "side"
	EntityTypePack        EntityType = "pack"
	EntityTypeSectionItem EntityType = "food_section_item"
)

var entityTypes = []EntityType{
	EntityTypeFoodItem,
	EntityTypeSide,
	EntityTypePack,
	EntityTypeSectionItem,
}

// EntityTypes returns every catalog entity type in a stable order.
func EntityTypes() []EntityType {
	out := make([]EntityType, len(entityTypes))
	copy(out, entityTypes)
	return out
}

func (t EntityType) Valid() bool {
	for _, et := range entityTypes {
		if et == t {
			return true
		}
	}
	return false
}

func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}
