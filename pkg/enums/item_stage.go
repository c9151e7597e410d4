package enums

import "fmt"

// ItemStage is the unified traceability stage of a single cart item, derived
// at read time from its lot, package, and shipment records. It is never
// stored; the underlying entities move independently.
type ItemStage string

const (
	ItemStageInCart     ItemStage = "in_cart"
	ItemStageLotPending ItemStage = "lot_pending"
	ItemStageOrderSent  ItemStage = "order_sent"
	ItemStageConfirmed  ItemStage = "confirmed"
	ItemStagePackaged   ItemStage = "packaged"
	ItemStageInTransit  ItemStage = "in_transit"
	ItemStageDelivered  ItemStage = "delivered"
)

var validItemStages = []ItemStage{
	ItemStageInCart,
	ItemStageLotPending,
	ItemStageOrderSent,
	ItemStageConfirmed,
	ItemStagePackaged,
	ItemStageInTransit,
	ItemStageDelivered,
}

// String implements fmt.Stringer.
func (s ItemStage) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStage.
func (s ItemStage) IsValid() bool {
	for _, candidate := range validItemStages {
		if candidate == s {
			return true
		}
	}
	return false
}

// Rank returns the position of the stage in the lifecycle order, or -1 for
// unknown values.
func (s ItemStage) Rank() int {
	for i, candidate := range validItemStages {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ParseItemStage converts raw input into an ItemStage.
func ParseItemStage(value string) (ItemStage, error) {
	for _, candidate := range validItemStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item stage %q", value)
}
