package types

import "github.com/google/uuid"

// Contribution records a single user's share of a consolidated lot item.
// Contributions from multiple carts of the same user are merged into one
// entry during rebuilds.
type Contribution struct {
	UserID   uuid.UUID `json:"user_id"`
	Quantity int       `json:"quantity"`
}

// Contributions is persisted as a jsonb column on lot items.
type Contributions []Contribution

// TotalQuantity sums the quantities across all entries.
func (c Contributions) TotalQuantity() int {
	total := 0
	for _, entry := range c {
		total += entry.Quantity
	}
	return total
}

// QuantityFor returns the merged quantity contributed by the given user.
func (c Contributions) QuantityFor(userID uuid.UUID) int {
	for _, entry := range c {
		if entry.UserID == userID {
			return entry.Quantity
		}
	}
	return 0
}
