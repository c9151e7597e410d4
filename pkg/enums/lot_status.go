package enums

import "fmt"

// LotStatus tracks the ordering cycle of a provider-scoped lot. Progression is
// strictly forward; rebuilds preserve the current status.
type LotStatus string

const (
	LotStatusPending             LotStatus = "pending"
	LotStatusReadyToOrder        LotStatus = "ready_to_order"
	LotStatusOrderSent           LotStatus = "order_sent"
	LotStatusConfirmedByProvider LotStatus = "confirmed_by_provider"
	LotStatusPackaged            LotStatus = "packaged"
)

var validLotStatuses = []LotStatus{
	LotStatusPending,
	LotStatusReadyToOrder,
	LotStatusOrderSent,
	LotStatusConfirmedByProvider,
	LotStatusPackaged,
}

// String implements fmt.Stringer.
func (l LotStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LotStatus.
func (l LotStatus) IsValid() bool {
	for _, candidate := range validLotStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// Rank returns the position of the status in the lifecycle order, or -1 for
// unknown values.
func (l LotStatus) Rank() int {
	for i, candidate := range validLotStatuses {
		if candidate == l {
			return i
		}
	}
	return -1
}

// CanAdvanceTo reports whether next is the immediate forward step from l.
func (l LotStatus) CanAdvanceTo(next LotStatus) bool {
	rank := l.Rank()
	return rank >= 0 && next.Rank() == rank+1
}

// ParseLotStatus converts raw input into a LotStatus.
func ParseLotStatus(value string) (LotStatus, error) {
	for _, candidate := range validLotStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lot status %q", value)
}
