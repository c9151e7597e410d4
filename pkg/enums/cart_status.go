package enums

import "fmt"

// CartStatus tracks a cart through its payment lifecycle. A cart only accepts
// item mutations while it is still a draft; once paid it becomes read-only
// input to lot consolidation.
type CartStatus string

const (
	CartStatusDraft             CartStatus = "draft"
	CartStatusPaid              CartStatus = "paid"
	CartStatusTransferredToLots CartStatus = "transferred_to_lots"
)

var validCartStatuses = []CartStatus{
	CartStatusDraft,
	CartStatusPaid,
	CartStatusTransferredToLots,
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// Rank returns the position of the status in the lifecycle order, or -1 for
// unknown values. Used for display sorting only, never transition validation.
func (c CartStatus) Rank() int {
	for i, candidate := range validCartStatuses {
		if candidate == c {
			return i
		}
	}
	return -1
}

// CanAdvanceTo reports whether next is the immediate forward step from c.
func (c CartStatus) CanAdvanceTo(next CartStatus) bool {
	rank := c.Rank()
	return rank >= 0 && next.Rank() == rank+1
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	for _, candidate := range validCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
