package enums

import "fmt"

// PackageStatus tracks a physical package from creation until delivery.
type PackageStatus string

const (
	PackageStatusCreated        PackageStatus = "created"
	PackageStatusReadyForPickup PackageStatus = "ready_for_pickup"
	PackageStatusInTransit      PackageStatus = "in_transit"
	PackageStatusDelivered      PackageStatus = "delivered"
)

var validPackageStatuses = []PackageStatus{
	PackageStatusCreated,
	PackageStatusReadyForPickup,
	PackageStatusInTransit,
	PackageStatusDelivered,
}

// String implements fmt.Stringer.
func (p PackageStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PackageStatus.
func (p PackageStatus) IsValid() bool {
	for _, candidate := range validPackageStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// Rank returns the position of the status in the lifecycle order, or -1 for
// unknown values.
func (p PackageStatus) Rank() int {
	for i, candidate := range validPackageStatuses {
		if candidate == p {
			return i
		}
	}
	return -1
}

// CanAdvanceTo reports whether next is the immediate forward step from p.
func (p PackageStatus) CanAdvanceTo(next PackageStatus) bool {
	rank := p.Rank()
	return rank >= 0 && next.Rank() == rank+1
}

// ParsePackageStatus converts raw input into a PackageStatus.
func ParsePackageStatus(value string) (PackageStatus, error) {
	for _, candidate := range validPackageStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid package status %q", value)
}
