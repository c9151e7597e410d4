package enums

import "fmt"

// ShipmentStatus tracks a shipment from assembly to closure. A shipment may
// carry packages from several lots and providers.
type ShipmentStatus string

const (
	ShipmentStatusAssembling ShipmentStatus = "assembling"
	ShipmentStatusInTransit  ShipmentStatus = "in_transit"
	ShipmentStatusArrived    ShipmentStatus = "arrived"
	ShipmentStatusClosed     ShipmentStatus = "closed"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusAssembling,
	ShipmentStatusInTransit,
	ShipmentStatusArrived,
	ShipmentStatusClosed,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Rank returns the position of the status in the lifecycle order, or -1 for
// unknown values.
func (s ShipmentStatus) Rank() int {
	for i, candidate := range validShipmentStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// CanAdvanceTo reports whether next is the immediate forward step from s.
func (s ShipmentStatus) CanAdvanceTo(next ShipmentStatus) bool {
	rank := s.Rank()
	return rank >= 0 && next.Rank() == rank+1
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
