package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCart     OutboxAggregateType = "cart"
	AggregateLot      OutboxAggregateType = "lot"
	AggregatePackage  OutboxAggregateType = "package"
	AggregateShipment OutboxAggregateType = "shipment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCart,
	AggregateLot,
	AggregatePackage,
	AggregateShipment,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventCartPaid             OutboxEventType = "cart_paid"
	EventCartTransferred      OutboxEventType = "cart_transferred"
	EventLotRebuilt           OutboxEventType = "lot_rebuilt"
	EventLotStateChanged      OutboxEventType = "lot_state_changed"
	EventPackagesGenerated    OutboxEventType = "packages_generated"
	EventPackageStateChanged  OutboxEventType = "package_state_changed"
	EventShipmentAssembled    OutboxEventType = "shipment_assembled"
	EventShipmentStateChanged OutboxEventType = "shipment_state_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventCartPaid,
	EventCartTransferred,
	EventLotRebuilt,
	EventLotStateChanged,
	EventPackagesGenerated,
	EventPackageStateChanged,
	EventShipmentAssembled,
	EventShipmentStateChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason maps to the outbox_dlq_error_reason enum in Postgres.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)
