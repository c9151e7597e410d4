package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
)

// CartPaidEvent is emitted when a buyer pays their draft cart.
type CartPaidEvent struct {
	CartID uuid.UUID `json:"cart_id"`
	UserID uuid.UUID `json:"user_id"`
	PaidAt time.Time `json:"paid_at"`
}

// CartTransferredEvent signals the cart's items were handed to consolidation.
type CartTransferredEvent struct {
	CartID uuid.UUID `json:"cart_id"`
	UserID uuid.UUID `json:"user_id"`
}

// LotRebuiltEvent surfaces the outcome of a consolidation pass for one provider lot.
type LotRebuiltEvent struct {
	LotID          uuid.UUID `json:"lot_id"`
	ProviderID     uuid.UUID `json:"provider_id"`
	ItemCount      int       `json:"item_count"`
	TotalQuantity  int       `json:"total_quantity"`
	ConsolidatedAt time.Time `json:"consolidated_at"`
}

// LotStateChangedEvent is emitted whenever a lot advances through its lifecycle.
type LotStateChangedEvent struct {
	LotID      uuid.UUID       `json:"lot_id"`
	ProviderID uuid.UUID       `json:"provider_id"`
	From       enums.LotStatus `json:"from"`
	To         enums.LotStatus `json:"to"`
}

// PackagesGeneratedEvent reports the packages created from a confirmed lot.
type PackagesGeneratedEvent struct {
	LotID      uuid.UUID   `json:"lot_id"`
	ProviderID uuid.UUID   `json:"provider_id"`
	PackageIDs []uuid.UUID `json:"package_ids"`
}

// PackageStateChangedEvent is emitted whenever a package advances through its lifecycle.
type PackageStateChangedEvent struct {
	PackageID uuid.UUID           `json:"package_id"`
	LotID     uuid.UUID           `json:"lot_id"`
	From      enums.PackageStatus `json:"from"`
	To        enums.PackageStatus `json:"to"`
}

// ShipmentAssembledEvent signals a carrier shipment was built from ready packages.
type ShipmentAssembledEvent struct {
	ShipmentID  uuid.UUID   `json:"shipment_id"`
	CarrierName string      `json:"carrier_name"`
	PackageIDs  []uuid.UUID `json:"package_ids"`
	ETA         *time.Time  `json:"eta,omitempty"`
}

// ShipmentStateChangedEvent is emitted whenever a shipment advances through its lifecycle.
type ShipmentStateChangedEvent struct {
	ShipmentID uuid.UUID            `json:"shipment_id"`
	From       enums.ShipmentStatus `json:"from"`
	To         enums.ShipmentStatus `json:"to"`
}
