package trace

import (
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
)

// PackageTrace is one package attached to the item's lot, together with the
// status of the shipment carrying it, when one exists.
type PackageTrace struct {
	Status   enums.PackageStatus   `json:"status"`
	Shipment *enums.ShipmentStatus `json:"shipment,omitempty"`
}

// LotTrace is the slice of the lot graph relevant to a single cart item.
type LotTrace struct {
	Status   enums.LotStatus `json:"status"`
	Packages []PackageTrace  `json:"packages,omitempty"`
}

// ItemTrace is the input to the stage resolver. A nil Lot means the item has
// not entered consolidation.
type ItemTrace struct {
	Lot *LotTrace `json:"lot,omitempty"`
}

// StageForItem derives the unified traceability stage for one cart item.
// Evaluation is top-down; the first matching rule wins and represents the
// most advanced state known for the item. Nothing is stored: callers must
// recompute from the current graph on every read.
func StageForItem(trace ItemTrace) enums.ItemStage {
	if trace.Lot == nil {
		return enums.ItemStageInCart
	}

	lot := trace.Lot
	for _, pkg := range lot.Packages {
		if pkg.Status == enums.PackageStatusDelivered {
			return enums.ItemStageDelivered
		}
		if pkg.Shipment != nil && (*pkg.Shipment == enums.ShipmentStatusArrived || *pkg.Shipment == enums.ShipmentStatusClosed) {
			return enums.ItemStageDelivered
		}
	}

	for _, pkg := range lot.Packages {
		if pkg.Status == enums.PackageStatusInTransit {
			return enums.ItemStageInTransit
		}
		if pkg.Shipment != nil && *pkg.Shipment == enums.ShipmentStatusInTransit {
			return enums.ItemStageInTransit
		}
	}

	if lot.Status == enums.LotStatusPackaged {
		return enums.ItemStagePackaged
	}
	for _, pkg := range lot.Packages {
		if pkg.Status == enums.PackageStatusCreated || pkg.Status == enums.PackageStatusReadyForPickup {
			return enums.ItemStagePackaged
		}
	}

	switch lot.Status {
	case enums.LotStatusConfirmedByProvider:
		return enums.ItemStageConfirmed
	case enums.LotStatusOrderSent:
		return enums.ItemStageOrderSent
	}

	return enums.ItemStageLotPending
}
