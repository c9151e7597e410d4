package trace

import (
	"testing"

	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
)

func shipment(status enums.ShipmentStatus) *enums.ShipmentStatus {
	return &status
}

func TestStageNoLot(t *testing.T) {
	if got := StageForItem(ItemTrace{}); got != enums.ItemStageInCart {
		t.Fatalf("expected in_cart, got %s", got)
	}
}

func TestStagePendingLotNoPackages(t *testing.T) {
	trace := ItemTrace{Lot: &LotTrace{Status: enums.LotStatusPending}}
	if got := StageForItem(trace); got != enums.ItemStageLotPending {
		t.Fatalf("expected lot_pending, got %s", got)
	}
}

func TestStageDeliveredPackageWinsOverLotStatus(t *testing.T) {
	trace := ItemTrace{Lot: &LotTrace{
		Status: enums.LotStatusPending,
		Packages: []PackageTrace{
			{Status: enums.PackageStatusDelivered},
		},
	}}
	if got := StageForItem(trace); got != enums.ItemStageDelivered {
		t.Fatalf("expected delivered, got %s", got)
	}
}

func TestStageArrivedShipmentMeansDelivered(t *testing.T) {
	for _, status := range []enums.ShipmentStatus{enums.ShipmentStatusArrived, enums.ShipmentStatusClosed} {
		trace := ItemTrace{Lot: &LotTrace{
			Status: enums.LotStatusPackaged,
			Packages: []PackageTrace{
				{Status: enums.PackageStatusReadyForPickup, Shipment: shipment(status)},
			},
		}}
		if got := StageForItem(trace); got != enums.ItemStageDelivered {
			t.Fatalf("shipment %s: expected delivered, got %s", status, got)
		}
	}
}

func TestStageInTransit(t *testing.T) {
	byPackage := ItemTrace{Lot: &LotTrace{
		Status: enums.LotStatusPackaged,
		Packages: []PackageTrace{
			{Status: enums.PackageStatusInTransit},
		},
	}}
	if got := StageForItem(byPackage); got != enums.ItemStageInTransit {
		t.Fatalf("expected in_transit via package, got %s", got)
	}

	byShipment := ItemTrace{Lot: &LotTrace{
		Status: enums.LotStatusPackaged,
		Packages: []PackageTrace{
			{Status: enums.PackageStatusReadyForPickup, Shipment: shipment(enums.ShipmentStatusInTransit)},
		},
	}}
	if got := StageForItem(byShipment); got != enums.ItemStageInTransit {
		t.Fatalf("expected in_transit via shipment, got %s", got)
	}
}

func TestStagePackaged(t *testing.T) {
	byLot := ItemTrace{Lot: &LotTrace{Status: enums.LotStatusPackaged}}
	if got := StageForItem(byLot); got != enums.ItemStagePackaged {
		t.Fatalf("expected packaged via lot status, got %s", got)
	}

	byPackage := ItemTrace{Lot: &LotTrace{
		Status: enums.LotStatusConfirmedByProvider,
		Packages: []PackageTrace{
			{Status: enums.PackageStatusCreated},
		},
	}}
	if got := StageForItem(byPackage); got != enums.ItemStagePackaged {
		t.Fatalf("expected packaged via package status, got %s", got)
	}
}

func TestStageConfirmedAndOrderSent(t *testing.T) {
	confirmed := ItemTrace{Lot: &LotTrace{Status: enums.LotStatusConfirmedByProvider}}
	if got := StageForItem(confirmed); got != enums.ItemStageConfirmed {
		t.Fatalf("expected confirmed, got %s", got)
	}

	sent := ItemTrace{Lot: &LotTrace{Status: enums.LotStatusOrderSent}}
	if got := StageForItem(sent); got != enums.ItemStageOrderSent {
		t.Fatalf("expected order_sent, got %s", got)
	}
}

func TestStagePureFunction(t *testing.T) {
	trace := ItemTrace{Lot: &LotTrace{
		Status: enums.LotStatusReadyToOrder,
		Packages: []PackageTrace{
			{Status: enums.PackageStatusReadyForPickup, Shipment: shipment(enums.ShipmentStatusAssembling)},
		},
	}}

	first := StageForItem(trace)
	second := StageForItem(trace)
	if first != second {
		t.Fatalf("expected identical stage for identical input, got %s vs %s", first, second)
	}
	if first != enums.ItemStagePackaged {
		t.Fatalf("expected packaged, got %s", first)
	}
}
