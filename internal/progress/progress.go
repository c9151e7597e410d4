package progress

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
)

// Totals summarizes a cart. Items whose product no longer resolves are
// excluded from both counts and surfaced via SkippedItems so callers can
// record the gap instead of crashing a read path.
type Totals struct {
	TotalItems   int
	TotalAmount  decimal.Decimal
	SkippedItems int
}

// ItemProgress reports one lot item's attainment against the provider MOQ.
type ItemProgress struct {
	ProductID uuid.UUID
	TotalQty  int
	MOQ       int
	Progress  float64
}

// LotProgressResult aggregates per-item progress into one lot-level ratio.
type LotProgressResult struct {
	Items           []ItemProgress
	OverallProgress float64
}

// BuildProductIndex returns a productID keyed lookup over the slice.
func BuildProductIndex(products []models.Product) map[uuid.UUID]models.Product {
	index := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		index[product.ID] = product
	}
	return index
}

// CartTotals sums quantity and quantity*price across the cart's items.
func CartTotals(cart models.Cart, products []models.Product) Totals {
	index := BuildProductIndex(products)
	totals := Totals{TotalAmount: decimal.Zero}
	for _, item := range cart.Items {
		product, ok := index[item.ProductID]
		if !ok {
			totals.SkippedItems++
			continue
		}
		totals.TotalItems += item.Quantity
		amount := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		totals.TotalAmount = totals.TotalAmount.Add(amount)
	}
	return totals
}

// LotProgress computes each lot item's MOQ attainment ratio and the lot's
// arithmetic mean. A zero or unset provider MOQ yields 0 progress for that
// item rather than dividing by zero.
func LotProgress(lot models.Lot, products []models.Product) LotProgressResult {
	index := BuildProductIndex(products)
	result := LotProgressResult{Items: make([]ItemProgress, 0, len(lot.Items))}

	sum := 0.0
	for _, item := range lot.Items {
		moq := 0
		if product, ok := index[item.ProductID]; ok {
			moq = product.MOQByProvider
		}
		ratio := 0.0
		if moq > 0 {
			ratio = float64(item.TotalQty) / float64(moq)
			if ratio > 1 {
				ratio = 1
			}
		}
		sum += ratio
		result.Items = append(result.Items, ItemProgress{
			ProductID: item.ProductID,
			TotalQty:  item.TotalQty,
			MOQ:       moq,
			Progress:  ratio,
		})
	}

	divisor := len(lot.Items)
	if divisor < 1 {
		divisor = 1
	}
	result.OverallProgress = sum / float64(divisor)
	return result
}

// LotItemMeetsMOQ reports whether the item's total reaches the provider MOQ.
// Missing products never meet MOQ.
func LotItemMeetsMOQ(item models.LotItem, products []models.Product) bool {
	for _, product := range products {
		if product.ID == item.ProductID {
			return item.TotalQty >= product.MOQByProvider
		}
	}
	return false
}

// PackagesByStatus builds a histogram of package counts keyed by status.
func PackagesByStatus(packages []models.Package) map[enums.PackageStatus]int {
	histogram := make(map[enums.PackageStatus]int, len(packages))
	for _, pkg := range packages {
		histogram[pkg.Status]++
	}
	return histogram
}

// ActiveShipments filters shipments currently in transit.
func ActiveShipments(shipments []models.Shipment) []models.Shipment {
	active := make([]models.Shipment, 0)
	for _, shipment := range shipments {
		if shipment.Status == enums.ShipmentStatusInTransit {
			active = append(active, shipment)
		}
	}
	return active
}
