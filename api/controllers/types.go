package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cocomarket/bulkbuy-backend/internal/progress"
	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
)

// CartItemDTO is the wire shape of one cart line.
type CartItemDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartDTO is the wire shape of a cart with its items.
type CartDTO struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Status    enums.CartStatus `json:"status"`
	PaidAt    *time.Time       `json:"paid_at,omitempty"`
	Items     []CartItemDTO    `json:"items"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// CartTotalsDTO reports the aggregate over a cart's priced lines.
type CartTotalsDTO struct {
	TotalItems   int             `json:"total_items"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	SkippedItems int             `json:"skipped_items"`
}

// LotItemDTO is the wire shape of one derived lot line.
type LotItemDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	TotalQty  int       `json:"total_qty"`
}

// LotDTO is the wire shape of a lot with its derived items.
type LotDTO struct {
	ID             uuid.UUID       `json:"id"`
	ProviderID     uuid.UUID       `json:"provider_id"`
	Status         enums.LotStatus `json:"status"`
	ScheduledAt    time.Time       `json:"scheduled_at"`
	ConsolidatedAt *time.Time      `json:"consolidated_at,omitempty"`
	OrderSentAt    *time.Time      `json:"order_sent_at,omitempty"`
	ConfirmedAt    *time.Time      `json:"confirmed_at,omitempty"`
	Items          []LotItemDTO    `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LotListDTO is one page of lots plus the cursor for the next one. An empty
// cursor means the listing is exhausted.
type LotListDTO struct {
	Lots       []LotDTO `json:"lots"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// LotItemProgressDTO reports one lot item's attainment against the provider
// minimum.
type LotItemProgressDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	TotalQty  int       `json:"total_qty"`
	MOQ       int       `json:"moq"`
	Progress  float64   `json:"progress"`
}

// LotProgressDTO aggregates per-item progress into one lot-level ratio.
type LotProgressDTO struct {
	Items           []LotItemProgressDTO `json:"items"`
	OverallProgress float64              `json:"overall_progress"`
}

// PackageDTO is the wire shape of one package.
type PackageDTO struct {
	ID        uuid.UUID           `json:"id"`
	LotID     uuid.UUID           `json:"lot_id"`
	Status    enums.PackageStatus `json:"status"`
	WeightKg  float64             `json:"weight_kg"`
	VolumeM3  float64             `json:"volume_m3"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ShipmentDTO is the wire shape of a shipment with its package links.
type ShipmentDTO struct {
	ID          uuid.UUID            `json:"id"`
	CarrierName string               `json:"carrier_name"`
	Status      enums.ShipmentStatus `json:"status"`
	ETA         *time.Time           `json:"eta,omitempty"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	ArrivedAt   *time.Time           `json:"arrived_at,omitempty"`
	PackageIDs  []uuid.UUID          `json:"package_ids"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func toCartDTO(cart models.Cart) CartDTO {
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return CartDTO{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Status:    cart.Status,
		PaidAt:    cart.PaidAt,
		Items:     items,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func toCartTotalsDTO(totals progress.Totals) CartTotalsDTO {
	return CartTotalsDTO{
		TotalItems:   totals.TotalItems,
		TotalAmount:  totals.TotalAmount,
		SkippedItems: totals.SkippedItems,
	}
}

func toLotDTO(lot models.Lot) LotDTO {
	items := make([]LotItemDTO, 0, len(lot.Items))
	for _, item := range lot.Items {
		items = append(items, LotItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			TotalQty:  item.TotalQty,
		})
	}
	return LotDTO{
		ID:             lot.ID,
		ProviderID:     lot.ProviderID,
		Status:         lot.Status,
		ScheduledAt:    lot.ScheduledAt,
		ConsolidatedAt: lot.ConsolidatedAt,
		OrderSentAt:    lot.OrderSentAt,
		ConfirmedAt:    lot.ConfirmedAt,
		Items:          items,
		CreatedAt:      lot.CreatedAt,
		UpdatedAt:      lot.UpdatedAt,
	}
}

func toLotDTOs(lots []models.Lot) []LotDTO {
	out := make([]LotDTO, 0, len(lots))
	for _, lot := range lots {
		out = append(out, toLotDTO(lot))
	}
	return out
}

func toLotProgressDTO(result progress.LotProgressResult) LotProgressDTO {
	items := make([]LotItemProgressDTO, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, LotItemProgressDTO{
			ProductID: item.ProductID,
			TotalQty:  item.TotalQty,
			MOQ:       item.MOQ,
			Progress:  item.Progress,
		})
	}
	return LotProgressDTO{Items: items, OverallProgress: result.OverallProgress}
}

func toPackageDTO(pkg models.Package) PackageDTO {
	return PackageDTO{
		ID:        pkg.ID,
		LotID:     pkg.LotID,
		Status:    pkg.Status,
		WeightKg:  pkg.WeightKg,
		VolumeM3:  pkg.VolumeM3,
		CreatedAt: pkg.CreatedAt,
		UpdatedAt: pkg.UpdatedAt,
	}
}

func toPackageDTOs(pkgs []models.Package) []PackageDTO {
	out := make([]PackageDTO, 0, len(pkgs))
	for _, pkg := range pkgs {
		out = append(out, toPackageDTO(pkg))
	}
	return out
}

func toShipmentDTO(shipment models.Shipment) ShipmentDTO {
	packageIDs := make([]uuid.UUID, 0, len(shipment.Packages))
	for _, link := range shipment.Packages {
		packageIDs = append(packageIDs, link.PackageID)
	}
	return ShipmentDTO{
		ID:          shipment.ID,
		CarrierName: shipment.CarrierName,
		Status:      shipment.Status,
		ETA:         shipment.ETA,
		StartedAt:   shipment.StartedAt,
		ArrivedAt:   shipment.ArrivedAt,
		PackageIDs:  packageIDs,
		CreatedAt:   shipment.CreatedAt,
		UpdatedAt:   shipment.UpdatedAt,
	}
}

func toShipmentDTOs(shipments []models.Shipment) []ShipmentDTO {
	out := make([]ShipmentDTO, 0, len(shipments))
	for _, shipment := range shipments {
		out = append(out, toShipmentDTO(shipment))
	}
	return out
}
