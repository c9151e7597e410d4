package trace

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
)

// Repository reads the lot/package/shipment graph for trace assembly.
type Repository interface {
	FindCartItem(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	FindCart(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	FindLotByProduct(ctx context.Context, productID uuid.UUID) (*models.Lot, error)
	ListPackagesByLot(ctx context.Context, lotID uuid.UUID) ([]models.Package, error)
	FindShipmentForPackage(ctx context.Context, packageID uuid.UUID) (*models.Shipment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a trace repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindCartItem(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindLotByProduct resolves the open lot whose derived items include the
// product. Returns nil when the product is in no lot.
func (r *repository) FindLotByProduct(ctx context.Context, productID uuid.UUID) (*models.Lot, error) {
	var lot models.Lot
	err := r.db.WithContext(ctx).
		Joins("JOIN lot_items ON lot_items.lot_id = lots.id").
		Where("lot_items.product_id = ?", productID).
		Order("lots.created_at DESC").
		First(&lot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

func (r *repository) ListPackagesByLot(ctx context.Context, lotID uuid.UUID) ([]models.Package, error) {
	var packages []models.Package
	err := r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("created_at ASC").
		Find(&packages).Error
	if err != nil {
		return nil, err
	}
	return packages, nil
}

// FindShipmentForPackage returns nil when the package is not in a shipment.
func (r *repository) FindShipmentForPackage(ctx context.Context, packageID uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).
		Joins("JOIN shipment_packages ON shipment_packages.shipment_id = shipments.id").
		Where("shipment_packages.package_id = ?", packageID).
		First(&shipment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}
