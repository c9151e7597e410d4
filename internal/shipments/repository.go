package shipments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
)

// ShipmentRepository exposes persistence operations used by the shipment
// service.
type ShipmentRepository interface {
	WithTx(tx *gorm.DB) ShipmentRepository
	Create(ctx context.Context, shipment *models.Shipment, packageIDs []uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	List(ctx context.Context) ([]models.Shipment, error)
	Save(ctx context.Context, shipment *models.Shipment) error
	FindPackagesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Package, error)
}

// Repository is the gorm-backed ShipmentRepository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shipment repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ShipmentRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the shipment and its package links. The unique index on
// package_id rejects packages already carried by another shipment.
func (r *Repository) Create(ctx context.Context, shipment *models.Shipment, packageIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Omit("Packages").Create(shipment).Error; err != nil {
		return err
	}
	links := make([]models.ShipmentPackage, 0, len(packageIDs))
	for _, packageID := range packageIDs {
		links = append(links, models.ShipmentPackage{
			ID:         uuid.New(),
			ShipmentID: shipment.ID,
			PackageID:  packageID,
		})
	}
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&links).Error
}

// FindByID loads a shipment with its package links.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).
		Preload("Packages").
		First(&shipment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// List returns every shipment, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Shipment, error) {
	var shipments []models.Shipment
	err := r.db.WithContext(ctx).
		Preload("Packages").
		Order("created_at DESC").
		Find(&shipments).Error
	if err != nil {
		return nil, err
	}
	return shipments, nil
}

// Save persists the full shipment row.
func (r *Repository) Save(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Omit("Packages").Save(shipment).Error
}

// FindPackagesByIDs resolves the candidate packages for assembly.
func (r *Repository) FindPackagesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Package, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var packages []models.Package
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}
