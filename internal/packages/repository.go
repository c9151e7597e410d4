package packages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
)

// PackageRepository exposes persistence operations used by the package service.
type PackageRepository interface {
	WithTx(tx *gorm.DB) PackageRepository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Package, error)
	List(ctx context.Context) ([]models.Package, error)
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Package, error)
	Save(ctx context.Context, pkg *models.Package) error
}

// Repository is the gorm-backed PackageRepository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a package repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) PackageRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads one package.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	var pkg models.Package
	if err := r.db.WithContext(ctx).First(&pkg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

// List returns every package, oldest first. Used by status dashboards.
func (r *Repository) List(ctx context.Context) ([]models.Package, error) {
	var packages []models.Package
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

// ListByLot returns the packages cut from one lot.
func (r *Repository) ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Package, error) {
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

// Save persists the full package row.
func (r *Repository) Save(ctx context.Context, pkg *models.Package) error {
	return r.db.WithContext(ctx).Save(pkg).Error
}
