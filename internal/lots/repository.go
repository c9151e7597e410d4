package lots

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/pagination"
)

// LotRepository exposes persistence operations used by the lot service.
type LotRepository interface {
	WithTx(tx *gorm.DB) LotRepository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lot, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Lot, error)
	Save(ctx context.Context, lot *models.Lot) error
	CreatePackages(ctx context.Context, packages []models.Package) error
}

// Repository is the gorm-backed LotRepository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a lot repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) LotRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a lot with its derived items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	var lot models.Lot
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&lot, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// List returns lots in keyset order, newest first. Callers pass the buffered
// limit to detect a next page.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Lot, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var lots []models.Lot
	if err := query.Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// Save persists the full lot row.
func (r *Repository) Save(ctx context.Context, lot *models.Lot) error {
	return r.db.WithContext(ctx).Omit("Items").Save(lot).Error
}

// CreatePackages bulk-inserts the packages generated from a lot.
func (r *Repository) CreatePackages(ctx context.Context, packages []models.Package) error {
	if len(packages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&packages).Error
}
