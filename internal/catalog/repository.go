package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/internal/repo"
	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
)

// Repository exposes read paths over the product/provider reference data.
// Products are immutable during a purchase cycle, so there is no update
// surface here beyond seeding.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// CreateProduct persists a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// CreateProvider persists a new provider row.
func (r *Repository) CreateProvider(ctx context.Context, provider *models.Provider) (*models.Provider, error) {
	if err := r.DB(ctx).Create(provider).Error; err != nil {
		return nil, err
	}
	return provider, nil
}

// FindProductByID loads one product without associations.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductsByIDs loads the products for the given ids. Missing ids are
// simply absent from the result; callers decide how to treat the gap.
func (r *Repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.DB(ctx).
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ListActiveProducts returns all purchasable products ordered by name.
func (r *Repository) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ListProductsByProvider returns the provider's products ordered by name.
func (r *Repository) ListProductsByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Where("provider_id = ?", providerID).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindProviderByID loads one provider.
func (r *Repository) FindProviderByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	var provider models.Provider
	if err := r.DB(ctx).First(&provider, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// ListProviders returns all providers ordered by name.
func (r *Repository) ListProviders(ctx context.Context) ([]models.Provider, error) {
	var providers []models.Provider
	err := r.DB(ctx).
		Order("name ASC").
		Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}
