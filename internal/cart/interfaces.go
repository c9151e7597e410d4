package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/internal/consolidation"
	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox"
)

// CartRepository exposes persistence operations used by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Cart, error)
	FindDraftByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productLoader interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type lotRebuilder interface {
	RebuildLots(ctx context.Context, trigger string) (*consolidation.Result, error)
}
