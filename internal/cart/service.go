package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/internal/consolidation"
	"github.com/cocomarket/bulkbuy-backend/internal/progress"
	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox/payloads"
)

// Service exposes cart lifecycle operations. A cart accepts item changes only
// while draft; paying freezes it and splitting hands it to consolidation.
type Service interface {
	CreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetCart(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error)
	SetItemQuantity(ctx context.Context, userID uuid.UUID, input SetItemInput) (*models.Cart, error)
	Totals(ctx context.Context, userID, cartID uuid.UUID) (*progress.Totals, error)
	Pay(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error)
	SplitToLots(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error)
}

// SetItemInput carries one quantity change. Quantity at or below zero removes
// the line.
type SetItemInput struct {
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

type service struct {
	repo           CartRepository
	tx             txRunner
	products       productLoader
	publisher      outboxPublisher
	rebuilder      lotRebuilder
	rebuildOnSplit bool
	logg           *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, publisher outboxPublisher, rebuilder lotRebuilder, rebuildOnSplit bool, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if rebuilder == nil {
		return nil, fmt.Errorf("lot rebuilder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:           repo,
		tx:             tx,
		products:       products,
		publisher:      publisher,
		rebuilder:      rebuilder,
		rebuildOnSplit: rebuildOnSplit,
		logg:           logg,
	}, nil
}

// CreateCart returns the user's draft cart, creating one when none exists.
func (s *service) CreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	existing, err := s.repo.FindDraftByUser(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load draft cart")
	}

	cart := &models.Cart{UserID: userID, Status: enums.CartStatusDraft}
	created, err := s.repo.Create(ctx, cart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return created, nil
}

// GetActiveCart returns the user's draft cart, or not-found.
func (s *service) GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindDraftByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load draft cart")
	}
	return cart, nil
}

// GetCart returns any cart owned by the user, regardless of status.
func (s *service) GetCart(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error) {
	return s.loadOwnedCart(ctx, userID, cartID)
}

// SetItemQuantity adds, updates or removes one cart line. Only draft carts
// accept changes.
func (s *service) SetItemQuantity(ctx context.Context, userID uuid.UUID, input SetItemInput) (*models.Cart, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	cart, err := s.loadOwnedCart(ctx, userID, input.CartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != enums.CartStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft carts accept item changes")
	}

	if input.Quantity <= 0 {
		if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).DeleteItem(ctx, cart.ID, input.ProductID)
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
		}
		return s.loadOwnedCart(ctx, userID, cart.ID)
	}

	product, err := s.products.FindProductByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if err := validateQuantity(input.Quantity, product); err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		item, err := txRepo.FindItem(ctx, cart.ID, input.ProductID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if item == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			item = &models.CartItem{CartID: cart.ID, ProductID: input.ProductID}
		}
		item.Quantity = input.Quantity
		return txRepo.SaveItem(ctx, item)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart item")
	}

	return s.loadOwnedCart(ctx, userID, cart.ID)
}

// Totals computes the display totals of a cart, silently excluding items
// whose product no longer resolves. Skips are logged so stale references stay
// observable.
func (s *service) Totals(ctx context.Context, userID, cartID uuid.UUID) (*progress.Totals, error) {
	cart, err := s.loadOwnedCart(ctx, userID, cartID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	totals := progress.CartTotals(*cart, products)
	if totals.SkippedItems > 0 {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"cart_id":       cart.ID.String(),
			"skipped_items": totals.SkippedItems,
		}), "cart totals skipped items with missing products")
	}
	return &totals, nil
}

// Pay freezes the draft cart and records the payment time.
func (s *service) Pay(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.loadOwnedCart(ctx, userID, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.Status.CanAdvanceTo(enums.CartStatusPaid) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart cannot be paid from its current status")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no items")
	}

	now := time.Now().UTC()
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart.Status = enums.CartStatusPaid
		cart.PaidAt = &now
		if err := s.repo.WithTx(tx).Save(ctx, cart); err != nil {
			return err
		}
		return s.publisher.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartPaid,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: "buyer"},
			Data:          payloads.CartPaidEvent{CartID: cart.ID, UserID: userID, PaidAt: now},
			Version:       1,
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "pay cart")
	}

	s.logg.Info(s.logg.WithField(ctx, "cart_id", cart.ID.String()), "cart paid")
	return cart, nil
}

// SplitToLots hands the paid cart to consolidation and, when enabled,
// triggers a lot rebuild right away. A failed rebuild does not undo the
// transfer: the rebuild can be replayed manually at any time.
func (s *service) SplitToLots(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.loadOwnedCart(ctx, userID, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.Status.CanAdvanceTo(enums.CartStatusTransferredToLots) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart must be paid before splitting to lots")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart.Status = enums.CartStatusTransferredToLots
		if err := s.repo.WithTx(tx).Save(ctx, cart); err != nil {
			return err
		}
		return s.publisher.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartTransferred,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: "buyer"},
			Data:          payloads.CartTransferredEvent{CartID: cart.ID, UserID: userID},
			Version:       1,
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transfer cart to lots")
	}

	if s.rebuildOnSplit {
		if _, err := s.rebuilder.RebuildLots(ctx, consolidation.TriggerSplit); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "cart_id", cart.ID.String()), "lot rebuild after cart split failed", err)
		}
	}

	s.logg.Info(s.logg.WithField(ctx, "cart_id", cart.ID.String()), "cart transferred to lots")
	return cart, nil
}

func (s *service) loadOwnedCart(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}

	cart, err := s.repo.FindByIDAndUser(ctx, cartID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func validateQuantity(qty int, product *models.Product) error {
	fraction := product.MinFractionPerUser
	if fraction <= 0 {
		fraction = 1
	}
	if qty%fraction != 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a multiple of the product's minimum fraction")
	}
	if qty < product.CustomerMOQ {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity is below the product's customer minimum")
	}
	return nil
}
