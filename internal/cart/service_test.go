package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/internal/consolidation"
	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox"
)

type stubRepo struct {
	carts map[uuid.UUID]*models.Cart
}

func newStubRepo(carts ...*models.Cart) *stubRepo {
	repo := &stubRepo{carts: map[uuid.UUID]*models.Cart{}}
	for _, cart := range carts {
		repo.carts[cart.ID] = cart
	}
	return repo
}

func (s *stubRepo) WithTx(_ *gorm.DB) CartRepository { return s }

func (s *stubRepo) Create(_ context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	s.carts[cart.ID] = cart
	return cart, nil
}

func (s *stubRepo) Save(_ context.Context, cart *models.Cart) error {
	s.carts[cart.ID] = cart
	return nil
}

func (s *stubRepo) FindByIDAndUser(_ context.Context, id, userID uuid.UUID) (*models.Cart, error) {
	cart, ok := s.carts[id]
	if !ok || cart.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *cart
	return &copied, nil
}

func (s *stubRepo) FindDraftByUser(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	for _, cart := range s.carts {
		if cart.UserID == userID && cart.Status == enums.CartStatusDraft {
			copied := *cart
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindItem(_ context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	cart, ok := s.carts[cartID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, item := range cart.Items {
		if item.ProductID == productID {
			copied := item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) SaveItem(_ context.Context, item *models.CartItem) error {
	cart := s.carts[item.CartID]
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity = item.Quantity
			return nil
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cart.Items = append(cart.Items, *item)
	return nil
}

func (s *stubRepo) DeleteItem(_ context.Context, cartID, productID uuid.UUID) error {
	cart := s.carts[cartID]
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubPublisher) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubProducts struct {
	byID map[uuid.UUID]models.Product
}

func (s *stubProducts) FindProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &product, nil
}

func (s *stubProducts) FindProductsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if product, ok := s.byID[id]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

type stubRebuilder struct {
	calls    int
	triggers []string
}

func (s *stubRebuilder) RebuildLots(_ context.Context, trigger string) (*consolidation.Result, error) {
	s.calls++
	s.triggers = append(s.triggers, trigger)
	return &consolidation.Result{}, nil
}

type testHarness struct {
	svc       Service
	repo      *stubRepo
	publisher *stubPublisher
	rebuilder *stubRebuilder
}

func newHarness(t *testing.T, rebuildOnSplit bool, products map[uuid.UUID]models.Product, carts ...*models.Cart) *testHarness {
	t.Helper()
	repo := newStubRepo(carts...)
	publisher := &stubPublisher{}
	rebuilder := &stubRebuilder{}
	svc, err := NewService(repo, stubTxRunner{}, &stubProducts{byID: products}, publisher, rebuilder, rebuildOnSplit, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &testHarness{svc: svc, repo: repo, publisher: publisher, rebuilder: rebuilder}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func testProduct(providerID uuid.UUID, fraction, customerMOQ int) models.Product {
	return models.Product{
		ID:                 uuid.New(),
		Name:               "bulk rice 25kg",
		ProviderID:         providerID,
		MinFractionPerUser: fraction,
		CustomerMOQ:        customerMOQ,
		IsActive:           true,
	}
}

func TestSetItemQuantityAddsLine(t *testing.T) {
	userID := uuid.New()
	product := testProduct(uuid.New(), 5, 5)
	cart := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusDraft}
	h := newHarness(t, false, map[uuid.UUID]models.Product{product.ID: product}, cart)

	updated, err := h.svc.SetItemQuantity(context.Background(), userID, SetItemInput{
		CartID: cart.ID, ProductID: product.ID, Quantity: 15,
	})
	if err != nil {
		t.Fatalf("SetItemQuantity: %v", err)
	}
	if len(updated.Items) != 1 || updated.Items[0].Quantity != 15 {
		t.Fatalf("unexpected items: %+v", updated.Items)
	}
}

func TestSetItemQuantityRejectsFractionViolation(t *testing.T) {
	userID := uuid.New()
	product := testProduct(uuid.New(), 5, 5)
	cart := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusDraft}
	h := newHarness(t, false, map[uuid.UUID]models.Product{product.ID: product}, cart)

	_, err := h.svc.SetItemQuantity(context.Background(), userID, SetItemInput{
		CartID: cart.ID, ProductID: product.ID, Quantity: 7,
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestSetItemQuantityRejectsBelowCustomerMinimum(t *testing.T) {
	userID := uuid.New()
	product := testProduct(uuid.New(), 5, 20)
	cart := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusDraft}
	h := newHarness(t, false, map[uuid.UUID]models.Product{product.ID: product}, cart)

	_, err := h.svc.SetItemQuantity(context.Background(), userID, SetItemInput{
		CartID: cart.ID, ProductID: product.ID, Quantity: 15,
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestSetItemQuantityZeroRemovesLine(t *testing.T) {
	userID := uuid.New()
	product := testProduct(uuid.New(), 1, 1)
	cart := &models.Cart{
		ID: uuid.New(), UserID: userID, Status: enums.CartStatusDraft,
		Items: []models.CartItem{{ID: uuid.New(), ProductID: product.ID, Quantity: 4}},
	}
	cart.Items[0].CartID = cart.ID
	h := newHarness(t, false, map[uuid.UUID]models.Product{product.ID: product}, cart)

	updated, err := h.svc.SetItemQuantity(context.Background(), userID, SetItemInput{
		CartID: cart.ID, ProductID: product.ID, Quantity: 0,
	})
	if err != nil {
		t.Fatalf("SetItemQuantity: %v", err)
	}
	if len(updated.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", updated.Items)
	}
}

func TestSetItemQuantityOnPaidCart(t *testing.T) {
	userID := uuid.New()
	product := testProduct(uuid.New(), 1, 1)
	cart := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusPaid}
	h := newHarness(t, false, map[uuid.UUID]models.Product{product.ID: product}, cart)

	_, err := h.svc.SetItemQuantity(context.Background(), userID, SetItemInput{
		CartID: cart.ID, ProductID: product.ID, Quantity: 2,
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestPayStampsAndEmits(t *testing.T) {
	userID := uuid.New()
	cart := &models.Cart{
		ID: uuid.New(), UserID: userID, Status: enums.CartStatusDraft,
		Items: []models.CartItem{{ID: uuid.New(), ProductID: uuid.New(), Quantity: 2}},
	}
	h := newHarness(t, false, nil, cart)

	paid, err := h.svc.Pay(context.Background(), userID, cart.ID)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if paid.Status != enums.CartStatusPaid {
		t.Fatalf("status = %s, want %s", paid.Status, enums.CartStatusPaid)
	}
	if paid.PaidAt == nil {
		t.Fatal("expected PaidAt to be stamped")
	}
	if len(h.publisher.events) != 1 || h.publisher.events[0].EventType != enums.EventCartPaid {
		t.Fatalf("unexpected events: %+v", h.publisher.events)
	}
}

func TestPayEmptyCart(t *testing.T) {
	userID := uuid.New()
	cart := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusDraft}
	h := newHarness(t, false, nil, cart)

	_, err := h.svc.Pay(context.Background(), userID, cart.ID)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestPayTwice(t *testing.T) {
	userID := uuid.New()
	cart := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusPaid}
	h := newHarness(t, false, nil, cart)

	_, err := h.svc.Pay(context.Background(), userID, cart.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSplitToLotsTriggersRebuild(t *testing.T) {
	userID := uuid.New()
	cart := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusPaid}
	h := newHarness(t, true, nil, cart)

	split, err := h.svc.SplitToLots(context.Background(), userID, cart.ID)
	if err != nil {
		t.Fatalf("SplitToLots: %v", err)
	}
	if split.Status != enums.CartStatusTransferredToLots {
		t.Fatalf("status = %s, want %s", split.Status, enums.CartStatusTransferredToLots)
	}
	if len(h.publisher.events) != 1 || h.publisher.events[0].EventType != enums.EventCartTransferred {
		t.Fatalf("unexpected events: %+v", h.publisher.events)
	}
	if h.rebuilder.calls != 1 || h.rebuilder.triggers[0] != consolidation.TriggerSplit {
		t.Fatalf("unexpected rebuild calls: %+v", h.rebuilder.triggers)
	}
}

func TestSplitToLotsRebuildDisabled(t *testing.T) {
	userID := uuid.New()
	cart := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusPaid}
	h := newHarness(t, false, nil, cart)

	if _, err := h.svc.SplitToLots(context.Background(), userID, cart.ID); err != nil {
		t.Fatalf("SplitToLots: %v", err)
	}
	if h.rebuilder.calls != 0 {
		t.Fatalf("expected no rebuild, got %d", h.rebuilder.calls)
	}
}

func TestSplitToLotsFromDraft(t *testing.T) {
	userID := uuid.New()
	cart := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusDraft}
	h := newHarness(t, true, nil, cart)

	_, err := h.svc.SplitToLots(context.Background(), userID, cart.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestForeignCartIsNotFound(t *testing.T) {
	cart := &models.Cart{ID: uuid.New(), UserID: uuid.New(), Status: enums.CartStatusDraft}
	h := newHarness(t, false, nil, cart)

	_, err := h.svc.GetCart(context.Background(), uuid.New(), cart.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)
}
