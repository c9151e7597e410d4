package lots

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
	"github.com/cocomarket/bulkbuy-backend/pkg/metrics"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox"
	"github.com/cocomarket/bulkbuy-backend/pkg/pagination"
)

type stubRepo struct {
	lots     map[uuid.UUID]*models.Lot
	packages []models.Package
}

func newStubRepo(lots ...*models.Lot) *stubRepo {
	repo := &stubRepo{lots: map[uuid.UUID]*models.Lot{}}
	for _, lot := range lots {
		repo.lots[lot.ID] = lot
	}
	return repo
}

func (s *stubRepo) WithTx(_ *gorm.DB) LotRepository { return s }

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Lot, error) {
	lot, ok := s.lots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *lot
	return &copied, nil
}

func (s *stubRepo) List(_ context.Context, _ *pagination.Cursor, limit int) ([]models.Lot, error) {
	var out []models.Lot
	for _, lot := range s.lots {
		out = append(out, *lot)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubRepo) Save(_ context.Context, lot *models.Lot) error {
	copied := *lot
	s.lots[lot.ID] = &copied
	return nil
}

func (s *stubRepo) CreatePackages(_ context.Context, packages []models.Package) error {
	s.packages = append(s.packages, packages...)
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
	products []models.Product
}

func (s *stubProducts) FindProductsByIDs(_ context.Context, _ []uuid.UUID) ([]models.Product, error) {
	return s.products, nil
}

type testHarness struct {
	svc       Service
	repo      *stubRepo
	publisher *stubPublisher
}

func newHarness(t *testing.T, products []models.Product, lots ...*models.Lot) *testHarness {
	t.Helper()
	repo := newStubRepo(lots...)
	publisher := &stubPublisher{}
	svc, err := NewService(repo, &stubProducts{products: products}, stubTxRunner{}, publisher, logger.New(logger.Options{ServiceName: "test"}), metrics.NewConsolidationMetrics(nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &testHarness{svc: svc, repo: repo, publisher: publisher}
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

func lotWithItems(status enums.LotStatus, items ...models.LotItem) *models.Lot {
	lot := &models.Lot{ID: uuid.New(), ProviderID: uuid.New(), Status: status}
	for i := range items {
		items[i].LotID = lot.ID
	}
	lot.Items = items
	return lot
}

func moqProduct(id uuid.UUID, moq int) models.Product {
	return models.Product{ID: id, MOQByProvider: moq, IsActive: true}
}

func TestMarkReadyRequiresMOQAttainment(t *testing.T) {
	productID := uuid.New()
	lot := lotWithItems(enums.LotStatusPending, models.LotItem{ID: uuid.New(), ProductID: productID, TotalQty: 10})
	h := newHarness(t, []models.Product{moqProduct(productID, 20)}, lot)

	_, err := h.svc.MarkReady(context.Background(), uuid.New(), lot.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
	if len(h.publisher.events) != 0 {
		t.Fatalf("expected no events, got %d", len(h.publisher.events))
	}
}

func TestMarkReadyAdvancesWhenMOQMet(t *testing.T) {
	productID := uuid.New()
	lot := lotWithItems(enums.LotStatusPending, models.LotItem{ID: uuid.New(), ProductID: productID, TotalQty: 20})
	h := newHarness(t, []models.Product{moqProduct(productID, 20)}, lot)

	updated, err := h.svc.MarkReady(context.Background(), uuid.New(), lot.ID)
	if err != nil {
		t.Fatalf("MarkReady: %v", err)
	}
	if updated.Status != enums.LotStatusReadyToOrder {
		t.Fatalf("status = %s, want %s", updated.Status, enums.LotStatusReadyToOrder)
	}
	if len(h.publisher.events) != 1 || h.publisher.events[0].EventType != enums.EventLotStateChanged {
		t.Fatalf("unexpected events: %+v", h.publisher.events)
	}
}

func TestMarkReadyEmptyLot(t *testing.T) {
	lot := lotWithItems(enums.LotStatusPending)
	h := newHarness(t, nil, lot)

	_, err := h.svc.MarkReady(context.Background(), uuid.New(), lot.ID)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestMarkReadyUnknownProduct(t *testing.T) {
	lot := lotWithItems(enums.LotStatusPending, models.LotItem{ID: uuid.New(), ProductID: uuid.New(), TotalQty: 100})
	h := newHarness(t, nil, lot)

	_, err := h.svc.MarkReady(context.Background(), uuid.New(), lot.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSendOrderStampsTimestamp(t *testing.T) {
	lot := lotWithItems(enums.LotStatusReadyToOrder)
	h := newHarness(t, nil, lot)

	updated, err := h.svc.SendOrder(context.Background(), uuid.New(), lot.ID)
	if err != nil {
		t.Fatalf("SendOrder: %v", err)
	}
	if updated.Status != enums.LotStatusOrderSent {
		t.Fatalf("status = %s, want %s", updated.Status, enums.LotStatusOrderSent)
	}
	if updated.OrderSentAt == nil {
		t.Fatal("expected OrderSentAt to be stamped")
	}
}

func TestSendOrderFromPending(t *testing.T) {
	lot := lotWithItems(enums.LotStatusPending)
	h := newHarness(t, nil, lot)

	_, err := h.svc.SendOrder(context.Background(), uuid.New(), lot.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestConfirmStampsTimestamp(t *testing.T) {
	lot := lotWithItems(enums.LotStatusOrderSent)
	h := newHarness(t, nil, lot)

	updated, err := h.svc.Confirm(context.Background(), uuid.New(), lot.ID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if updated.ConfirmedAt == nil {
		t.Fatal("expected ConfirmedAt to be stamped")
	}
}

func TestGeneratePackagesDefaultsToOne(t *testing.T) {
	lot := lotWithItems(enums.LotStatusConfirmedByProvider)
	h := newHarness(t, nil, lot)

	updated, packages, err := h.svc.GeneratePackages(context.Background(), uuid.New(), lot.ID, nil)
	if err != nil {
		t.Fatalf("GeneratePackages: %v", err)
	}
	if updated.Status != enums.LotStatusPackaged {
		t.Fatalf("status = %s, want %s", updated.Status, enums.LotStatusPackaged)
	}
	if len(packages) != 1 || packages[0].Status != enums.PackageStatusCreated {
		t.Fatalf("unexpected packages: %+v", packages)
	}
	if len(h.repo.packages) != 1 {
		t.Fatalf("expected one persisted package, got %d", len(h.repo.packages))
	}
	if len(h.publisher.events) != 2 {
		t.Fatalf("expected state change and generation events, got %d", len(h.publisher.events))
	}
	if h.publisher.events[1].EventType != enums.EventPackagesGenerated {
		t.Fatalf("unexpected second event: %s", h.publisher.events[1].EventType)
	}
}

func TestGeneratePackagesWithSpecs(t *testing.T) {
	lot := lotWithItems(enums.LotStatusConfirmedByProvider)
	h := newHarness(t, nil, lot)

	_, packages, err := h.svc.GeneratePackages(context.Background(), uuid.New(), lot.ID, []PackageSpec{
		{WeightKg: 120, VolumeM3: 0.8},
		{WeightKg: 60, VolumeM3: 0.4},
	})
	if err != nil {
		t.Fatalf("GeneratePackages: %v", err)
	}
	if len(packages) != 2 {
		t.Fatalf("expected two packages, got %d", len(packages))
	}
}

func TestGeneratePackagesBeforeConfirmation(t *testing.T) {
	lot := lotWithItems(enums.LotStatusOrderSent)
	h := newHarness(t, nil, lot)

	_, _, err := h.svc.GeneratePackages(context.Background(), uuid.New(), lot.ID, nil)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestProgressUsesProviderMOQ(t *testing.T) {
	productID := uuid.New()
	lot := lotWithItems(enums.LotStatusPending, models.LotItem{ID: uuid.New(), ProductID: productID, TotalQty: 10})
	h := newHarness(t, []models.Product{moqProduct(productID, 20)}, lot)

	result, err := h.svc.Progress(context.Background(), lot.ID)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if result.OverallProgress != 0.5 {
		t.Fatalf("overall progress = %f, want 0.5", result.OverallProgress)
	}
}

func TestGetUnknownLot(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.Get(context.Background(), uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}
