package packages

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
)

type stubRepo struct {
	packages map[uuid.UUID]*models.Package
}

func newStubRepo(packages ...*models.Package) *stubRepo {
	repo := &stubRepo{packages: map[uuid.UUID]*models.Package{}}
	for _, pkg := range packages {
		repo.packages[pkg.ID] = pkg
	}
	return repo
}

func (s *stubRepo) WithTx(_ *gorm.DB) PackageRepository { return s }

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Package, error) {
	pkg, ok := s.packages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *pkg
	return &copied, nil
}

func (s *stubRepo) List(_ context.Context) ([]models.Package, error) {
	var out []models.Package
	for _, pkg := range s.packages {
		out = append(out, *pkg)
	}
	return out, nil
}

func (s *stubRepo) ListByLot(_ context.Context, lotID uuid.UUID) ([]models.Package, error) {
	var out []models.Package
	for _, pkg := range s.packages {
		if pkg.LotID == lotID {
			out = append(out, *pkg)
		}
	}
	return out, nil
}

func (s *stubRepo) Save(_ context.Context, pkg *models.Package) error {
	copied := *pkg
	s.packages[pkg.ID] = &copied
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

func newTestService(t *testing.T, repo *stubRepo, publisher *stubPublisher) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, publisher, logger.New(logger.Options{ServiceName: "test"}), metrics.NewConsolidationMetrics(nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
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

func TestAdvanceWalksForwardOneStep(t *testing.T) {
	pkg := &models.Package{ID: uuid.New(), LotID: uuid.New(), Status: enums.PackageStatusCreated}
	repo := newStubRepo(pkg)
	publisher := &stubPublisher{}
	svc := newTestService(t, repo, publisher)
	ctx := context.Background()
	actorID := uuid.New()

	updated, err := svc.MarkReadyForPickup(ctx, actorID, pkg.ID)
	if err != nil {
		t.Fatalf("MarkReadyForPickup: %v", err)
	}
	if updated.Status != enums.PackageStatusReadyForPickup {
		t.Fatalf("status = %s", updated.Status)
	}

	if _, err := svc.StartTransit(ctx, actorID, pkg.ID); err != nil {
		t.Fatalf("StartTransit: %v", err)
	}
	updated, err = svc.MarkDelivered(ctx, actorID, pkg.ID)
	if err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	if updated.Status != enums.PackageStatusDelivered {
		t.Fatalf("status = %s", updated.Status)
	}

	if len(publisher.events) != 3 {
		t.Fatalf("expected three events, got %d", len(publisher.events))
	}
	for _, event := range publisher.events {
		if event.EventType != enums.EventPackageStateChanged {
			t.Fatalf("unexpected event type %s", event.EventType)
		}
	}
}

func TestAdvanceRejectsSkippedStep(t *testing.T) {
	pkg := &models.Package{ID: uuid.New(), LotID: uuid.New(), Status: enums.PackageStatusCreated}
	svc := newTestService(t, newStubRepo(pkg), &stubPublisher{})

	_, err := svc.StartTransit(context.Background(), uuid.New(), pkg.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAdvanceRejectsRegression(t *testing.T) {
	pkg := &models.Package{ID: uuid.New(), LotID: uuid.New(), Status: enums.PackageStatusDelivered}
	svc := newTestService(t, newStubRepo(pkg), &stubPublisher{})

	_, err := svc.MarkReadyForPickup(context.Background(), uuid.New(), pkg.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestStatusHistogram(t *testing.T) {
	lotID := uuid.New()
	svc := newTestService(t, newStubRepo(
		&models.Package{ID: uuid.New(), LotID: lotID, Status: enums.PackageStatusCreated},
		&models.Package{ID: uuid.New(), LotID: lotID, Status: enums.PackageStatusCreated},
		&models.Package{ID: uuid.New(), LotID: lotID, Status: enums.PackageStatusInTransit},
	), &stubPublisher{})

	histogram, err := svc.StatusHistogram(context.Background())
	if err != nil {
		t.Fatalf("StatusHistogram: %v", err)
	}
	if histogram[enums.PackageStatusCreated] != 2 || histogram[enums.PackageStatusInTransit] != 1 {
		t.Fatalf("unexpected histogram: %+v", histogram)
	}
}

func TestGetUnknownPackage(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubPublisher{})

	_, err := svc.Get(context.Background(), uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}
