package shipments

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
	shipments map[uuid.UUID]*models.Shipment
	packages  map[uuid.UUID]*models.Package
	links     map[uuid.UUID]uuid.UUID
}

func newStubRepo(packages ...*models.Package) *stubRepo {
	repo := &stubRepo{
		shipments: map[uuid.UUID]*models.Shipment{},
		packages:  map[uuid.UUID]*models.Package{},
		links:     map[uuid.UUID]uuid.UUID{},
	}
	for _, pkg := range packages {
		repo.packages[pkg.ID] = pkg
	}
	return repo
}

func (s *stubRepo) WithTx(_ *gorm.DB) ShipmentRepository { return s }

func (s *stubRepo) Create(_ context.Context, shipment *models.Shipment, packageIDs []uuid.UUID) error {
	for _, packageID := range packageIDs {
		if _, taken := s.links[packageID]; taken {
			return gorm.ErrDuplicatedKey
		}
	}
	for _, packageID := range packageIDs {
		s.links[packageID] = shipment.ID
		shipment.Packages = append(shipment.Packages, models.ShipmentPackage{
			ID:         uuid.New(),
			ShipmentID: shipment.ID,
			PackageID:  packageID,
		})
	}
	s.shipments[shipment.ID] = shipment
	return nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Shipment, error) {
	shipment, ok := s.shipments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *shipment
	return &copied, nil
}

func (s *stubRepo) List(_ context.Context) ([]models.Shipment, error) {
	var out []models.Shipment
	for _, shipment := range s.shipments {
		out = append(out, *shipment)
	}
	return out, nil
}

func (s *stubRepo) Save(_ context.Context, shipment *models.Shipment) error {
	copied := *shipment
	s.shipments[shipment.ID] = &copied
	return nil
}

func (s *stubRepo) FindPackagesByIDs(_ context.Context, ids []uuid.UUID) ([]models.Package, error) {
	var out []models.Package
	for _, id := range ids {
		if pkg, ok := s.packages[id]; ok {
			out = append(out, *pkg)
		}
	}
	return out, nil
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

func readyPackage(lotID uuid.UUID) *models.Package {
	return &models.Package{ID: uuid.New(), LotID: lotID, Status: enums.PackageStatusReadyForPickup}
}

func TestAssembleGroupsCrossLotPackages(t *testing.T) {
	pkgA := readyPackage(uuid.New())
	pkgB := readyPackage(uuid.New())
	repo := newStubRepo(pkgA, pkgB)
	publisher := &stubPublisher{}
	svc := newTestService(t, repo, publisher)

	shipment, err := svc.Assemble(context.Background(), uuid.New(), AssembleInput{
		CarrierName: "coco-express",
		PackageIDs:  []uuid.UUID{pkgA.ID, pkgB.ID},
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if shipment.Status != enums.ShipmentStatusAssembling {
		t.Fatalf("status = %s, want %s", shipment.Status, enums.ShipmentStatusAssembling)
	}
	if len(shipment.Packages) != 2 {
		t.Fatalf("expected two package links, got %d", len(shipment.Packages))
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventShipmentAssembled {
		t.Fatalf("unexpected events: %+v", publisher.events)
	}
}

func TestAssembleRejectsUnreadyPackage(t *testing.T) {
	pkg := &models.Package{ID: uuid.New(), LotID: uuid.New(), Status: enums.PackageStatusCreated}
	svc := newTestService(t, newStubRepo(pkg), &stubPublisher{})

	_, err := svc.Assemble(context.Background(), uuid.New(), AssembleInput{
		CarrierName: "coco-express",
		PackageIDs:  []uuid.UUID{pkg.ID},
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAssembleRejectsUnknownPackage(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubPublisher{})

	_, err := svc.Assemble(context.Background(), uuid.New(), AssembleInput{
		CarrierName: "coco-express",
		PackageIDs:  []uuid.UUID{uuid.New()},
	})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestAssembleRejectsEmptySelection(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubPublisher{})

	_, err := svc.Assemble(context.Background(), uuid.New(), AssembleInput{CarrierName: "coco-express"})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestAssembleRejectsDuplicateSelection(t *testing.T) {
	pkg := readyPackage(uuid.New())
	svc := newTestService(t, newStubRepo(pkg), &stubPublisher{})

	_, err := svc.Assemble(context.Background(), uuid.New(), AssembleInput{
		CarrierName: "coco-express",
		PackageIDs:  []uuid.UUID{pkg.ID, pkg.ID},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestLifecycleStampsTimestamps(t *testing.T) {
	pkg := readyPackage(uuid.New())
	repo := newStubRepo(pkg)
	svc := newTestService(t, repo, &stubPublisher{})
	ctx := context.Background()
	actorID := uuid.New()

	shipment, err := svc.Assemble(ctx, actorID, AssembleInput{
		CarrierName: "coco-express",
		PackageIDs:  []uuid.UUID{pkg.ID},
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	moving, err := svc.StartTransit(ctx, actorID, shipment.ID)
	if err != nil {
		t.Fatalf("StartTransit: %v", err)
	}
	if moving.StartedAt == nil {
		t.Fatal("expected StartedAt to be stamped")
	}

	arrived, err := svc.Arrive(ctx, actorID, shipment.ID)
	if err != nil {
		t.Fatalf("Arrive: %v", err)
	}
	if arrived.ArrivedAt == nil {
		t.Fatal("expected ArrivedAt to be stamped")
	}

	closed, err := svc.Close(ctx, actorID, shipment.ID)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Status != enums.ShipmentStatusClosed {
		t.Fatalf("status = %s, want %s", closed.Status, enums.ShipmentStatusClosed)
	}
}

func TestCloseBeforeArrival(t *testing.T) {
	pkg := readyPackage(uuid.New())
	svc := newTestService(t, newStubRepo(pkg), &stubPublisher{})
	ctx := context.Background()
	actorID := uuid.New()

	shipment, err := svc.Assemble(ctx, actorID, AssembleInput{
		CarrierName: "coco-express",
		PackageIDs:  []uuid.UUID{pkg.ID},
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	_, err = svc.Close(ctx, actorID, shipment.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestActiveFiltersInTransit(t *testing.T) {
	pkgA := readyPackage(uuid.New())
	pkgB := readyPackage(uuid.New())
	repo := newStubRepo(pkgA, pkgB)
	svc := newTestService(t, repo, &stubPublisher{})
	ctx := context.Background()
	actorID := uuid.New()

	first, err := svc.Assemble(ctx, actorID, AssembleInput{CarrierName: "coco-express", PackageIDs: []uuid.UUID{pkgA.ID}})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if _, err := svc.Assemble(ctx, actorID, AssembleInput{CarrierName: "coco-freight", PackageIDs: []uuid.UUID{pkgB.ID}}); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if _, err := svc.StartTransit(ctx, actorID, first.ID); err != nil {
		t.Fatalf("StartTransit: %v", err)
	}

	active, err := svc.Active(ctx)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(active) != 1 || active[0].ID != first.ID {
		t.Fatalf("unexpected active shipments: %+v", active)
	}
}
