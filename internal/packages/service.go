package packages

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/internal/progress"
	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
	"github.com/cocomarket/bulkbuy-backend/pkg/metrics"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service moves packages through their manual logistics steps one at a time.
type Service interface {
	Get(ctx context.Context, packageID uuid.UUID) (*models.Package, error)
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Package, error)
	StatusHistogram(ctx context.Context) (map[enums.PackageStatus]int, error)
	MarkReadyForPickup(ctx context.Context, actorID, packageID uuid.UUID) (*models.Package, error)
	StartTransit(ctx context.Context, actorID, packageID uuid.UUID) (*models.Package, error)
	MarkDelivered(ctx context.Context, actorID, packageID uuid.UUID) (*models.Package, error)
}

type service struct {
	repo      PackageRepository
	tx        txRunner
	publisher outboxPublisher
	logg      *logger.Logger
	metrics   *metrics.ConsolidationMetrics
}

// NewService builds a package service backed by the provided stack. Metrics
// may be nil.
func NewService(repo PackageRepository, tx txRunner, publisher outboxPublisher, logg *logger.Logger, m *metrics.ConsolidationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("package repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		publisher: publisher,
		logg:      logg,
		metrics:   m,
	}, nil
}

// Get loads one package.
func (s *service) Get(ctx context.Context, packageID uuid.UUID) (*models.Package, error) {
	return s.loadPackage(ctx, packageID)
}

// ListByLot returns the packages cut from one lot.
func (s *service) ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Package, error) {
	if lotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id is required")
	}
	packages, err := s.repo.ListByLot(ctx, lotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list lot packages")
	}
	return packages, nil
}

// StatusHistogram counts all packages by status.
func (s *service) StatusHistogram(ctx context.Context) (map[enums.PackageStatus]int, error) {
	packages, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list packages")
	}
	return progress.PackagesByStatus(packages), nil
}

// MarkReadyForPickup flags a freshly created package for shipment assembly.
func (s *service) MarkReadyForPickup(ctx context.Context, actorID, packageID uuid.UUID) (*models.Package, error) {
	return s.advance(ctx, actorID, packageID, enums.PackageStatusReadyForPickup)
}

// StartTransit records the package leaving the warehouse.
func (s *service) StartTransit(ctx context.Context, actorID, packageID uuid.UUID) (*models.Package, error) {
	return s.advance(ctx, actorID, packageID, enums.PackageStatusInTransit)
}

// MarkDelivered closes out the package.
func (s *service) MarkDelivered(ctx context.Context, actorID, packageID uuid.UUID) (*models.Package, error) {
	return s.advance(ctx, actorID, packageID, enums.PackageStatusDelivered)
}

func (s *service) advance(ctx context.Context, actorID, packageID uuid.UUID, to enums.PackageStatus) (*models.Package, error) {
	pkg, err := s.loadPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.Status.CanAdvanceTo(to) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("package cannot move to %s from %s", to, pkg.Status))
	}

	from := pkg.Status
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		pkg.Status = to
		if err := s.repo.WithTx(tx).Save(ctx, pkg); err != nil {
			return err
		}
		return s.publisher.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPackageStateChanged,
			AggregateType: enums.AggregatePackage,
			AggregateID:   pkg.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: "admin"},
			Data: payloads.PackageStateChangedEvent{
				PackageID: pkg.ID,
				LotID:     pkg.LotID,
				From:      from,
				To:        to,
			},
			Version: 1,
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance package")
	}

	s.metrics.IncTransition("package", to.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"package_id": pkg.ID.String(),
		"from":       from.String(),
		"to":         to.String(),
	}), "package advanced")
	return pkg, nil
}

func (s *service) loadPackage(ctx context.Context, packageID uuid.UUID) (*models.Package, error) {
	if packageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package id is required")
	}
	pkg, err := s.repo.FindByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load package")
	}
	return pkg, nil
}
