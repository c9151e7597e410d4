package shipments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/internal/progress"
	"github.com/cocomarket/bulkbuy-backend/pkg/db"
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

// AssembleInput describes one shipment to build from ready packages. The
// selection may span lots and providers.
type AssembleInput struct {
	CarrierName string
	ETA         *time.Time
	PackageIDs  []uuid.UUID
}

// Service assembles shipments and walks them through transit.
type Service interface {
	Assemble(ctx context.Context, actorID uuid.UUID, input AssembleInput) (*models.Shipment, error)
	Get(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	List(ctx context.Context) ([]models.Shipment, error)
	Active(ctx context.Context) ([]models.Shipment, error)
	StartTransit(ctx context.Context, actorID, shipmentID uuid.UUID) (*models.Shipment, error)
	Arrive(ctx context.Context, actorID, shipmentID uuid.UUID) (*models.Shipment, error)
	Close(ctx context.Context, actorID, shipmentID uuid.UUID) (*models.Shipment, error)
}

type service struct {
	repo      ShipmentRepository
	tx        txRunner
	publisher outboxPublisher
	logg      *logger.Logger
	metrics   *metrics.ConsolidationMetrics
}

// NewService builds a shipment service backed by the provided stack. Metrics
// may be nil.
func NewService(repo ShipmentRepository, tx txRunner, publisher outboxPublisher, logg *logger.Logger, m *metrics.ConsolidationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipment repository required")
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

// Assemble groups the selected packages under one carrier. Every package must
// be ready for pickup and not already carried by another shipment.
func (s *service) Assemble(ctx context.Context, actorID uuid.UUID, input AssembleInput) (*models.Shipment, error) {
	if strings.TrimSpace(input.CarrierName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier name is required")
	}
	if len(input.PackageIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one package is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.PackageIDs))
	for _, id := range input.PackageIDs {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "package id is required")
		}
		if _, dup := seen[id]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate package in selection")
		}
		seen[id] = struct{}{}
	}

	packages, err := s.repo.FindPackagesByIDs(ctx, input.PackageIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load packages")
	}
	if len(packages) != len(input.PackageIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more packages not found")
	}
	for _, pkg := range packages {
		if pkg.Status != enums.PackageStatusReadyForPickup {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "all packages must be ready for pickup")
		}
	}

	shipment := &models.Shipment{
		ID:          uuid.New(),
		CarrierName: strings.TrimSpace(input.CarrierName),
		Status:      enums.ShipmentStatusAssembling,
		ETA:         input.ETA,
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, shipment, input.PackageIDs); err != nil {
			return err
		}
		return s.publisher.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentAssembled,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: "admin"},
			Data: payloads.ShipmentAssembledEvent{
				ShipmentID:  shipment.ID,
				CarrierName: shipment.CarrierName,
				PackageIDs:  input.PackageIDs,
				ETA:         input.ETA,
			},
			Version: 1,
		})
	}); err != nil {
		if db.IsUniqueViolation(err, "shipment_packages") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "package already assigned to a shipment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assemble shipment")
	}

	s.metrics.IncTransition("shipment", shipment.Status.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"shipment_id": shipment.ID.String(),
		"packages":    len(input.PackageIDs),
	}), "shipment assembled")
	return s.Get(ctx, shipment.ID)
}

// Get loads one shipment with its package links.
func (s *service) Get(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	return s.loadShipment(ctx, shipmentID)
}

// List returns every shipment.
func (s *service) List(ctx context.Context) ([]models.Shipment, error) {
	shipments, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shipments")
	}
	return shipments, nil
}

// Active returns shipments currently on the road.
func (s *service) Active(ctx context.Context) ([]models.Shipment, error) {
	shipments, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return progress.ActiveShipments(shipments), nil
}

// StartTransit records the carrier picking up the shipment.
func (s *service) StartTransit(ctx context.Context, actorID, shipmentID uuid.UUID) (*models.Shipment, error) {
	return s.advance(ctx, actorID, shipmentID, enums.ShipmentStatusInTransit, func(sh *models.Shipment, now time.Time) {
		sh.StartedAt = &now
	})
}

// Arrive records arrival at the destination hub.
func (s *service) Arrive(ctx context.Context, actorID, shipmentID uuid.UUID) (*models.Shipment, error) {
	return s.advance(ctx, actorID, shipmentID, enums.ShipmentStatusArrived, func(sh *models.Shipment, now time.Time) {
		sh.ArrivedAt = &now
	})
}

// Close finishes the shipment after final handoff.
func (s *service) Close(ctx context.Context, actorID, shipmentID uuid.UUID) (*models.Shipment, error) {
	return s.advance(ctx, actorID, shipmentID, enums.ShipmentStatusClosed, nil)
}

func (s *service) advance(ctx context.Context, actorID, shipmentID uuid.UUID, to enums.ShipmentStatus, stamp func(*models.Shipment, time.Time)) (*models.Shipment, error) {
	shipment, err := s.loadShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if !shipment.Status.CanAdvanceTo(to) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("shipment cannot move to %s from %s", to, shipment.Status))
	}

	from := shipment.Status
	now := time.Now().UTC()
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shipment.Status = to
		if stamp != nil {
			stamp(shipment, now)
		}
		if err := s.repo.WithTx(tx).Save(ctx, shipment); err != nil {
			return err
		}
		return s.publisher.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentStateChanged,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: "admin"},
			Data: payloads.ShipmentStateChangedEvent{
				ShipmentID: shipment.ID,
				From:       from,
				To:         to,
			},
			Version: 1,
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance shipment")
	}

	s.metrics.IncTransition("shipment", to.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"shipment_id": shipment.ID.String(),
		"from":        from.String(),
		"to":          to.String(),
	}), "shipment advanced")
	return shipment, nil
}

func (s *service) loadShipment(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id is required")
	}
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipment")
	}
	return shipment, nil
}
