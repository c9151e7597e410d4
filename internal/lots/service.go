package lots

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	"github.com/cocomarket/bulkbuy-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productLoader interface {
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// PackageSpec describes one package to cut from a confirmed lot.
type PackageSpec struct {
	WeightKg float64
	VolumeM3 float64
}

// ListResult is one page of lots plus the cursor for the next one.
type ListResult struct {
	Lots       []models.Lot
	NextCursor string
}

// Service drives a lot through its ordering lifecycle. Every transition is a
// guarded single forward step; out-of-order requests fail with a state
// conflict instead of silently overwriting.
type Service interface {
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, lotID uuid.UUID) (*models.Lot, error)
	Progress(ctx context.Context, lotID uuid.UUID) (*progress.LotProgressResult, error)
	MarkReady(ctx context.Context, actorID, lotID uuid.UUID) (*models.Lot, error)
	SendOrder(ctx context.Context, actorID, lotID uuid.UUID) (*models.Lot, error)
	Confirm(ctx context.Context, actorID, lotID uuid.UUID) (*models.Lot, error)
	GeneratePackages(ctx context.Context, actorID, lotID uuid.UUID, specs []PackageSpec) (*models.Lot, []models.Package, error)
}

type service struct {
	repo      LotRepository
	products  productLoader
	tx        txRunner
	publisher outboxPublisher
	logg      *logger.Logger
	metrics   *metrics.ConsolidationMetrics
}

// NewService builds a lot service backed by the provided stack. Metrics may
// be nil.
func NewService(repo LotRepository, products productLoader, tx txRunner, publisher outboxPublisher, logg *logger.Logger, m *metrics.ConsolidationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lot repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
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
		products:  products,
		tx:        tx,
		publisher: publisher,
		logg:      logg,
		metrics:   m,
	}, nil
}

// List returns one cursor page of lots, newest first.
func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list lots")
	}

	result := &ListResult{Lots: rows}
	if len(rows) > limit {
		result.Lots = rows[:limit]
		last := result.Lots[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// Get loads a single lot with its items.
func (s *service) Get(ctx context.Context, lotID uuid.UUID) (*models.Lot, error) {
	return s.loadLot(ctx, lotID)
}

// Progress computes per-item and overall MOQ attainment for the lot.
func (s *service) Progress(ctx context.Context, lotID uuid.UUID) (*progress.LotProgressResult, error) {
	lot, err := s.loadLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	products, err := s.lotProducts(ctx, lot)
	if err != nil {
		return nil, err
	}

	result := progress.LotProgress(*lot, products)
	return &result, nil
}

// MarkReady advances a pending lot once every item has reached its provider
// MOQ. An empty lot can never be marked ready.
func (s *service) MarkReady(ctx context.Context, actorID, lotID uuid.UUID) (*models.Lot, error) {
	lot, err := s.loadLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if !lot.Status.CanAdvanceTo(enums.LotStatusReadyToOrder) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lot cannot be marked ready from its current status")
	}
	if len(lot.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot has no items")
	}

	products, err := s.lotProducts(ctx, lot)
	if err != nil {
		return nil, err
	}
	for _, item := range lot.Items {
		if !progress.LotItemMeetsMOQ(item, products) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lot items have not reached the provider minimum order quantity")
		}
	}

	return s.advance(ctx, actorID, lot, enums.LotStatusReadyToOrder, nil)
}

// SendOrder records that the purchase order went out to the provider.
func (s *service) SendOrder(ctx context.Context, actorID, lotID uuid.UUID) (*models.Lot, error) {
	lot, err := s.loadLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if !lot.Status.CanAdvanceTo(enums.LotStatusOrderSent) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lot order cannot be sent from its current status")
	}
	return s.advance(ctx, actorID, lot, enums.LotStatusOrderSent, func(l *models.Lot, now time.Time) {
		l.OrderSentAt = &now
	})
}

// Confirm records the provider's confirmation of the order.
func (s *service) Confirm(ctx context.Context, actorID, lotID uuid.UUID) (*models.Lot, error) {
	lot, err := s.loadLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if !lot.Status.CanAdvanceTo(enums.LotStatusConfirmedByProvider) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lot cannot be confirmed from its current status")
	}
	return s.advance(ctx, actorID, lot, enums.LotStatusConfirmedByProvider, func(l *models.Lot, now time.Time) {
		l.ConfirmedAt = &now
	})
}

// GeneratePackages closes out a confirmed lot by cutting its physical
// packages. At least one package is always created, even without specs.
func (s *service) GeneratePackages(ctx context.Context, actorID, lotID uuid.UUID, specs []PackageSpec) (*models.Lot, []models.Package, error) {
	lot, err := s.loadLot(ctx, lotID)
	if err != nil {
		return nil, nil, err
	}
	if !lot.Status.CanAdvanceTo(enums.LotStatusPackaged) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lot cannot be packaged from its current status")
	}

	if len(specs) == 0 {
		specs = []PackageSpec{{}}
	}
	packages := make([]models.Package, 0, len(specs))
	packageIDs := make([]uuid.UUID, 0, len(specs))
	for _, spec := range specs {
		if spec.WeightKg < 0 || spec.VolumeM3 < 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "package dimensions cannot be negative")
		}
		pkg := models.Package{
			ID:       uuid.New(),
			LotID:    lot.ID,
			Status:   enums.PackageStatusCreated,
			WeightKg: spec.WeightKg,
			VolumeM3: spec.VolumeM3,
		}
		packages = append(packages, pkg)
		packageIDs = append(packageIDs, pkg.ID)
	}

	from := lot.Status
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		lot.Status = enums.LotStatusPackaged
		if err := txRepo.Save(ctx, lot); err != nil {
			return err
		}
		if err := txRepo.CreatePackages(ctx, packages); err != nil {
			return err
		}
		actor := &outbox.ActorRef{UserID: actorID, Role: "admin"}
		if err := s.publisher.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLotStateChanged,
			AggregateType: enums.AggregateLot,
			AggregateID:   lot.ID,
			Actor:         actor,
			Data: payloads.LotStateChangedEvent{
				LotID:      lot.ID,
				ProviderID: lot.ProviderID,
				From:       from,
				To:         lot.Status,
			},
			Version: 1,
		}); err != nil {
			return err
		}
		return s.publisher.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPackagesGenerated,
			AggregateType: enums.AggregateLot,
			AggregateID:   lot.ID,
			Actor:         actor,
			Data: payloads.PackagesGeneratedEvent{
				LotID:      lot.ID,
				ProviderID: lot.ProviderID,
				PackageIDs: packageIDs,
			},
			Version: 1,
		})
	}); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate packages")
	}

	s.metrics.IncTransition("lot", lot.Status.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"lot_id":   lot.ID.String(),
		"packages": len(packages),
	}), "lot packaged")
	return lot, packages, nil
}

func (s *service) advance(ctx context.Context, actorID uuid.UUID, lot *models.Lot, to enums.LotStatus, stamp func(*models.Lot, time.Time)) (*models.Lot, error) {
	from := lot.Status
	now := time.Now().UTC()

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lot.Status = to
		if stamp != nil {
			stamp(lot, now)
		}
		if err := s.repo.WithTx(tx).Save(ctx, lot); err != nil {
			return err
		}
		return s.publisher.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLotStateChanged,
			AggregateType: enums.AggregateLot,
			AggregateID:   lot.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: "admin"},
			Data: payloads.LotStateChangedEvent{
				LotID:      lot.ID,
				ProviderID: lot.ProviderID,
				From:       from,
				To:         to,
			},
			Version: 1,
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance lot")
	}

	s.metrics.IncTransition("lot", to.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"lot_id": lot.ID.String(),
		"from":   from.String(),
		"to":     to.String(),
	}), "lot advanced")
	return lot, nil
}

func (s *service) loadLot(ctx context.Context, lotID uuid.UUID) (*models.Lot, error) {
	if lotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id is required")
	}
	lot, err := s.repo.FindByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load lot")
	}
	return lot, nil
}

func (s *service) lotProducts(ctx context.Context, lot *models.Lot) ([]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(lot.Items))
	for _, item := range lot.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot products")
	}
	return products, nil
}
