package consolidation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
	"github.com/cocomarket/bulkbuy-backend/pkg/metrics"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox"
)

type stubRepo struct {
	snapshot    *Snapshot
	snapshotErr error
	replaced    []models.Lot
	replaceErr  error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRepo) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	if s.snapshotErr != nil {
		return nil, s.snapshotErr
	}
	return s.snapshot, nil
}

func (s *stubRepo) ReplaceLots(ctx context.Context, lots []models.Lot) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced = lots
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events  []outbox.DomainEvent
	emitErr error
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.emitErr != nil {
		return s.emitErr
	}
	s.events = append(s.events, event)
	return nil
}

func newTestService(t *testing.T, repo *stubRepo, publisher *stubOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, publisher, logger.New(logger.Options{ServiceName: "test"}), metrics.NewConsolidationMetrics(nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestServiceRebuildPersistsAndEmits(t *testing.T) {
	provider := models.Provider{ID: uuid.New()}
	product := models.Product{ID: uuid.New(), ProviderID: provider.ID}
	user := uuid.New()

	repo := &stubRepo{snapshot: &Snapshot{
		Carts: []models.Cart{{
			ID:     uuid.New(),
			UserID: user,
			Status: enums.CartStatusPaid,
			Items:  []models.CartItem{{ProductID: product.ID, Quantity: 8}},
		}},
		Products:  []models.Product{product},
		Providers: []models.Provider{provider},
	}}
	publisher := &stubOutbox{}
	svc := newTestService(t, repo, publisher)

	result, err := svc.RebuildLots(context.Background(), TriggerSplit)
	if err != nil {
		t.Fatalf("RebuildLots: %v", err)
	}
	if len(result.Lots) != 1 {
		t.Fatalf("expected 1 lot, got %d", len(result.Lots))
	}
	if len(repo.replaced) != 1 {
		t.Fatalf("expected lots persisted")
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.EventType != enums.EventLotRebuilt {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	if event.AggregateID != result.Lots[0].ID {
		t.Fatalf("event aggregate must be the lot id")
	}
}

func TestServiceRebuildSnapshotErrorAborts(t *testing.T) {
	repo := &stubRepo{snapshotErr: errors.New("db down")}
	publisher := &stubOutbox{}
	svc := newTestService(t, repo, publisher)

	_, err := svc.RebuildLots(context.Background(), TriggerManual)
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(publisher.events) != 0 {
		t.Fatalf("no events should be emitted on failure")
	}
}

func TestServiceRebuildEmitErrorSurfaces(t *testing.T) {
	provider := models.Provider{ID: uuid.New()}
	product := models.Product{ID: uuid.New(), ProviderID: provider.ID}

	repo := &stubRepo{snapshot: &Snapshot{
		Carts: []models.Cart{{
			ID:     uuid.New(),
			UserID: uuid.New(),
			Status: enums.CartStatusPaid,
			Items:  []models.CartItem{{ProductID: product.ID, Quantity: 1}},
		}},
		Products:  []models.Product{product},
		Providers: []models.Provider{provider},
	}}
	publisher := &stubOutbox{emitErr: errors.New("outbox insert failed")}
	svc := newTestService(t, repo, publisher)

	_, err := svc.RebuildLots(context.Background(), TriggerManual)
	if err == nil {
		t.Fatalf("expected emit error to surface")
	}
}

func TestServiceRebuildEmptySnapshotNoEvents(t *testing.T) {
	repo := &stubRepo{snapshot: &Snapshot{}}
	publisher := &stubOutbox{}
	svc := newTestService(t, repo, publisher)

	result, err := svc.RebuildLots(context.Background(), "")
	if err != nil {
		t.Fatalf("RebuildLots: %v", err)
	}
	if len(result.Lots) != 0 || len(publisher.events) != 0 {
		t.Fatalf("expected nothing to happen for an empty snapshot")
	}
}
