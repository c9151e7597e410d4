package consolidation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
	"github.com/cocomarket/bulkbuy-backend/pkg/metrics"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox/payloads"
)

const (
	// TriggerSplit marks rebuilds fired by a cart being split to lots.
	TriggerSplit = "cart_split"
	// TriggerManual marks rebuilds requested through the admin endpoint.
	TriggerManual = "manual"

	skipReasonMissingProduct  = "missing_product"
	skipReasonUnknownProvider = "unknown_provider"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs full lot rebuilds over a consistent snapshot.
type Service interface {
	RebuildLots(ctx context.Context, trigger string) (*Result, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.ConsolidationMetrics
}

// NewService builds the consolidation service with its required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger, m *metrics.ConsolidationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("consolidation repository required")
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
		repo:    repo,
		tx:      tx,
		outbox:  publisher,
		logg:    logg,
		metrics: m,
	}, nil
}

// RebuildLots loads a snapshot, recomputes every provider lot, and persists
// the derived state, all inside one transaction. One lot_rebuilt event is
// queued per surviving lot.
func (s *service) RebuildLots(ctx context.Context, trigger string) (*Result, error) {
	if trigger == "" {
		trigger = TriggerManual
	}

	start := time.Now()
	now := start.UTC()
	var result Result

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		snap, err := repo.LoadSnapshot(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rebuild snapshot")
		}

		result = Rebuild(*snap, now, uuid.New)

		if err := repo.ReplaceLots(ctx, result.Lots); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist rebuilt lots")
		}

		var emitErr error
		for _, lot := range result.Lots {
			totalQty := 0
			for _, item := range lot.Items {
				totalQty += item.TotalQty
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventLotRebuilt,
				AggregateType: enums.AggregateLot,
				AggregateID:   lot.ID,
				Version:       1,
				OccurredAt:    now,
				Data: payloads.LotRebuiltEvent{
					LotID:          lot.ID,
					ProviderID:     lot.ProviderID,
					ItemCount:      len(lot.Items),
					TotalQuantity:  totalQty,
					ConsolidatedAt: now,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				emitErr = multierr.Append(emitErr, fmt.Errorf("emit lot_rebuilt for %s: %w", lot.ID, err))
			}
		}
		return emitErr
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveRebuildDuration(trigger, time.Since(start))
	s.metrics.AddSkippedReferences(skipReasonMissingProduct, result.Skipped.MissingProduct)
	s.metrics.AddSkippedReferences(skipReasonUnknownProvider, result.Skipped.UnknownProvider)
	s.metrics.AddLotsRebuilt(len(result.Lots))

	fields := map[string]any{
		"trigger":          trigger,
		"lots":             len(result.Lots),
		"lot_items":        len(result.LotItems),
		"missing_product":  result.Skipped.MissingProduct,
		"unknown_provider": result.Skipped.UnknownProvider,
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "lot rebuild completed")

	if result.Skipped.MissingProduct > 0 || result.Skipped.UnknownProvider > 0 {
		s.logg.Warn(s.logg.WithFields(ctx, fields), "lot rebuild skipped dangling references")
	}

	return &result, nil
}
