package tracking

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
	"github.com/cocomarket/bulkbuy-backend/pkg/metrics"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox/payloads"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox/registry"
)

const consumerName = "logistics-tracking"

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer follows the logistics topic and keeps the movement counters
// current: every package and shipment transition published by the API lands
// here exactly once per event id.
type Consumer struct {
	subscription *pubsub.Subscriber
	guard        idempotencyGuard
	decoders     *registry.DecoderRegistry
	metrics      *metrics.ConsolidationMetrics
	logg         *logger.Logger
}

// NewConsumer builds the logistics tracking consumer and registers the
// payload decoders it understands.
func NewConsumer(subscription *pubsub.Subscriber, guard idempotencyGuard, m *metrics.ConsolidationMetrics, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("logistics subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	return &Consumer{
		subscription: subscription,
		guard:        guard,
		decoders:     newDecoderRegistry(),
		metrics:      m,
		logg:         logg,
	}, nil
}

func newDecoderRegistry() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventPackagesGenerated, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.PackagesGeneratedEvent
		return &decoded, json.Unmarshal(payload, &decoded)
	})
	decoders.Register(enums.EventPackageStateChanged, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.PackageStateChangedEvent
		return &decoded, json.Unmarshal(payload, &decoded)
	})
	decoders.Register(enums.EventShipmentAssembled, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.ShipmentAssembledEvent
		return &decoded, json.Unmarshal(payload, &decoded)
	})
	decoders.Register(enums.EventShipmentStateChanged, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.ShipmentStateChangedEvent
		return &decoded, json.Unmarshal(payload, &decoded)
	})
	return decoders
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Warn(logCtx, "skipping message with unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.guard.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		// Unregistered event types on this topic are skipped, not retried.
		c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "no decoder for event")
		return processResult{ack: true}
	}

	if err := c.track(logCtx, decoded); err != nil {
		c.logg.Error(logCtx, "tracking update failed", err)
		_ = c.guard.Delete(ctx, consumerName, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) track(logCtx context.Context, decoded interface{}) error {
	switch payload := decoded.(type) {
	case *payloads.PackagesGeneratedEvent:
		for range payload.PackageIDs {
			c.metrics.IncTransition("package", string(enums.PackageStatusCreated))
		}
		c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
			"lot_id":        payload.LotID.String(),
			"provider_id":   payload.ProviderID.String(),
			"package_count": len(payload.PackageIDs),
		}), "packages generated")

	case *payloads.PackageStateChangedEvent:
		c.metrics.IncTransition("package", string(payload.To))
		c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
			"package_id": payload.PackageID.String(),
			"lot_id":     payload.LotID.String(),
			"from":       payload.From,
			"to":         payload.To,
		}), "package moved")

	case *payloads.ShipmentAssembledEvent:
		c.metrics.IncTransition("shipment", string(enums.ShipmentStatusAssembling))
		c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
			"shipment_id":   payload.ShipmentID.String(),
			"carrier_name":  payload.CarrierName,
			"package_count": len(payload.PackageIDs),
		}), "shipment assembled")

	case *payloads.ShipmentStateChangedEvent:
		c.metrics.IncTransition("shipment", string(payload.To))
		c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
			"shipment_id": payload.ShipmentID.String(),
			"from":        payload.From,
			"to":          payload.To,
		}), "shipment moved")

	default:
		return fmt.Errorf("unsupported payload type %T", decoded)
	}
	return nil
}
