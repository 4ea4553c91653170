package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeliveryIDHeaders are checked in order for a platform delivery id. A
// delivery without one is keyed by the sha256 of its body.
var DeliveryIDHeaders = []string{
	"X-Shopify-Webhook-Id",
	"X-Openship-Delivery-Id",
	"X-Delivery-Id",
	"Msg-Id",
}

// OrderLifecycle is the part of the order lifecycle webhooks drive
type OrderLifecycle interface {
	HandleOrderCreated(ctx context.Context, shop *integration.Shop, ev integration.OrderCreatedEvent) (*order.Order, error)
	HandleOrderCancelled(ctx context.Context, shop *integration.Shop, ev integration.OrderCancelledEvent) error
	HandleTrackingCreated(ctx context.Context, channel *integration.Channel, ev integration.TrackingCreatedEvent) error
	HandlePurchaseCancelled(ctx context.Context, channel *integration.Channel, ev integration.PurchaseCancelledEvent) error
}

// Delivery is one webhook request as received on the ingress route
type Delivery struct {
	Topic   integration.WebhookTopic
	Body    []byte
	Headers http.Header
}

// Result reports what ingestion did with a delivery
type Result struct {
	DeliveryID string                `json:"delivery_id"`
	Event      integration.EventKind `json:"event,omitempty"`
	Duplicate  bool                  `json:"duplicate"`
	OrderID    *uuid.UUID            `json:"order_id,omitempty"`
}

// IngestionService deduplicates, normalizes, archives and dispatches
// webhook deliveries
type IngestionService struct {
	shops          integration.ShopRepository
	channels       integration.ChannelRepository
	normalizer     *Normalizer
	lifecycle      OrderLifecycle
	idempotency    shared.IdempotencyStore
	archive        PayloadArchive
	idempotencyTTL time.Duration
}

// NewIngestionService creates a new IngestionService. A nil archive disables
// archiving.
func NewIngestionService(
	shops integration.ShopRepository,
	channels integration.ChannelRepository,
	normalizer *Normalizer,
	lifecycle OrderLifecycle,
	idempotency shared.IdempotencyStore,
	archive PayloadArchive,
	idempotencyTTL time.Duration,
) *IngestionService {
	if archive == nil {
		archive = NopArchive{}
	}
	if idempotencyTTL <= 0 {
		idempotencyTTL = 72 * time.Hour
	}
	return &IngestionService{
		shops:          shops,
		channels:       channels,
		normalizer:     normalizer,
		lifecycle:      lifecycle,
		idempotency:    idempotency,
		archive:        archive,
		idempotencyTTL: idempotencyTTL,
	}
}

// IngestShopWebhook handles a delivery on a shop's ingress route
func (s *IngestionService) IngestShopWebhook(ctx context.Context, shopID uuid.UUID, d Delivery) (*Result, error) {
	if err := checkSide(d.Topic, integration.PlatformKindShop); err != nil {
		return nil, err
	}
	shop, err := s.shops.FindByIDUnscoped(ctx, shopID)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithShop(ctx, shop.ID)
	return s.ingest(ctx, "shop:"+shop.ID.String(), platformName(shop.Platform), shop.PlatformConfig(), d,
		func(ctx context.Context, ev integration.WebhookEvent, res *Result) error {
			switch e := ev.(type) {
			case integration.OrderCreatedEvent:
				o, err := s.lifecycle.HandleOrderCreated(ctx, shop, e)
				if err != nil {
					return err
				}
				res.OrderID = &o.ID
				return nil
			case integration.OrderCancelledEvent:
				return s.lifecycle.HandleOrderCancelled(ctx, shop, e)
			default:
				return fmt.Errorf("%w: %s", integration.ErrUnsupportedTopic, ev.Kind())
			}
		})
}

// IngestChannelWebhook handles a delivery on a channel's ingress route
func (s *IngestionService) IngestChannelWebhook(ctx context.Context, channelID uuid.UUID, d Delivery) (*Result, error) {
	if err := checkSide(d.Topic, integration.PlatformKindChannel); err != nil {
		return nil, err
	}
	channel, err := s.channels.FindByIDUnscoped(ctx, channelID)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithChannel(ctx, channel.ID)
	return s.ingest(ctx, "channel:"+channel.ID.String(), platformName(channel.Platform), channel.PlatformConfig(), d,
		func(ctx context.Context, ev integration.WebhookEvent, _ *Result) error {
			switch e := ev.(type) {
			case integration.TrackingCreatedEvent:
				return s.lifecycle.HandleTrackingCreated(ctx, channel, e)
			case integration.PurchaseCancelledEvent:
				return s.lifecycle.HandlePurchaseCancelled(ctx, channel, e)
			default:
				return fmt.Errorf("%w: %s", integration.ErrUnsupportedTopic, ev.Kind())
			}
		})
}

func (s *IngestionService) ingest(
	ctx context.Context,
	scope, platform string,
	cfg integration.PlatformConfig,
	d Delivery,
	dispatch func(context.Context, integration.WebhookEvent, *Result) error,
) (*Result, error) {
	deliveryID := DeliveryID(d.Headers, d.Body)
	ctx = logger.WithDelivery(ctx, string(d.Topic), deliveryID)
	log := logger.L(ctx)
	key := fmt.Sprintf("webhook:%s:%s:%s", scope, d.Topic, deliveryID)
	res := &Result{DeliveryID: deliveryID}

	if s.idempotency != nil {
		seen, err := s.idempotency.IsProcessed(ctx, key)
		if err != nil {
			log.Warn("Idempotency lookup failed, processing delivery",
				zap.String("key", key), zap.Error(err))
		}
		if seen {
			log.Info("Duplicate webhook delivery acknowledged")
			res.Duplicate = true
			return res, nil
		}
	}

	ev, err := s.normalizer.Normalize(ctx, cfg, d.Topic, d.Body, d.Headers)
	if err != nil {
		if integration.IsSignatureError(err) {
			log.Warn("Webhook rejected: invalid signature", zap.Error(err))
		}
		return nil, err
	}
	res.Event = ev.Kind()

	s.archivePayload(ctx, platform, deliveryID, d)

	if err := dispatch(ctx, ev, res); err != nil {
		log.Error("Webhook dispatch failed",
			zap.String("event", string(ev.Kind())),
			zap.Error(err))
		return nil, err
	}

	if s.idempotency != nil {
		if _, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL); err != nil {
			log.Warn("Failed to mark webhook delivery processed",
				zap.String("key", key), zap.Error(err))
		}
	}

	log.Info("Webhook processed", zap.String("event", string(ev.Kind())))
	return res, nil
}

// archivePayload stores the accepted payload. Failures are logged only.
func (s *IngestionService) archivePayload(ctx context.Context, platform, deliveryID string, d Delivery) {
	err := s.archive.Archive(context.WithoutCancel(ctx), ArchivedPayload{
		Platform:   platform,
		Topic:      string(d.Topic),
		DeliveryID: deliveryID,
		ReceivedAt: time.Now(),
		Headers:    flattenHeaders(d.Headers),
		Body:       d.Body,
	})
	if err != nil {
		logger.L(ctx).Warn("Failed to archive webhook payload", zap.Error(err))
	}
}

// DeliveryID returns the platform delivery id, or the hex sha256 of body
func DeliveryID(headers http.Header, body []byte) string {
	for _, name := range DeliveryIDHeaders {
		if v := headers.Get(name); v != "" {
			return v
		}
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func checkSide(topic integration.WebhookTopic, side integration.PlatformKind) error {
	_, kind, err := topic.Operation()
	if err != nil {
		return shared.WrapDomainError("UNSUPPORTED_TOPIC", err.Error(), err)
	}
	if kind != side {
		err := fmt.Errorf("%w: %s is not a %s topic", integration.ErrUnsupportedTopic, topic, side)
		return shared.WrapDomainError("UNSUPPORTED_TOPIC", err.Error(), err)
	}
	return nil
}

func platformName(p *integration.Platform) string {
	if p == nil {
		return "unknown"
	}
	return p.Name
}
