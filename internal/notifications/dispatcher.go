package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
	"github.com/velamart/velamart-backend/pkg/logger"
	"github.com/velamart/velamart-backend/pkg/outbox"
	"github.com/velamart/velamart-backend/pkg/outbox/payloads"
	"github.com/velamart/velamart-backend/pkg/redis"
)

const (
	relatedOrder   = "order"
	relatedProduct = "product"
)

// Dispatcher turns outbox events into notification rows. It runs from the
// worker loop, so every handler must be safe to retry: reprocessing an event
// creates a duplicate row at worst, never corrupts state.
type Dispatcher struct {
	repo  *Repository
	cache *listingCache
	logg  *logger.Logger
}

// NewDispatcher constructs the fan-out handler. The redis client is optional.
func NewDispatcher(repo *Repository, redisClient *redis.Client, cacheTTL time.Duration, logg *logger.Logger) (*Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	return &Dispatcher{
		repo:  repo,
		cache: newListingCache(redisClient, cacheTTL, logg),
		logg:  logg,
	}, nil
}

// Dispatch routes one outbox event to its notification handler.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.OutboxEvent) error {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	switch event.EventType {
	case enums.OutboxEventTypeOrderPlaced:
		return d.handleOrderPlaced(ctx, envelope.Data)
	case enums.OutboxEventTypeVendorOrderReceived:
		return d.handleVendorOrderReceived(ctx, envelope.Data)
	case enums.OutboxEventTypeOrderStatusChanged:
		return d.handleOrderStatusChanged(ctx, envelope.Data)
	case enums.OutboxEventTypeProductUpdated:
		return d.handleProductUpdated(ctx, envelope.Data)
	case enums.OutboxEventTypeSystemMessage:
		return d.handleSystemMessage(ctx, envelope.Data)
	default:
		// Unknown types are dropped, not retried: a newer writer may emit
		// events this worker build does not know yet.
		if d.logg != nil {
			d.logg.Warn(ctx, "skipping unknown outbox event type")
		}
		return nil
	}
}

func (d *Dispatcher) handleOrderPlaced(ctx context.Context, data json.RawMessage) error {
	var payload payloads.OrderPlacedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode order.placed: %w", err)
	}
	return d.notify(ctx, &models.Notification{
		RecipientID:       payload.CustomerID,
		Type:              enums.NotificationTypeOrderPlaced,
		Title:             "Order placed",
		Message:           fmt.Sprintf("Your order %s has been placed.", payload.OrderNumber),
		RelatedObjectType: related(relatedOrder),
		RelatedObjectID:   &payload.OrderID,
	})
}

func (d *Dispatcher) handleVendorOrderReceived(ctx context.Context, data json.RawMessage) error {
	var payload payloads.VendorOrderReceivedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode order.vendor_received: %w", err)
	}
	return d.notify(ctx, &models.Notification{
		RecipientID:       payload.VendorUserID,
		Type:              enums.NotificationTypeOrderPlaced,
		Title:             "New order received",
		Message:           fmt.Sprintf("Order %s includes %d of your items.", payload.OrderNumber, payload.ItemCount),
		RelatedObjectType: related(relatedOrder),
		RelatedObjectID:   &payload.OrderID,
	})
}

func (d *Dispatcher) handleOrderStatusChanged(ctx context.Context, data json.RawMessage) error {
	var payload payloads.OrderStatusChangedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode order.status_changed: %w", err)
	}
	return d.notify(ctx, &models.Notification{
		RecipientID:       payload.CustomerID,
		Type:              enums.NotificationTypeOrderUpdated,
		Title:             "Order updated",
		Message:           fmt.Sprintf("Order %s is now %s.", payload.OrderNumber, payload.NewStatus),
		RelatedObjectType: related(relatedOrder),
		RelatedObjectID:   &payload.OrderID,
	})
}

func (d *Dispatcher) handleProductUpdated(ctx context.Context, data json.RawMessage) error {
	var payload payloads.ProductUpdatedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode product.updated: %w", err)
	}
	return d.notify(ctx, &models.Notification{
		RecipientID:       payload.VendorUserID,
		Type:              enums.NotificationTypeProductUpdated,
		Title:             "Product updated",
		Message:           fmt.Sprintf("Listing %q was updated.", payload.Name),
		RelatedObjectType: related(relatedProduct),
		RelatedObjectID:   &payload.ProductID,
	})
}

func (d *Dispatcher) handleSystemMessage(ctx context.Context, data json.RawMessage) error {
	var payload payloads.SystemMessageEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode system.message: %w", err)
	}
	return d.notify(ctx, &models.Notification{
		RecipientID: payload.RecipientID,
		Type:        enums.NotificationTypeSystem,
		Title:       payload.Title,
		Message:     payload.Message,
	})
}

func (d *Dispatcher) notify(ctx context.Context, notification *models.Notification) error {
	if notification.RecipientID == uuid.Nil {
		return fmt.Errorf("notification has no recipient")
	}
	if err := d.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	d.cache.invalidate(ctx, notification.RecipientID)
	return nil
}

func related(objectType string) *string {
	return &objectType
}
