package service

import (
	"context"
	"time"

	"pos-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence surface the services depend on, implemented
// by store.Store. Narrowed to an interface so service tests can run
// against an in-memory fake.
type Store interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByStatus(ctx context.Context, status string) ([]models.Order, error)
	GetOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error)
	AddOrderLine(ctx context.Context, orderID int64, item *models.Item, quantity int) (*models.OrderLine, error)
	SetLineQuantity(ctx context.Context, orderID, itemID int64, quantity int) error
	RemoveOrderLine(ctx context.Context, orderID, itemID int64) error
	SetOrderStatus(ctx context.Context, orderID int64, from []string, to string) error
	SetOrderDiscount(ctx context.Context, orderID int64, discount decimal.Decimal) error
	SetOrderNotes(ctx context.Context, orderID int64, notes string) error
	CompleteOrderPayment(ctx context.Context, orderID int64, capture *models.PaymentCapture) error
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
}

// ItemResolver resolves catalog items, implemented by catalog.Lookup.
type ItemResolver interface {
	Resolve(ctx context.Context, ref models.ItemRef) (*models.Item, error)
}

// EventPublisher publishes domain events, implemented by
// broker.EventPublisher. Publishing is fire-and-forget: failures are
// logged and never fail the originating operation.
type EventPublisher interface {
	PublishOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
	PublishPaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error
	PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
