package worker

import (
	"context"
	"log"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes order and payment events and drives the
// notification side effects that live outside the order/payment core.
// Consumption is idempotent: each event id is processed at most once.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, st *store.Store) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		store:    st,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCompleted(w.handleOrderCompleted)
	eventHandler.OnOrderCancelled(w.handleOrderCancelled)
	eventHandler.OnPaymentCaptured(w.handlePaymentCaptured)
	eventHandler.OnPaymentFailed(w.handlePaymentFailed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) alreadyProcessed(ctx context.Context, base models.BaseEvent) (bool, error) {
	processed, err := w.store.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return false, err
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", base.EventID))
	}
	return processed, nil
}

func (w *NotificationWorker) markProcessed(ctx context.Context, base models.BaseEvent) {
	if err := w.store.MarkEventProcessed(ctx, base.EventID, base.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}
}

func (w *NotificationWorker) handleOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error {
	processed, err := w.alreadyProcessed(ctx, event.BaseEvent)
	if err != nil || processed {
		return err
	}

	// Hook for the notification layer: receipt printing, customer
	// messaging and similar side effects observe this event.
	w.logger.Info("Order completed, receipt ready",
		zap.Int64("order_id", event.OrderID),
		zap.String("total", event.Total),
		zap.String("payment_mode", event.PaymentMode))

	w.markProcessed(ctx, event.BaseEvent)
	return nil
}

func (w *NotificationWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	processed, err := w.alreadyProcessed(ctx, event.BaseEvent)
	if err != nil || processed {
		return err
	}

	w.logger.Info("Order cancelled",
		zap.Int64("order_id", event.OrderID),
		zap.String("reason", event.Reason))

	w.markProcessed(ctx, event.BaseEvent)
	return nil
}

func (w *NotificationWorker) handlePaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error {
	processed, err := w.alreadyProcessed(ctx, event.BaseEvent)
	if err != nil || processed {
		return err
	}

	w.logger.Info("Payment captured",
		zap.Int64("order_id", event.OrderID),
		zap.String("mode", event.Mode),
		zap.String("amount", event.Amount))

	w.markProcessed(ctx, event.BaseEvent)
	return nil
}

func (w *NotificationWorker) handlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	processed, err := w.alreadyProcessed(ctx, event.BaseEvent)
	if err != nil || processed {
		return err
	}

	w.logger.Warn("Payment attempt failed",
		zap.Int64("order_id", event.OrderID),
		zap.String("reason", event.Reason))

	w.markProcessed(ctx, event.BaseEvent)
	return nil
}
