package service

import (
	"context"
	"fmt"
	"time"

	"pos-service/internal/gateway"
	"pos-service/internal/models"
	"pos-service/internal/money"
	"pos-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService is the single authority over payment state: it alone
// sets the paid fields on an order and it alone talks to the gateway.
// Every completion path funnels into one conditional update, so at most
// one capture succeeds per order.
type PaymentService struct {
	store    Store
	gateway  gateway.Client
	events   EventPublisher
	logger   *zap.Logger
	currency string
	keyID    string
}

// NewPaymentService creates a new payment service. The gateway client
// is injected so tests can substitute a double.
func NewPaymentService(store Store, gw gateway.Client, events EventPublisher, currency, keyID string) *PaymentService {
	return &PaymentService{
		store:    store,
		gateway:  gw,
		events:   events,
		logger:   util.GetLogger(),
		currency: currency,
		keyID:    keyID,
	}
}

// GatewayCheckout is the hand-off payload for the payment UI
type GatewayCheckout struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	Amount           string `json:"amount"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Currency         string `json:"currency"`
	KeyID            string `json:"key_id"`
}

// ManualPaymentRequest records a capture taken at the till
type ManualPaymentRequest struct {
	OrderID        int64            `json:"order_id"`
	Mode           string           `json:"mode"`
	AmountReceived *decimal.Decimal `json:"amount_received,omitempty"`
	Reference      string           `json:"reference,omitempty"`
	Reason         string           `json:"reason,omitempty"`
}

// InitiateGatewayPayment creates a remote payment intent for an unpaid
// order. The order total is converted to minor units once, after a
// single 2-place rounding.
func (ps *PaymentService) InitiateGatewayPayment(ctx context.Context, orderID int64) (*GatewayCheckout, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.InitiateGatewayPayment")
	defer span.End()

	order, err := ps.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, fmt.Errorf("%w: order %d", models.ErrPaymentAlreadyCompleted, orderID)
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order %d is cancelled", models.ErrOrderClosed, orderID)
	}

	lines, err := ps.store.GetOrderLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	totals := money.OrderTotals(lines, order.Discount)
	amountMinor := money.ToMinorUnits(totals.Total)

	util.PaymentAttemptsTotal.WithLabelValues(models.PaymentModeGateway).Inc()

	start := time.Now()
	gwOrder, err := ps.gateway.CreateOrder(ctx, amountMinor, ps.currency, fmt.Sprintf("order-%d", orderID))
	util.GatewayRequestLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.PaymentFailedTotal.WithLabelValues("gateway_unavailable").Inc()
		ps.logger.Error("Gateway order creation failed",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return nil, err
	}

	ps.logger.Info("Gateway payment initiated",
		zap.Int64("order_id", orderID),
		zap.String("gateway_order_id", gwOrder.ID),
		zap.Int64("amount_minor", amountMinor))

	return &GatewayCheckout{
		GatewayOrderID:   gwOrder.ID,
		Amount:           money.Display(totals.Total),
		AmountMinorUnits: amountMinor,
		Currency:         ps.currency,
		KeyID:            ps.keyID,
	}, nil
}

// VerifyGatewayPayment checks the gateway signature over the completed
// transaction and, on success, atomically marks the order paid and
// completed. A bad signature leaves the order untouched.
func (ps *PaymentService) VerifyGatewayPayment(ctx context.Context, orderID int64, gatewayOrderID, gatewayPaymentID, signature string) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.VerifyGatewayPayment")
	defer span.End()

	order, err := ps.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.IsPaid {
		return fmt.Errorf("%w: order %d", models.ErrPaymentAlreadyCompleted, orderID)
	}

	if err := ps.gateway.VerifySignature(gatewayOrderID, gatewayPaymentID, signature); err != nil {
		util.PaymentFailedTotal.WithLabelValues("bad_signature").Inc()
		ps.logger.Warn("Gateway signature rejected",
			zap.Int64("order_id", orderID),
			zap.String("gateway_order_id", gatewayOrderID))
		ps.publishPaymentFailed(ctx, orderID, "signature verification failed")
		return err
	}

	lines, err := ps.store.GetOrderLines(ctx, orderID)
	if err != nil {
		return err
	}
	totals := money.OrderTotals(lines, order.Discount)

	capture := &models.PaymentCapture{
		Mode:           models.PaymentModeGateway,
		Reference:      gatewayPaymentID,
		GatewayOrderID: gatewayOrderID,
		AmountPaid:     totals.Total,
		ChangeDue:      decimal.Zero,
		PaidAt:         time.Now(),
	}
	if err := ps.store.CompleteOrderPayment(ctx, orderID, capture); err != nil {
		return err
	}

	util.PaymentCapturedTotal.WithLabelValues(models.PaymentModeGateway).Inc()
	util.OrdersCompletedTotal.Inc()
	ps.logger.Info("Gateway payment captured",
		zap.Int64("order_id", orderID),
		zap.String("gateway_payment_id", gatewayPaymentID),
		zap.String("amount", money.Display(totals.Total)))

	ps.publishCaptured(ctx, orderID, capture)
	return nil
}

// RecordManualPayment captures a cash, card, UPI or non-chargeable
// settlement against an order's outstanding total. Cash may overpay;
// change due is computed and persisted. Card and UPI must match the
// total exactly. Underpayment is rejected, never partially recorded.
func (ps *PaymentService) RecordManualPayment(ctx context.Context, req *ManualPaymentRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.RecordManualPayment")
	defer span.End()

	switch req.Mode {
	case models.PaymentModeCash, models.PaymentModeCard, models.PaymentModeUPI, models.PaymentModeNonChargeable:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", models.ErrInvalidPayment, req.Mode)
	}

	order, err := ps.store.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, fmt.Errorf("%w: order %d", models.ErrPaymentAlreadyCompleted, req.OrderID)
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order %d is cancelled", models.ErrOrderClosed, req.OrderID)
	}

	lines, err := ps.store.GetOrderLines(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	totals := money.OrderTotals(lines, order.Discount)

	util.PaymentAttemptsTotal.WithLabelValues(req.Mode).Inc()

	capture := &models.PaymentCapture{
		Mode:      req.Mode,
		Reference: req.Reference,
		ChangeDue: decimal.Zero,
		PaidAt:    time.Now(),
	}

	if req.Mode == models.PaymentModeNonChargeable {
		if req.Reason == "" {
			return nil, fmt.Errorf("%w: non-chargeable settlement requires a reason", models.ErrInvalidPayment)
		}
		capture.Reason = req.Reason
		capture.AmountPaid = decimal.Zero
	} else {
		if req.AmountReceived == nil {
			return nil, fmt.Errorf("%w: amount_received is required for %s", models.ErrInvalidPayment, req.Mode)
		}
		received := *req.AmountReceived

		if received.LessThan(totals.Total) {
			util.PaymentFailedTotal.WithLabelValues("insufficient").Inc()
			ps.publishPaymentFailed(ctx, req.OrderID, "insufficient payment")
			return nil, fmt.Errorf("%w: received %s, total %s",
				models.ErrInsufficientPayment, money.Display(received), money.Display(totals.Total))
		}
		if received.GreaterThan(totals.Total) && req.Mode != models.PaymentModeCash {
			return nil, fmt.Errorf("%w: %s payment must match total %s",
				models.ErrInvalidPayment, req.Mode, money.Display(totals.Total))
		}

		capture.AmountPaid = received
		capture.ChangeDue = received.Sub(totals.Total)
	}

	if err := ps.store.CompleteOrderPayment(ctx, req.OrderID, capture); err != nil {
		return nil, err
	}

	util.PaymentCapturedTotal.WithLabelValues(req.Mode).Inc()
	util.OrdersCompletedTotal.Inc()
	ps.logger.Info("Manual payment captured",
		zap.Int64("order_id", req.OrderID),
		zap.String("mode", req.Mode),
		zap.String("amount", money.Display(capture.AmountPaid)),
		zap.String("change_due", money.Display(capture.ChangeDue)))

	ps.publishCaptured(ctx, req.OrderID, capture)

	return ps.store.GetOrderByID(ctx, req.OrderID)
}

func (ps *PaymentService) publishCaptured(ctx context.Context, orderID int64, capture *models.PaymentCapture) {
	captured := &models.PaymentCapturedEvent{
		BaseEvent: newBaseEvent(models.EventTypePaymentCaptured),
		OrderID:   orderID,
		Mode:      capture.Mode,
		Amount:    money.Display(capture.AmountPaid),
		Reference: capture.Reference,
	}
	if err := ps.events.PublishPaymentCaptured(ctx, captured); err != nil {
		ps.logger.Error("Failed to publish PaymentCaptured event", zap.Error(err))
	}

	completed := &models.OrderCompletedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderCompleted),
		OrderID:     orderID,
		Total:       money.Display(capture.AmountPaid.Sub(capture.ChangeDue)),
		PaymentMode: capture.Mode,
	}
	if err := ps.events.PublishOrderCompleted(ctx, completed); err != nil {
		ps.logger.Error("Failed to publish OrderCompleted event", zap.Error(err))
	}
}

func (ps *PaymentService) publishPaymentFailed(ctx context.Context, orderID int64, reason string) {
	event := &models.PaymentFailedEvent{
		BaseEvent: newBaseEvent(models.EventTypePaymentFailed),
		OrderID:   orderID,
		Reason:    reason,
	}
	if err := ps.events.PublishPaymentFailed(ctx, event); err != nil {
		ps.logger.Error("Failed to publish PaymentFailed event", zap.Error(err))
	}
}
