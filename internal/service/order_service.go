package service

import (
	"context"
	"fmt"

	"pos-service/internal/models"
	"pos-service/internal/money"
	"pos-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService owns the order state machine: draft -> active ->
// {held, completed, cancelled}, held -> active. Terminal orders reject
// every mutation.
type OrderService struct {
	store   Store
	catalog ItemResolver
	events  EventPublisher
	logger  *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store Store, catalog ItemResolver, events EventPublisher) *OrderService {
	return &OrderService{
		store:   store,
		catalog: catalog,
		events:  events,
		logger:  util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to open an order
type CreateOrderRequest struct {
	CustomerID *int64 `json:"customer_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// AddItemRequest references one item to add to an order
type AddItemRequest struct {
	ItemID   int64  `json:"item_id,omitempty"`
	SKU      string `json:"sku_code,omitempty"`
	Barcode  string `json:"barcode,omitempty"`
	Quantity int    `json:"quantity"`
}

// OrderView is an order with its lines and computed totals
type OrderView struct {
	Order  *models.Order      `json:"order"`
	Lines  []models.OrderLine `json:"lines"`
	Totals money.Totals       `json:"totals"`
}

// CreateOrder opens a new draft order
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	order := &models.Order{
		CustomerID: req.CustomerID,
		Status:     models.OrderStatusDraft,
		Discount:   decimal.Zero,
		Notes:      req.Notes,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created", zap.Int64("order_id", order.ID))
	return order, nil
}

// GetOrder retrieves an order with lines and totals
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*OrderView, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.GetOrderLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderView{
		Order:  order,
		Lines:  lines,
		Totals: money.OrderTotals(lines, order.Discount),
	}, nil
}

// ListOrders retrieves orders, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	return s.store.ListOrdersByStatus(ctx, status)
}

// AddItems resolves and adds items to an order. An item already on the
// order accumulates quantity instead of growing a second line; the unit
// price is snapshotted from the catalog at add time.
func (s *OrderService) AddItems(ctx context.Context, orderID int64, items []AddItemRequest) ([]models.OrderLine, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AddItems")
	defer span.End()

	added := make([]models.OrderLine, 0, len(items))
	for _, req := range items {
		if req.Quantity < 1 {
			return nil, fmt.Errorf("%w: got %d", models.ErrInvalidQuantity, req.Quantity)
		}

		item, err := s.catalog.Resolve(ctx, models.ItemRef{
			ItemID:  req.ItemID,
			SKU:     req.SKU,
			Barcode: req.Barcode,
		})
		if err != nil {
			return nil, err
		}
		if !item.IsActive {
			return nil, fmt.Errorf("%w: item %d is inactive", models.ErrItemNotFound, item.ID)
		}

		line, err := s.store.AddOrderLine(ctx, orderID, item, req.Quantity)
		if err != nil {
			return nil, err
		}
		added = append(added, *line)
		util.OrderLinesAddedTotal.Inc()
	}

	s.logger.Info("Items added to order",
		zap.Int64("order_id", orderID),
		zap.Int("count", len(added)))
	return added, nil
}

// EditLine sets the quantity of an existing line. Quantities below 1
// are rejected; removing an item is the explicit RemoveLine operation.
func (s *OrderService) EditLine(ctx context.Context, orderID, itemID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: got %d, use remove to delete a line", models.ErrInvalidQuantity, quantity)
	}
	return s.store.SetLineQuantity(ctx, orderID, itemID, quantity)
}

// RemoveLine deletes a line from an order
func (s *OrderService) RemoveLine(ctx context.Context, orderID, itemID int64) error {
	return s.store.RemoveOrderLine(ctx, orderID, itemID)
}

// ApplyDiscount validates and stores an order-level discount
func (s *OrderService) ApplyDiscount(ctx context.Context, orderID int64, discount decimal.Decimal) error {
	ctx, span := util.StartSpan(ctx, "OrderService.ApplyDiscount")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.IsPaid {
		return fmt.Errorf("%w: order %d", models.ErrOrderAlreadyPaid, orderID)
	}
	if order.Terminal() {
		return fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}

	lines, err := s.store.GetOrderLines(ctx, orderID)
	if err != nil {
		return err
	}
	if err := money.ValidateDiscount(lines, discount); err != nil {
		return err
	}

	if err := s.store.SetOrderDiscount(ctx, orderID, discount); err != nil {
		return err
	}

	util.DiscountsAppliedTotal.Inc()
	s.logger.Info("Discount applied",
		zap.Int64("order_id", orderID),
		zap.String("discount", money.Display(discount)))
	return nil
}

// Hold parks an open order
func (s *OrderService) Hold(ctx context.Context, orderID int64, note string) error {
	if note != "" {
		if err := s.store.SetOrderNotes(ctx, orderID, note); err != nil {
			return err
		}
	}
	err := s.store.SetOrderStatus(ctx, orderID,
		[]string{models.OrderStatusDraft, models.OrderStatusActive},
		models.OrderStatusHeld)
	if err != nil {
		return err
	}
	util.OrdersHeldTotal.Inc()
	return nil
}

// Resume reactivates a held order
func (s *OrderService) Resume(ctx context.Context, orderID int64) error {
	return s.store.SetOrderStatus(ctx, orderID,
		[]string{models.OrderStatusHeld}, models.OrderStatusActive)
}

// Discard cancels an order. Paid orders cannot be discarded.
func (s *OrderService) Discard(ctx context.Context, orderID int64, reason string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.Discard")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.IsPaid {
		return fmt.Errorf("%w: order %d", models.ErrOrderAlreadyPaid, orderID)
	}

	err = s.store.SetOrderStatus(ctx, orderID,
		[]string{models.OrderStatusDraft, models.OrderStatusActive, models.OrderStatusHeld},
		models.OrderStatusCancelled)
	if err != nil {
		return err
	}

	util.OrdersDiscardedTotal.Inc()
	s.logger.Info("Order discarded",
		zap.Int64("order_id", orderID),
		zap.String("reason", reason))

	event := &models.OrderCancelledEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderCancelled),
		OrderID:   orderID,
		Reason:    reason,
	}
	if err := s.events.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}
	return nil
}

// AddNote attaches free-text notes to a non-terminal order
func (s *OrderService) AddNote(ctx context.Context, orderID int64, notes string) error {
	return s.store.SetOrderNotes(ctx, orderID, notes)
}

// Close completes a paid order. Payment completion already closes
// orders; this covers the paid-but-reopened edge and is idempotent for
// orders that are already completed.
func (s *OrderService) Close(ctx context.Context, orderID int64) error {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.IsPaid {
		return fmt.Errorf("%w: order %d", models.ErrOrderNotPaid, orderID)
	}
	if order.Status == models.OrderStatusCompleted {
		return nil
	}
	return s.store.SetOrderStatus(ctx, orderID,
		[]string{models.OrderStatusActive, models.OrderStatusHeld},
		models.OrderStatusCompleted)
}
