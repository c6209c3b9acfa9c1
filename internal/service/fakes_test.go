package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pos-service/internal/gateway"
	"pos-service/internal/models"

	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory Store with the same guard semantics as the
// SQL implementation.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]*models.Order
	lines     map[int64][]*models.OrderLine
	customers map[int64]*models.Customer
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:    make(map[int64]*models.Order),
		lines:     make(map[int64][]*models.OrderLine),
		customers: make(map[int64]*models.Customer),
	}
}

func (f *fakeStore) CreateOrder(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	copied := *order
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrOrderNotFound, id)
	}
	copied := *order
	return &copied, nil
}

func (f *fakeStore) ListOrdersByStatus(_ context.Context, status string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []models.Order
	for _, o := range f.orders {
		if status == "" || o.Status == status {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (f *fakeStore) GetOrderLines(_ context.Context, orderID int64) ([]models.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var lines []models.OrderLine
	for _, l := range f.lines[orderID] {
		lines = append(lines, *l)
	}
	return lines, nil
}

func (f *fakeStore) AddOrderLine(_ context.Context, orderID int64, item *models.Item, quantity int) (*models.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrOrderNotFound, orderID)
	}
	if order.Terminal() {
		return nil, fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}

	for _, l := range f.lines[orderID] {
		if l.ItemID == item.ID {
			l.Quantity += quantity
			copied := *l
			return &copied, nil
		}
	}

	f.nextID++
	line := &models.OrderLine{
		ID:        f.nextID,
		OrderID:   orderID,
		ItemID:    item.ID,
		ItemName:  item.Name,
		Quantity:  quantity,
		UnitPrice: item.SellingPrice,
		TaxClass:  item.TaxClass,
	}
	f.lines[orderID] = append(f.lines[orderID], line)

	if order.Status == models.OrderStatusDraft {
		order.Status = models.OrderStatusActive
	}

	copied := *line
	return &copied, nil
}

func (f *fakeStore) SetLineQuantity(_ context.Context, orderID, itemID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrOrderNotFound, orderID)
	}
	if order.Terminal() {
		return fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}
	for _, l := range f.lines[orderID] {
		if l.ItemID == itemID {
			l.Quantity = quantity
			return nil
		}
	}
	return fmt.Errorf("%w: item %d in order %d", models.ErrLineNotFound, itemID, orderID)
}

func (f *fakeStore) RemoveOrderLine(_ context.Context, orderID, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrOrderNotFound, orderID)
	}
	if order.Terminal() {
		return fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}
	for i, l := range f.lines[orderID] {
		if l.ItemID == itemID {
			f.lines[orderID] = append(f.lines[orderID][:i], f.lines[orderID][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: item %d in order %d", models.ErrLineNotFound, itemID, orderID)
}

func (f *fakeStore) SetOrderStatus(_ context.Context, orderID int64, from []string, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrOrderNotFound, orderID)
	}
	for _, s := range from {
		if order.Status == s {
			order.Status = to
			return nil
		}
	}
	if order.IsPaid {
		return fmt.Errorf("%w: order %d", models.ErrOrderAlreadyPaid, orderID)
	}
	if order.Terminal() {
		return fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}
	return fmt.Errorf("order %d: conflicting state %s", orderID, order.Status)
}

func (f *fakeStore) SetOrderDiscount(_ context.Context, orderID int64, discount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrOrderNotFound, orderID)
	}
	if order.IsPaid {
		return fmt.Errorf("%w: order %d", models.ErrOrderAlreadyPaid, orderID)
	}
	if order.Terminal() {
		return fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}
	order.Discount = discount
	return nil
}

func (f *fakeStore) SetOrderNotes(_ context.Context, orderID int64, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrOrderNotFound, orderID)
	}
	if order.Terminal() {
		if order.IsPaid {
			return fmt.Errorf("%w: order %d", models.ErrOrderAlreadyPaid, orderID)
		}
		return fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}
	order.Notes = notes
	return nil
}

func (f *fakeStore) CompleteOrderPayment(_ context.Context, orderID int64, capture *models.PaymentCapture) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrOrderNotFound, orderID)
	}
	if order.IsPaid {
		return fmt.Errorf("%w: order %d", models.ErrPaymentAlreadyCompleted, orderID)
	}
	if order.Status == models.OrderStatusCancelled {
		return fmt.Errorf("%w: order %d is cancelled", models.ErrOrderClosed, orderID)
	}

	paidAt := capture.PaidAt
	order.IsPaid = true
	order.PaymentMode = capture.Mode
	order.PaymentReference = capture.Reference
	order.PaymentDate = &paidAt
	order.AmountPaid = capture.AmountPaid
	order.ChangeDue = capture.ChangeDue
	order.Status = models.OrderStatusCompleted
	return nil
}

func (f *fakeStore) GetCustomerByID(_ context.Context, id int64) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer not found: %d", id)
	}
	copied := *c
	return &copied, nil
}

// fakeCatalog resolves items from a fixed set with id > sku > barcode
// priority.
type fakeCatalog struct {
	items []*models.Item
}

func (f *fakeCatalog) Resolve(_ context.Context, ref models.ItemRef) (*models.Item, error) {
	if ref.ItemID != 0 {
		for _, item := range f.items {
			if item.ID == ref.ItemID {
				return item, nil
			}
		}
	}
	if ref.SKU != "" {
		for _, item := range f.items {
			if item.SKU == ref.SKU {
				return item, nil
			}
		}
	}
	if ref.Barcode != "" {
		for _, item := range f.items {
			if item.Barcode == ref.Barcode {
				return item, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no reference resolved", models.ErrItemNotFound)
}

// fakePublisher records published events
type fakePublisher struct {
	mu        sync.Mutex
	completed []*models.OrderCompletedEvent
	cancelled []*models.OrderCancelledEvent
	captured  []*models.PaymentCapturedEvent
	failed    []*models.PaymentFailedEvent
}

func (f *fakePublisher) PublishOrderCompleted(_ context.Context, e *models.OrderCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, e)
	return nil
}

func (f *fakePublisher) PublishOrderCancelled(_ context.Context, e *models.OrderCancelledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, e)
	return nil
}

func (f *fakePublisher) PublishPaymentCaptured(_ context.Context, e *models.PaymentCapturedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured = append(f.captured, e)
	return nil
}

func (f *fakePublisher) PublishPaymentFailed(_ context.Context, e *models.PaymentFailedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, e)
	return nil
}

// fakeGateway counts calls and verifies against a fixed signature
type fakeGateway struct {
	createCalls    int
	createErr      error
	validSignature string
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountMinorUnits int64, currency, receipt string) (*gateway.Order, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &gateway.Order{
		ID:       "order_gw_1",
		Amount:   amountMinorUnits,
		Currency: currency,
		Status:   "created",
	}, nil
}

func (f *fakeGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) error {
	if signature != f.validSignature {
		return fmt.Errorf("%w: order %s payment %s",
			models.ErrSignatureVerification, gatewayOrderID, gatewayPaymentID)
	}
	return nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}
