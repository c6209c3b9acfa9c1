package service

import (
	"context"
	"time"

	"pos-service/internal/money"
)

const walkInCustomer = "Walk-in Customer"

// ReceiptService projects orders into printable receipts. Read-only;
// safe to call any number of times.
type ReceiptService struct {
	store Store
}

// NewReceiptService creates a new receipt projector
func NewReceiptService(store Store) *ReceiptService {
	return &ReceiptService{store: store}
}

// ReceiptLine is one printed line item
type ReceiptLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// Receipt is the printable projection of an order
type Receipt struct {
	OrderID     int64         `json:"order_id"`
	Customer    string        `json:"customer"`
	Date        string        `json:"date"`
	Items       []ReceiptLine `json:"items"`
	Subtotal    string        `json:"subtotal"`
	Tax         string        `json:"tax"`
	Discount    string        `json:"discount"`
	Total       string        `json:"total"`
	PaymentMode string        `json:"payment_mode,omitempty"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	ChangeDue   string        `json:"change_due,omitempty"`
}

// BuildReceipt assembles the receipt for an order
func (rs *ReceiptService) BuildReceipt(ctx context.Context, orderID int64) (*Receipt, error) {
	order, err := rs.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := rs.store.GetOrderLines(ctx, orderID)
	if err != nil {
		return nil, err
	}

	customer := walkInCustomer
	if order.CustomerID != nil {
		c, err := rs.store.GetCustomerByID(ctx, *order.CustomerID)
		if err == nil {
			customer = c.Name
		}
	}

	totals := money.OrderTotals(lines, order.Discount)

	receipt := &Receipt{
		OrderID:     order.ID,
		Customer:    customer,
		Date:        order.CreatedAt.Format("2006-01-02 15:04"),
		Items:       make([]ReceiptLine, 0, len(lines)),
		Subtotal:    money.Display(totals.Subtotal),
		Tax:         money.Display(totals.Tax),
		Discount:    money.Display(totals.Discount),
		Total:       money.Display(totals.Total),
		PaymentMode: order.PaymentMode,
		PaidAt:      order.PaymentDate,
	}
	if order.IsPaid && order.ChangeDue.IsPositive() {
		receipt.ChangeDue = money.Display(order.ChangeDue)
	}

	for _, l := range lines {
		receipt.Items = append(receipt.Items, ReceiptLine{
			Name:      l.ItemName,
			Quantity:  l.Quantity,
			UnitPrice: money.Display(l.UnitPrice),
			LineTotal: money.Display(money.LineTotal(l)),
		})
	}
	return receipt, nil
}
