package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item represents a sellable catalog entry. The order core only reads
// items; catalog CRUD lives elsewhere.
type Item struct {
	ID           int64           `db:"id" json:"id"`
	SKU          string          `db:"sku" json:"sku"`
	Barcode      string          `db:"barcode" json:"barcode"`
	Name         string          `db:"name" json:"name"`
	SellingPrice decimal.Decimal `db:"selling_price" json:"selling_price"`
	TaxClass     string          `db:"tax_class" json:"tax_class"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// ItemRef identifies an item by id, SKU or barcode. Resolution priority
// is id, then SKU, then barcode; the first match wins.
type ItemRef struct {
	ItemID  int64  `json:"item_id,omitempty"`
	SKU     string `json:"sku_code,omitempty"`
	Barcode string `json:"barcode,omitempty"`
}

// Customer is a non-owning reference from orders; a nil customer is a
// walk-in sale.
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email,omitempty"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order represents a single customer transaction.
type Order struct {
	ID               int64           `db:"id" json:"id"`
	CustomerID       *int64          `db:"customer_id" json:"customer_id,omitempty"`
	Status           string          `db:"status" json:"status"`
	Discount         decimal.Decimal `db:"discount" json:"discount"`
	Notes            string          `db:"notes" json:"notes,omitempty"`
	IsPaid           bool            `db:"is_paid" json:"is_paid"`
	PaymentMode      string          `db:"payment_mode" json:"payment_mode,omitempty"`
	PaymentReference string          `db:"payment_reference" json:"payment_reference,omitempty"`
	PaymentDate      *time.Time      `db:"payment_date" json:"payment_date,omitempty"`
	AmountPaid       decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	ChangeDue        decimal.Decimal `db:"change_due" json:"change_due"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the order permits no further mutation.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// OrderLine is one item-quantity-price entry within an order. UnitPrice
// and TaxClass are snapshots taken when the line is created; later
// catalog price changes do not move open orders.
type OrderLine struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ItemID    int64           `db:"item_id" json:"item_id"`
	ItemName  string          `db:"item_name" json:"item_name"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	TaxClass  string          `db:"tax_class" json:"tax_class"`
}

// Payment is the audit record of one successful capture.
type Payment struct {
	ID             int64           `db:"id" json:"id"`
	OrderID        int64           `db:"order_id" json:"order_id"`
	Mode           string          `db:"mode" json:"mode"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Reference      string          `db:"reference" json:"reference,omitempty"`
	GatewayOrderID string          `db:"gateway_order_id" json:"gateway_order_id,omitempty"`
	Reason         string          `db:"reason" json:"reason,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// PaymentCapture carries everything a completion path writes onto an
// order in one transaction.
type PaymentCapture struct {
	Mode           string
	Reference      string
	GatewayOrderID string
	Reason         string
	AmountPaid     decimal.Decimal
	ChangeDue      decimal.Decimal
	PaidAt         time.Time
}

// Order statuses
const (
	OrderStatusDraft     = "draft"
	OrderStatusActive    = "active"
	OrderStatusHeld      = "held"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Payment modes
const (
	PaymentModeCash          = "cash"
	PaymentModeCard          = "card"
	PaymentModeUPI           = "upi"
	PaymentModeGateway       = "razorpay"
	PaymentModeNonChargeable = "non_chargeable"
)

// Tax classifications
const (
	TaxClassNone = "none"
	TaxClassGST  = "gst"
	TaxClassCGST = "cgst"
	TaxClassSGST = "sgst"
)

// ProcessedEvent for idempotent event consumers
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
