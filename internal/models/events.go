package models

import "time"

// Event types
const (
	EventTypeOrderCompleted  = "ORDER_COMPLETED"
	EventTypeOrderCancelled  = "ORDER_CANCELLED"
	EventTypePaymentCaptured = "PAYMENT_CAPTURED"
	EventTypePaymentFailed   = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCompletedEvent published when an order reaches completed.
// Amounts travel as decimal strings; JSON floats are not money-safe.
type OrderCompletedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	Total       string `json:"total"`
	PaymentMode string `json:"payment_mode"`
}

// OrderCancelledEvent published when an order is discarded
type OrderCancelledEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

// PaymentCapturedEvent published on every successful capture
type PaymentCapturedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	Mode      string `json:"mode"`
	Amount    string `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

// PaymentFailedEvent published when a capture attempt is rejected
type PaymentFailedEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}
