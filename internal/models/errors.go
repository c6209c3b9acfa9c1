package models

import "errors"

// Domain error kinds. Services wrap these with context via fmt.Errorf
// and callers match with errors.Is; the API layer maps each kind to an
// HTTP status class.
var (
	ErrItemNotFound            = errors.New("item not found")
	ErrInvalidQuantity         = errors.New("quantity must be at least 1")
	ErrInvalidDiscount         = errors.New("invalid discount")
	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderClosed             = errors.New("order is closed")
	ErrOrderAlreadyPaid        = errors.New("order is already paid")
	ErrOrderNotPaid            = errors.New("order is not paid")
	ErrLineNotFound            = errors.New("item not in order")
	ErrPaymentAlreadyCompleted = errors.New("payment already completed")
	ErrSignatureVerification   = errors.New("signature verification failed")
	ErrGatewayUnavailable      = errors.New("payment gateway unavailable")
	ErrInsufficientPayment     = errors.New("insufficient payment")
	ErrInvalidPayment          = errors.New("invalid payment request")
)
