package store

import (
	"context"
	"database/sql"
	"fmt"

	"pos-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// CreateOrder creates a new order in draft status
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (customer_id, status, discount, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.CustomerID, order.Status, order.Discount, order.Notes)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", models.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByStatus retrieves orders, optionally filtered by status
func (s *Store) ListOrdersByStatus(ctx context.Context, status string) ([]models.Order, error) {
	var orders []models.Order
	if status == "" {
		err := s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders ORDER BY created_at DESC")
		return orders, err
	}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC", status)
	return orders, err
}

// GetOrderLines retrieves all lines for an order
func (s *Store) GetOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM order_lines WHERE order_id = $1 ORDER BY id", orderID)
	return lines, err
}

// AddOrderLine adds an item to an order inside one transaction: the
// order row is locked, terminal states are rejected, an existing line
// for the item accumulates quantity, and a first add moves the order
// from draft to active. The item's current price and tax class are
// snapshotted onto the line.
func (s *Store) AddOrderLine(ctx context.Context, orderID int64, item *models.Item, quantity int) (*models.OrderLine, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Terminal() {
		return nil, fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}

	var line models.OrderLine
	err = tx.GetContext(ctx, &line, `
		INSERT INTO order_lines (order_id, item_id, item_name, quantity, unit_price, tax_class)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id, item_id)
		DO UPDATE SET quantity = order_lines.quantity + EXCLUDED.quantity
		RETURNING *`,
		orderID, item.ID, item.Name, quantity, item.SellingPrice, item.TaxClass)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert order line: %w", err)
	}

	if order.Status == models.OrderStatusDraft {
		if _, err := tx.ExecContext(ctx,
			"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
			models.OrderStatusActive, orderID); err != nil {
			return nil, fmt.Errorf("failed to activate order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &line, nil
}

// SetLineQuantity updates the quantity of an existing line
func (s *Store) SetLineQuantity(ctx context.Context, orderID, itemID int64, quantity int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order.Terminal() {
		return fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE order_lines SET quantity = $1 WHERE order_id = $2 AND item_id = $3",
		quantity, orderID, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: item %d in order %d", models.ErrLineNotFound, itemID, orderID)
	}

	return tx.Commit()
}

// RemoveOrderLine deletes a line from an order
func (s *Store) RemoveOrderLine(ctx context.Context, orderID, itemID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order.Terminal() {
		return fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM order_lines WHERE order_id = $1 AND item_id = $2", orderID, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: item %d in order %d", models.ErrLineNotFound, itemID, orderID)
	}

	return tx.Commit()
}

// SetOrderStatus transitions an order from any of the given statuses to
// the target status. The WHERE clause reasserts the precondition so a
// concurrent transition cannot be overwritten.
func (s *Store) SetOrderStatus(ctx context.Context, orderID int64, from []string, to string) error {
	query, args, err := sqlx.In(
		"UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ? AND status IN (?)",
		to, orderID, from)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.classifyOrderConflict(ctx, orderID)
	}
	return nil
}

// SetOrderDiscount stores a validated discount on an unpaid order
func (s *Store) SetOrderDiscount(ctx context.Context, orderID int64, discount decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET discount = $1, updated_at = NOW()
		WHERE id = $2 AND is_paid = FALSE AND status NOT IN ($3, $4)`,
		discount, orderID, models.OrderStatusCompleted, models.OrderStatusCancelled)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.classifyOrderConflict(ctx, orderID)
	}
	return nil
}

// SetOrderNotes stores free-text notes on a non-terminal order
func (s *Store) SetOrderNotes(ctx context.Context, orderID int64, notes string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET notes = $1, updated_at = NOW()
		WHERE id = $2 AND status NOT IN ($3, $4)`,
		notes, orderID, models.OrderStatusCompleted, models.OrderStatusCancelled)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.classifyOrderConflict(ctx, orderID)
	}
	return nil
}

// CompleteOrderPayment marks an order paid and completed, and records
// the payment audit row, in one transaction. The conditional UPDATE on
// is_paid guarantees at most one completion succeeds; the second of two
// concurrent completers sees zero rows and gets ErrPaymentAlreadyCompleted.
func (s *Store) CompleteOrderPayment(ctx context.Context, orderID int64, capture *models.PaymentCapture) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET is_paid = TRUE,
		    payment_mode = $1,
		    payment_reference = $2,
		    payment_date = $3,
		    amount_paid = $4,
		    change_due = $5,
		    status = $6,
		    updated_at = NOW()
		WHERE id = $7 AND is_paid = FALSE AND status != $8`,
		capture.Mode, capture.Reference, capture.PaidAt,
		capture.AmountPaid, capture.ChangeDue,
		models.OrderStatusCompleted, orderID, models.OrderStatusCancelled)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.classifyPaymentConflict(ctx, orderID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (order_id, mode, amount, reference, gateway_order_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		orderID, capture.Mode, capture.AmountPaid, capture.Reference,
		capture.GatewayOrderID, capture.Reason)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	return tx.Commit()
}

// GetPaymentsByOrderID retrieves the payment audit trail for an order
func (s *Store) GetPaymentsByOrderID(ctx context.Context, orderID int64) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.SelectContext(ctx, &payments,
		"SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at", orderID)
	return payments, err
}

func lockOrder(ctx context.Context, tx *sqlx.Tx, orderID int64) (*models.Order, error) {
	var order models.Order
	err := tx.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", models.ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// classifyOrderConflict explains why a guarded mutation matched no rows
func (s *Store) classifyOrderConflict(ctx context.Context, orderID int64) error {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.IsPaid {
		return fmt.Errorf("%w: order %d", models.ErrOrderAlreadyPaid, orderID)
	}
	if order.Terminal() {
		return fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
	}
	return fmt.Errorf("order %d: conflicting state %s", orderID, order.Status)
}

// classifyPaymentConflict explains why a payment completion matched no rows
func (s *Store) classifyPaymentConflict(ctx context.Context, orderID int64) error {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.IsPaid {
		return fmt.Errorf("%w: order %d", models.ErrPaymentAlreadyCompleted, orderID)
	}
	return fmt.Errorf("%w: order %d is %s", models.ErrOrderClosed, orderID, order.Status)
}
