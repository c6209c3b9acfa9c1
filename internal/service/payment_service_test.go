package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/internal/models"
)

// seeds an active order with 2x Masala Chai: subtotal 200.00, tax 36.00,
// total 216.00
func seedOrderForPayment(t *testing.T, st *fakeStore) *models.Order {
	t.Helper()
	orders := NewOrderService(st, &fakeCatalog{items: testItems()}, &fakePublisher{})
	ctx := context.Background()

	order, err := orders.CreateOrder(ctx, &CreateOrderRequest{})
	require.NoError(t, err)
	_, err = orders.AddItems(ctx, order.ID, []AddItemRequest{{ItemID: 1, Quantity: 2}})
	require.NoError(t, err)
	return order
}

func newTestPaymentService(st *fakeStore, gw *fakeGateway) (*PaymentService, *fakePublisher) {
	pub := &fakePublisher{}
	return NewPaymentService(st, gw, pub, "INR", "rzp_test_key"), pub
}

func TestRecordCashPaymentWithChangeDue(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	svc, pub := newTestPaymentService(st, &fakeGateway{})

	received := dec("250.00")
	paid, err := svc.RecordManualPayment(context.Background(), &ManualPaymentRequest{
		OrderID:        order.ID,
		Mode:           models.PaymentModeCash,
		AmountReceived: &received,
	})
	require.NoError(t, err)

	assert.True(t, paid.IsPaid)
	assert.Equal(t, models.OrderStatusCompleted, paid.Status)
	assert.Equal(t, models.PaymentModeCash, paid.PaymentMode)
	assert.True(t, paid.AmountPaid.Equal(dec("250.00")))
	assert.True(t, paid.ChangeDue.Equal(dec("34.00")))

	require.Len(t, pub.captured, 1)
	assert.Equal(t, "250.00", pub.captured[0].Amount)
	require.Len(t, pub.completed, 1)
	assert.Equal(t, "216.00", pub.completed[0].Total)
}

func TestRecordManualPaymentRejectsUnderpayment(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	svc, pub := newTestPaymentService(st, &fakeGateway{})

	received := dec("200.00")
	_, err := svc.RecordManualPayment(context.Background(), &ManualPaymentRequest{
		OrderID:        order.ID,
		Mode:           models.PaymentModeCash,
		AmountReceived: &received,
	})
	assert.ErrorIs(t, err, models.ErrInsufficientPayment)

	after, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, after.IsPaid)

	require.Len(t, pub.failed, 1)
	assert.Equal(t, "insufficient payment", pub.failed[0].Reason)
}

func TestCardPaymentMustMatchTotal(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	svc, _ := newTestPaymentService(st, &fakeGateway{})
	ctx := context.Background()

	over := dec("250.00")
	_, err := svc.RecordManualPayment(ctx, &ManualPaymentRequest{
		OrderID:        order.ID,
		Mode:           models.PaymentModeCard,
		AmountReceived: &over,
	})
	assert.ErrorIs(t, err, models.ErrInvalidPayment)

	exact := dec("216.00")
	paid, err := svc.RecordManualPayment(ctx, &ManualPaymentRequest{
		OrderID:        order.ID,
		Mode:           models.PaymentModeCard,
		AmountReceived: &exact,
		Reference:      "AUTH-4411",
	})
	require.NoError(t, err)
	assert.True(t, paid.ChangeDue.IsZero())
	assert.Equal(t, "AUTH-4411", paid.PaymentReference)
}

func TestRecordManualPaymentValidatesMode(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	svc, _ := newTestPaymentService(st, &fakeGateway{})

	received := dec("216.00")
	_, err := svc.RecordManualPayment(context.Background(), &ManualPaymentRequest{
		OrderID:        order.ID,
		Mode:           "cheque",
		AmountReceived: &received,
	})
	assert.ErrorIs(t, err, models.ErrInvalidPayment)
}

func TestRecordManualPaymentRequiresAmount(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	svc, _ := newTestPaymentService(st, &fakeGateway{})

	_, err := svc.RecordManualPayment(context.Background(), &ManualPaymentRequest{
		OrderID: order.ID,
		Mode:    models.PaymentModeUPI,
	})
	assert.ErrorIs(t, err, models.ErrInvalidPayment)
}

func TestNonChargeableSettlement(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	svc, _ := newTestPaymentService(st, &fakeGateway{})
	ctx := context.Background()

	_, err := svc.RecordManualPayment(ctx, &ManualPaymentRequest{
		OrderID: order.ID,
		Mode:    models.PaymentModeNonChargeable,
	})
	assert.ErrorIs(t, err, models.ErrInvalidPayment)

	paid, err := svc.RecordManualPayment(ctx, &ManualPaymentRequest{
		OrderID: order.ID,
		Mode:    models.PaymentModeNonChargeable,
		Reason:  "staff meal",
	})
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.True(t, paid.AmountPaid.IsZero())
	assert.True(t, paid.ChangeDue.IsZero())
}

func TestSecondCaptureRejected(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	svc, _ := newTestPaymentService(st, &fakeGateway{})
	ctx := context.Background()

	received := dec("216.00")
	_, err := svc.RecordManualPayment(ctx, &ManualPaymentRequest{
		OrderID:        order.ID,
		Mode:           models.PaymentModeCash,
		AmountReceived: &received,
	})
	require.NoError(t, err)

	_, err = svc.RecordManualPayment(ctx, &ManualPaymentRequest{
		OrderID:        order.ID,
		Mode:           models.PaymentModeCash,
		AmountReceived: &received,
	})
	assert.ErrorIs(t, err, models.ErrPaymentAlreadyCompleted)
}

func TestInitiateGatewayPayment(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	gw := &fakeGateway{}
	svc, _ := newTestPaymentService(st, gw)

	checkout, err := svc.InitiateGatewayPayment(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, "order_gw_1", checkout.GatewayOrderID)
	assert.Equal(t, int64(21600), checkout.AmountMinorUnits)
	assert.Equal(t, "216.00", checkout.Amount)
	assert.Equal(t, "INR", checkout.Currency)
	assert.Equal(t, "rzp_test_key", checkout.KeyID)
	assert.Equal(t, 1, gw.createCalls)
}

func TestInitiateOnPaidOrderSkipsGateway(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	gw := &fakeGateway{}
	svc, _ := newTestPaymentService(st, gw)
	ctx := context.Background()

	received := dec("216.00")
	_, err := svc.RecordManualPayment(ctx, &ManualPaymentRequest{
		OrderID:        order.ID,
		Mode:           models.PaymentModeUPI,
		AmountReceived: &received,
	})
	require.NoError(t, err)

	_, err = svc.InitiateGatewayPayment(ctx, order.ID)
	assert.ErrorIs(t, err, models.ErrPaymentAlreadyCompleted)
	assert.Equal(t, 0, gw.createCalls)
}

func TestInitiateOnCancelledOrderFails(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	gw := &fakeGateway{}
	svc, _ := newTestPaymentService(st, gw)
	ctx := context.Background()

	orders := NewOrderService(st, &fakeCatalog{items: testItems()}, &fakePublisher{})
	require.NoError(t, orders.Discard(ctx, order.ID, "abandoned"))

	_, err := svc.InitiateGatewayPayment(ctx, order.ID)
	assert.ErrorIs(t, err, models.ErrOrderClosed)
	assert.Equal(t, 0, gw.createCalls)
}

func TestInitiateGatewayUnavailable(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	gw := &fakeGateway{createErr: models.ErrGatewayUnavailable}
	svc, _ := newTestPaymentService(st, gw)

	_, err := svc.InitiateGatewayPayment(context.Background(), order.ID)
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
}

func TestVerifyGatewayPayment(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	gw := &fakeGateway{validSignature: "good-sig"}
	svc, pub := newTestPaymentService(st, gw)
	ctx := context.Background()

	err := svc.VerifyGatewayPayment(ctx, order.ID, "order_gw_1", "pay_123", "good-sig")
	require.NoError(t, err)

	paid, err := st.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, models.OrderStatusCompleted, paid.Status)
	assert.Equal(t, models.PaymentModeGateway, paid.PaymentMode)
	assert.Equal(t, "pay_123", paid.PaymentReference)
	assert.True(t, paid.AmountPaid.Equal(dec("216.00")))
	assert.True(t, paid.ChangeDue.IsZero())

	require.Len(t, pub.captured, 1)
	require.Len(t, pub.completed, 1)
}

func TestVerifyBadSignatureLeavesOrderUnpaid(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	gw := &fakeGateway{validSignature: "good-sig"}
	svc, pub := newTestPaymentService(st, gw)
	ctx := context.Background()

	err := svc.VerifyGatewayPayment(ctx, order.ID, "order_gw_1", "pay_123", "forged")
	assert.ErrorIs(t, err, models.ErrSignatureVerification)

	after, err := st.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, after.IsPaid)
	assert.Equal(t, models.OrderStatusActive, after.Status)

	require.Len(t, pub.failed, 1)
	assert.Empty(t, pub.captured)
}

func TestVerifyAfterCaptureRejected(t *testing.T) {
	st := newFakeStore()
	order := seedOrderForPayment(t, st)
	gw := &fakeGateway{validSignature: "good-sig"}
	svc, _ := newTestPaymentService(st, gw)
	ctx := context.Background()

	require.NoError(t, svc.VerifyGatewayPayment(ctx, order.ID, "order_gw_1", "pay_123", "good-sig"))

	err := svc.VerifyGatewayPayment(ctx, order.ID, "order_gw_1", "pay_456", "good-sig")
	assert.ErrorIs(t, err, models.ErrPaymentAlreadyCompleted)
}
