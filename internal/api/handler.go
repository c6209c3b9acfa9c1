package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pos-service/internal/catalog"
	"pos-service/internal/models"
	"pos-service/internal/service"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
	receiptService *service.ReceiptService
	catalog        *catalog.Lookup
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orderService *service.OrderService,
	paymentService *service.PaymentService,
	receiptService *service.ReceiptService,
	cat *catalog.Lookup,
) *Handler {
	return &Handler{
		orderService:   orderService,
		paymentService: paymentService,
		receiptService: receiptService,
		catalog:        cat,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/orders/:id/summary", h.getOrderSummary)
		v1.GET("/orders/:id/receipt", h.getReceipt)
		v1.POST("/orders/:id/add-items", h.addItems)
		v1.POST("/orders/:id/edit-item", h.editItem)
		v1.POST("/orders/:id/remove-item", h.removeItem)
		v1.POST("/orders/:id/apply-discount", h.applyDiscount)
		v1.POST("/orders/:id/add-note", h.addNote)
		v1.POST("/orders/:id/hold", h.holdOrder)
		v1.POST("/orders/:id/resume", h.resumeOrder)
		v1.POST("/orders/:id/discard", h.discardOrder)
		v1.POST("/orders/:id/close", h.closeOrder)

		v1.POST("/payments/initiate", h.initiatePayment)
		v1.POST("/payments/verify", h.verifyPayment)
		v1.POST("/payments/manual", h.manualPayment)

		v1.POST("/items/:id/price", h.updateItemPrice)
	}
}

// statusForError maps domain error kinds to HTTP status codes:
// validation -> 400, missing -> 404, state conflict -> 409,
// gateway trouble -> 502.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidDiscount),
		errors.Is(err, models.ErrInvalidPayment),
		errors.Is(err, models.ErrInsufficientPayment):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrSignatureVerification):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrItemNotFound),
		errors.Is(err, models.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrOrderClosed),
		errors.Is(err, models.ErrOrderAlreadyPaid),
		errors.Is(err, models.ErrOrderNotPaid),
		errors.Is(err, models.ErrPaymentAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, models.ErrGatewayUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

func orderIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return id, true
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	view, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// getOrderSummary returns the till-facing projection: status, line
// count and totals, without the full line detail.
func (h *Handler) getOrderSummary(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	view, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":   view.Order.ID,
		"status":     view.Order.Status,
		"is_paid":    view.Order.IsPaid,
		"line_count": len(view.Lines),
		"totals":     view.Totals,
	})
}

func (h *Handler) getReceipt(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	receipt, err := h.receiptService.BuildReceipt(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt})
}

type addItemsRequest struct {
	Items []service.AddItemRequest `json:"items" binding:"required,min=1"`
}

func (h *Handler) addItems(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req addItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	lines, err := h.orderService.AddItems(c.Request.Context(), orderID, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added_items": lines})
}

type editItemRequest struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) editItem(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req editItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orderService.EditLine(c.Request.Context(), orderID, req.ItemID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Item updated"})
}

type removeItemRequest struct {
	ItemID int64 `json:"item_id" binding:"required"`
}

func (h *Handler) removeItem(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req removeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orderService.RemoveLine(c.Request.Context(), orderID, req.ItemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Item removed"})
}

type applyDiscountRequest struct {
	Discount decimal.Decimal `json:"discount"`
}

func (h *Handler) applyDiscount(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req applyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orderService.ApplyDiscount(c.Request.Context(), orderID, req.Discount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Discount applied"})
}

type noteRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) addNote(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orderService.AddNote(c.Request.Context(), orderID, req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Note added"})
}

type holdRequest struct {
	Note string `json:"note"`
}

func (h *Handler) holdOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req holdRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.orderService.Hold(c.Request.Context(), orderID, req.Note); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Order held"})
}

func (h *Handler) resumeOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	if err := h.orderService.Resume(c.Request.Context(), orderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Order resumed"})
}

type discardRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) discardOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req discardRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.orderService.Discard(c.Request.Context(), orderID, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Order discarded"})
}

func (h *Handler) closeOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	if err := h.orderService.Close(c.Request.Context(), orderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Order closed"})
}

type initiatePaymentRequest struct {
	OrderID int64 `json:"order_id" binding:"required"`
}

func (h *Handler) initiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	checkout, err := h.paymentService.InitiateGatewayPayment(c.Request.Context(), req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkout)
}

type verifyPaymentRequest struct {
	OrderID          int64  `json:"order_id" binding:"required"`
	GatewayOrderID   string `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature        string `json:"razorpay_signature" binding:"required"`
}

func (h *Handler) verifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	err := h.paymentService.VerifyGatewayPayment(c.Request.Context(),
		req.OrderID, req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Payment verified and completed"})
}

func (h *Handler) manualPayment(c *gin.Context) {
	var req service.ManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.OrderID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required"})
		return
	}

	order, err := h.paymentService.RecordManualPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Payment recorded", "order": order})
}

type updatePriceRequest struct {
	SellingPrice string `json:"selling_price" binding:"required"`
}

func (h *Handler) updateItemPrice(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if _, err := decimal.NewFromString(req.SellingPrice); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid selling_price"})
		return
	}

	if err := h.catalog.UpdatePrice(c.Request.Context(), itemID, req.SellingPrice); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Price updated"})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
