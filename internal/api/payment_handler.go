package api

import (
	"net/http"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PaymentHandler handles locally initiated payment endpoints
type PaymentHandler struct {
	payments service.PaymentService
	log      zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(services *service.Services, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: services.Payment,
		log:      log.With().Str("handler", "payment").Logger(),
	}
}

func paymentFilter(c *gin.Context, defaultLimit int) models.PaymentFilter {
	return models.PaymentFilter{
		Status:      c.Query("status"),
		PaymentType: c.Query("payment_type"),
		ProjectID:   c.Query("project_id"),
		Page:        parsePage(c, defaultLimit),
	}
}

// CreateIntent handles POST /api/payments/intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req models.PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	intent, entry, err := h.payments.CreateIntent(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"client_secret":     intent.ClientSecret,
		"payment_intent_id": intent.ID,
		"amount":            intent.Amount,
		"currency":          intent.Currency,
		"payment":           entry,
	})
}

// CreateCheckout handles POST /api/payments/checkout-session
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	session, err := h.payments.CreateCheckout(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": session.ID, "url": session.URL})
}

// ListMine handles GET /api/payments
func (h *PaymentHandler) ListMine(c *gin.Context) {
	filter := paymentFilter(c, 20)
	payments, total, err := h.payments.ListMine(c.Request.Context(), currentActor(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "payments", payments, filter.Page, total)
}

// GetMine handles GET /api/payments/:id
func (h *PaymentHandler) GetMine(c *gin.Context) {
	p, err := h.payments.GetMine(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

// CreateCustomer handles POST /api/payments/admin/customers
func (h *PaymentHandler) CreateCustomer(c *gin.Context) {
	var req models.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	customer, err := h.payments.CreateCustomer(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

// CreateInvoice handles POST /api/payments/admin/invoices
func (h *PaymentHandler) CreateInvoice(c *gin.Context) {
	var req models.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	invoice, entry, err := h.payments.CreateInvoice(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": invoice, "payment": entry})
}

// Refund handles POST /api/payments/admin/:id/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	refund, err := h.payments.Refund(c.Request.Context(), currentActor(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refund": refund})
}

// ListAll handles GET /api/payments/admin/all?user_id=
func (h *PaymentHandler) ListAll(c *gin.Context) {
	filter := paymentFilter(c, 50)
	filter.UserID = c.Query("user_id")
	payments, total, err := h.payments.ListAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	stats, err := h.payments.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if payments == nil {
		payments = []*models.PaymentLog{}
	}
	c.JSON(http.StatusOK, gin.H{
		"payments":   payments,
		"pagination": models.NewPagination(filter.Page, total),
		"stats":      stats,
	})
}
