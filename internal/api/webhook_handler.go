package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives payment processor events
type WebhookHandler struct {
	webhooks service.WebhookService
	log      zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(services *service.Services, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhooks: services.Webhook,
		log:      log.With().Str("handler", "webhook").Logger(),
	}
}

// Stripe handles POST /webhooks/stripe.
// Any failure after verification answers 500 so the processor redelivers.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		if isTooLarge(err) {
			respondError(c, h.log, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing signature"})
		return
	}

	evt, outcome, err := h.webhooks.Handle(c.Request.Context(), payload, signature)
	if err != nil {
		if errors.Is(err, service.ErrBadRequest) || errors.Is(err, service.ErrPaymentsDisabled) {
			respondError(c, h.log, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
		"event_id": evt.ID,
		"outcome":  outcome,
	})
}
