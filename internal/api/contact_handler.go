package api

import (
	"net/http"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ContactHandler handles the contact form, the admin inbox and the newsletter
type ContactHandler struct {
	contact    service.ContactService
	newsletter service.NewsletterService
	log        zerolog.Logger
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(services *service.Services, log zerolog.Logger) *ContactHandler {
	return &ContactHandler{
		contact:    services.Contact,
		newsletter: services.Newsletter,
		log:        log.With().Str("handler", "contact").Logger(),
	}
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	msg, err := h.contact.Submit(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      msg.ID,
		"message": "message received, we will get back to you shortly",
	})
}

// List handles GET /api/contact/admin/messages?status=&priority=&search=
func (h *ContactHandler) List(c *gin.Context) {
	filter := models.ContactFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Page:     parsePage(c, 20),
	}
	messages, total, err := h.contact.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "messages", messages, filter.Page, total)
}

// Stats handles GET /api/contact/admin/stats
func (h *ContactHandler) Stats(c *gin.Context) {
	stats, err := h.contact.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Thread handles GET /api/contact/admin/messages/:id
func (h *ContactHandler) Thread(c *gin.Context) {
	thread, err := h.contact.Thread(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// Reply handles POST /api/contact/admin/messages/:id/reply
func (h *ContactHandler) Reply(c *gin.Context) {
	var req models.ContactReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	thread, err := h.contact.Reply(c.Request.Context(), currentActor(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// Update handles PATCH /api/contact/admin/messages/:id
func (h *ContactHandler) Update(c *gin.Context) {
	var req models.ContactUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	msg, err := h.contact.Update(c.Request.Context(), currentActor(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Delete handles DELETE /api/contact/admin/messages/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.contact.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contact message deleted"})
}

// Subscribe handles POST /api/newsletter/subscribe.
// New subscriptions answer 201, reactivations 200.
func (h *ContactHandler) Subscribe(c *gin.Context) {
	var req models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	sub, created, err := h.newsletter.Subscribe(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	status, msg := http.StatusOK, "subscription reactivated"
	if created {
		status, msg = http.StatusCreated, "subscribed"
	}
	c.JSON(status, gin.H{"subscriber": sub, "message": msg})
}

// Unsubscribe handles POST /api/newsletter/unsubscribe
func (h *ContactHandler) Unsubscribe(c *gin.Context) {
	var req models.UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	if err := h.newsletter.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed"})
}

// Subscribers handles GET /api/newsletter/admin/subscribers?status=&search=
func (h *ContactHandler) Subscribers(c *gin.Context) {
	filter := models.SubscriberFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   parsePage(c, 50),
	}
	subs, total, err := h.newsletter.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "subscribers", subs, filter.Page, total)
}

// NewsletterStats handles GET /api/newsletter/admin/stats
func (h *ContactHandler) NewsletterStats(c *gin.Context) {
	stats, err := h.newsletter.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
