package api

import (
	"net/http"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// OfferHandler handles service offer endpoints
type OfferHandler struct {
	offers service.OfferService
	log    zerolog.Logger
}

// NewOfferHandler creates a new OfferHandler
func NewOfferHandler(services *service.Services, log zerolog.Logger) *OfferHandler {
	return &OfferHandler{
		offers: services.Offer,
		log:    log.With().Str("handler", "offer").Logger(),
	}
}

// List handles GET /api/offers. Only active offers are public.
func (h *OfferHandler) List(c *gin.Context) {
	h.list(c, true)
}

// ListAll handles GET /api/offers/admin/all
func (h *OfferHandler) ListAll(c *gin.Context) {
	h.list(c, false)
}

func (h *OfferHandler) list(c *gin.Context, activeOnly bool) {
	filter := models.OfferFilter{
		Category:   c.Query("category"),
		ActiveOnly: activeOnly,
		Page:       parsePage(c, 50),
	}
	offers, total, err := h.offers.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "offers", offers, filter.Page, total)
}

// Stats handles GET /api/offers/admin/stats
func (h *OfferHandler) Stats(c *gin.Context) {
	stats, err := h.offers.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Get handles GET /api/offers/:slug
func (h *OfferHandler) Get(c *gin.Context) {
	offer, err := h.offers.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": offer})
}

// Create handles POST /api/offers
func (h *OfferHandler) Create(c *gin.Context) {
	var in models.OfferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	offer, err := h.offers.Create(c.Request.Context(), currentActor(c), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"offer": offer})
}

// Update handles PUT /api/offers/:id
func (h *OfferHandler) Update(c *gin.Context) {
	var in models.OfferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	offer, err := h.offers.Update(c.Request.Context(), currentActor(c), c.Param("id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": offer})
}

// Delete handles DELETE /api/offers/:id
func (h *OfferHandler) Delete(c *gin.Context) {
	if err := h.offers.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "offer deleted"})
}
