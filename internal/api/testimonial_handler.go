package api

import (
	"net/http"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TestimonialHandler handles testimonial endpoints
type TestimonialHandler struct {
	testimonials service.TestimonialService
	log          zerolog.Logger
}

// NewTestimonialHandler creates a new TestimonialHandler
func NewTestimonialHandler(services *service.Services, log zerolog.Logger) *TestimonialHandler {
	return &TestimonialHandler{
		testimonials: services.Testimonial,
		log:          log.With().Str("handler", "testimonial").Logger(),
	}
}

// List handles GET /api/testimonials
func (h *TestimonialHandler) List(c *gin.Context) {
	approved := true
	filter := models.TestimonialFilter{
		Approved: &approved,
		Featured: queryBool(c, "featured"),
		Page:     parsePage(c, 10),
	}
	h.list(c, filter)
}

// ListAll handles GET /api/testimonials/admin/all?approved=
func (h *TestimonialHandler) ListAll(c *gin.Context) {
	filter := models.TestimonialFilter{
		Approved: queryBool(c, "approved"),
		Featured: queryBool(c, "featured"),
		Page:     parsePage(c, 20),
	}
	h.list(c, filter)
}

func (h *TestimonialHandler) list(c *gin.Context, filter models.TestimonialFilter) {
	items, total, err := h.testimonials.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "testimonials", items, filter.Page, total)
}

// Stats handles GET /api/testimonials/admin/stats
func (h *TestimonialHandler) Stats(c *gin.Context) {
	stats, err := h.testimonials.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Get handles GET /api/testimonials/:id
func (h *TestimonialHandler) Get(c *gin.Context) {
	t, err := h.testimonials.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"testimonial": t})
}

// Create handles POST /api/testimonials
func (h *TestimonialHandler) Create(c *gin.Context) {
	var in models.TestimonialInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	t, err := h.testimonials.Create(c.Request.Context(), currentActor(c), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"testimonial": t, "message": "testimonial awaiting approval"})
}

// Update handles PUT /api/testimonials/:id
func (h *TestimonialHandler) Update(c *gin.Context) {
	var in models.TestimonialUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	t, err := h.testimonials.Update(c.Request.Context(), currentActor(c), c.Param("id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"testimonial": t})
}

// Approve handles PATCH /api/testimonials/:id/approve
func (h *TestimonialHandler) Approve(c *gin.Context) {
	t, err := h.testimonials.Approve(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"testimonial": t})
}

// Delete handles DELETE /api/testimonials/:id
func (h *TestimonialHandler) Delete(c *gin.Context) {
	if err := h.testimonials.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "testimonial deleted"})
}
