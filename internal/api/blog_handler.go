package api

import (
	"net/http"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// BlogHandler handles blog endpoints
type BlogHandler struct {
	blog service.BlogService
	log  zerolog.Logger
}

// NewBlogHandler creates a new BlogHandler
func NewBlogHandler(services *service.Services, log zerolog.Logger) *BlogHandler {
	return &BlogHandler{
		blog: services.Blog,
		log:  log.With().Str("handler", "blog").Logger(),
	}
}

func blogFilter(c *gin.Context, defaultLimit int) models.BlogFilter {
	return models.BlogFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Featured: queryBool(c, "featured"),
		Status:   c.Query("status"),
		Page:     parsePage(c, defaultLimit),
	}
}

// List handles GET /api/blog
func (h *BlogHandler) List(c *gin.Context) {
	filter := blogFilter(c, 10)
	posts, total, err := h.blog.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "posts", posts, filter.Page, total)
}

// ListAll handles GET /api/blog/admin/all
func (h *BlogHandler) ListAll(c *gin.Context) {
	filter := blogFilter(c, 20)
	posts, total, err := h.blog.ListAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "posts", posts, filter.Page, total)
}

// Categories handles GET /api/blog/categories
func (h *BlogHandler) Categories(c *gin.Context) {
	categories, err := h.blog.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if categories == nil {
		categories = []models.NamedCount{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Tags handles GET /api/blog/tags
func (h *BlogHandler) Tags(c *gin.Context) {
	tags, err := h.blog.Tags(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if tags == nil {
		tags = []models.NamedCount{}
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// Stats handles GET /api/blog/admin/stats
func (h *BlogHandler) Stats(c *gin.Context) {
	stats, err := h.blog.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Get handles GET /api/blog/:slug
func (h *BlogHandler) Get(c *gin.Context) {
	post, err := h.blog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Create handles POST /api/blog
func (h *BlogHandler) Create(c *gin.Context) {
	var in models.BlogPostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	post, err := h.blog.Create(c.Request.Context(), currentActor(c), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// Update handles PUT /api/blog/:id
func (h *BlogHandler) Update(c *gin.Context) {
	var in models.BlogPostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	post, err := h.blog.Update(c.Request.Context(), currentActor(c), c.Param("id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Delete handles DELETE /api/blog/:id
func (h *BlogHandler) Delete(c *gin.Context) {
	if err := h.blog.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}
