package api

import (
	"net/http"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment and moderation endpoints
type CommentHandler struct {
	comments service.CommentService
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		comments: services.Comment,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// ListByArticle handles GET /api/comments/article/:id
func (h *CommentHandler) ListByArticle(c *gin.Context) {
	comments, err := h.comments.ListByArticle(c.Request.Context(), c.Param("id"), optionalActor(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// Create handles POST /api/comments/article/:id
func (h *CommentHandler) Create(c *gin.Context) {
	var in models.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), c.Param("id"), optionalActor(c), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	msg := "comment published"
	if !comment.IsApproved {
		msg = "comment awaiting moderation"
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment, "message": msg})
}

// Update handles PUT /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	if err := h.comments.Update(c.Request.Context(), currentActor(c), c.Param("id"), req.Content); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment updated"})
}

// Delete handles DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

// Approve handles PATCH /api/comments/:id/approve
func (h *CommentHandler) Approve(c *gin.Context) {
	if err := h.comments.Approve(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment approved"})
}

// Pending handles GET /api/comments/pending
func (h *CommentHandler) Pending(c *gin.Context) {
	page := parsePage(c, 20)
	comments, total, err := h.comments.ListPending(c.Request.Context(), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "comments", comments, page, total)
}

// SetModeration handles PUT /api/comments/moderation
func (h *CommentHandler) SetModeration(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	if err := h.comments.SetModeration(c.Request.Context(), currentActor(c), *req.Enabled); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moderate_comments": *req.Enabled})
}
