package api

import (
	"net/http"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PortfolioHandler handles the showcase gallery endpoints
type PortfolioHandler struct {
	portfolio service.PortfolioService
	log       zerolog.Logger
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(services *service.Services, log zerolog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolio: services.Portfolio,
		log:       log.With().Str("handler", "portfolio").Logger(),
	}
}

// List handles GET /api/portfolio/images?category=&featured=
func (h *PortfolioHandler) List(c *gin.Context) {
	filter := models.PortfolioFilter{
		Category: c.Query("category"),
		Featured: queryBool(c, "featured"),
		Page:     parsePage(c, 50),
	}
	images, total, err := h.portfolio.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "images", images, filter.Page, total)
}

// Upload handles POST /api/portfolio/images with repeated "images" fields
func (h *PortfolioHandler) Upload(c *gin.Context) {
	files, ok := multipartFiles(c, h.log, "images")
	if !ok {
		return
	}
	var meta models.PortfolioImageMeta
	if err := c.ShouldBind(&meta); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	images, err := h.portfolio.Upload(c.Request.Context(), currentActor(c), meta, files)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"images": images, "count": len(images)})
}

// Update handles PATCH /api/portfolio/images/:id
func (h *PortfolioHandler) Update(c *gin.Context) {
	var in models.PortfolioImageUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}
	img, err := h.portfolio.Update(c.Request.Context(), currentActor(c), c.Param("id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": img})
}

// Reorder handles PUT /api/portfolio/images/reorder
func (h *PortfolioHandler) Reorder(c *gin.Context) {
	var req models.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}
	if err := h.portfolio.Reorder(c.Request.Context(), currentActor(c), req.ImageIDs); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order updated"})
}

// Delete handles DELETE /api/portfolio/images/:id
func (h *PortfolioHandler) Delete(c *gin.Context) {
	if err := h.portfolio.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}

// ProjectFileHandler handles files shared on a client project
type ProjectFileHandler struct {
	files service.ProjectFileService
	log   zerolog.Logger
}

// NewProjectFileHandler creates a new ProjectFileHandler
func NewProjectFileHandler(services *service.Services, log zerolog.Logger) *ProjectFileHandler {
	return &ProjectFileHandler{
		files: services.Files,
		log:   log.With().Str("handler", "project_file").Logger(),
	}
}

// List handles GET /api/projects/:id/files
func (h *ProjectFileHandler) List(c *gin.Context) {
	files, err := h.files.List(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "count": len(files)})
}

// Upload handles POST /api/projects/:id/files with repeated "files" fields
func (h *ProjectFileHandler) Upload(c *gin.Context) {
	files, ok := multipartFiles(c, h.log, "files")
	if !ok {
		return
	}
	saved, err := h.files.Upload(c.Request.Context(), currentActor(c), c.Param("id"), c.PostForm("description"), files)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"files": saved, "count": len(saved)})
}

// Get handles GET /api/projects/:id/files/:file_id
func (h *ProjectFileHandler) Get(c *gin.Context) {
	f, err := h.files.Get(c.Request.Context(), currentActor(c), c.Param("id"), c.Param("file_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": f})
}

// Download handles GET /api/projects/:id/files/:file_id/download
func (h *ProjectFileHandler) Download(c *gin.Context) {
	d, err := h.files.Download(c.Request.Context(), currentActor(c), c.Param("id"), c.Param("file_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Update handles PATCH /api/projects/:id/files/:file_id
func (h *ProjectFileHandler) Update(c *gin.Context) {
	var in models.ProjectFileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}
	f, err := h.files.Update(c.Request.Context(), currentActor(c), c.Param("id"), c.Param("file_id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": f})
}

// Delete handles DELETE /api/projects/:id/files/:file_id
func (h *ProjectFileHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), currentActor(c), c.Param("id"), c.Param("file_id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}
