package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/agency-cms-api/internal/media"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// MediaHandler handles CDN upload endpoints
type MediaHandler struct {
	media service.MediaService
	log   zerolog.Logger
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(services *service.Services, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		media: services.Media,
		log:   log.With().Str("handler", "media").Logger(),
	}
}

func uploadFile(fh *multipart.FileHeader) service.UploadFile {
	return service.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// formFile reads one multipart file, reporting a missing field as 400
func (h *MediaHandler) formFile(c *gin.Context, field string) (service.UploadFile, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		if isTooLarge(err) {
			respondError(c, h.log, err)
			return service.UploadFile{}, false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing file field: " + field})
		return service.UploadFile{}, false
	}
	return uploadFile(fh), true
}

func (h *MediaHandler) uploadImage(c *gin.Context, folder media.Folder) {
	file, ok := h.formFile(c, "image")
	if !ok {
		return
	}
	result, err := h.media.UploadImage(c.Request.Context(), folder, file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ArticleImage handles POST /api/media/articles/image
func (h *MediaHandler) ArticleImage(c *gin.Context) {
	h.uploadImage(c, media.FolderArticles)
}

// RubriqueImage handles POST /api/media/rubriques/image
func (h *MediaHandler) RubriqueImage(c *gin.Context) {
	h.uploadImage(c, media.FolderRubriques)
}

// Avatar handles POST /api/media/avatar
func (h *MediaHandler) Avatar(c *gin.Context) {
	file, ok := h.formFile(c, "avatar")
	if !ok {
		return
	}
	result, err := h.media.UploadAvatar(c.Request.Context(), currentActor(c), file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// TeamPhoto handles POST /api/media/team/photo
func (h *MediaHandler) TeamPhoto(c *gin.Context) {
	file, ok := h.formFile(c, "photo")
	if !ok {
		return
	}
	result, err := h.media.UploadTeamPhoto(c.Request.Context(), currentActor(c), file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// multipartFiles reads every file sent under field
func multipartFiles(c *gin.Context, log zerolog.Logger, field string) ([]service.UploadFile, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		if isTooLarge(err) {
			respondError(c, log, err)
			return nil, false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return nil, false
	}

	headers := form.File[field]
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadFile(fh))
	}
	return files, true
}

// Gallery handles POST /api/media/gallery with repeated "images" fields
func (h *MediaHandler) Gallery(c *gin.Context) {
	files, ok := multipartFiles(c, h.log, "images")
	if !ok {
		return
	}

	results, err := h.media.UploadGallery(c.Request.Context(), files)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"images": results, "count": len(results)})
}

// File handles POST /api/media/files
func (h *MediaHandler) File(c *gin.Context) {
	file, ok := h.formFile(c, "file")
	if !ok {
		return
	}
	result, err := h.media.UploadFile(c.Request.Context(), file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Search handles GET /api/media/search?folder=&q=&max_results=&cursor=
func (h *MediaHandler) Search(c *gin.Context) {
	opts := media.SearchOptions{
		Folder:     media.Folder(c.Query("folder")),
		Expression: c.Query("q"),
		MaxResults: queryInt(c, "max_results", 0),
		Cursor:     c.Query("cursor"),
	}
	result, err := h.media.Search(c.Request.Context(), opts)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete handles DELETE /api/media/assets/*public_id?resource_type=
func (h *MediaHandler) Delete(c *gin.Context) {
	publicID := strings.TrimPrefix(c.Param("public_id"), "/")
	if publicID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "public id is required"})
		return
	}
	resourceType := c.DefaultQuery("resource_type", media.ResourceImage)

	if err := h.media.Delete(c.Request.Context(), currentActor(c), publicID, resourceType); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "asset deleted", "public_id": publicID})
}
