package api

import (
	"net/http"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ArticleHandler handles article and rubrique endpoints
type ArticleHandler struct {
	articles service.ArticleService
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		articles: services.Article,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// List handles GET /api/articles?rubrique=&author=&featured=&search=&limit=&offset=
func (h *ArticleHandler) List(c *gin.Context) {
	filter := models.ArticleFilter{
		RubriqueSlug:   c.Query("rubrique"),
		AuthorUsername: c.Query("author"),
		Featured:       queryBool(c, "featured"),
		Search:         c.Query("search"),
		Status:         models.StatusPublished,
		Page:           parsePage(c, 10),
	}

	articles, total, err := h.articles.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "articles", articles, filter.Page, total)
}

// Mine handles GET /api/articles/mine
func (h *ArticleHandler) Mine(c *gin.Context) {
	page := parsePage(c, 20)
	articles, total, err := h.articles.ListMine(c.Request.Context(), currentActor(c), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "articles", articles, page, total)
}

// Get handles GET /api/articles/:slug
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.articles.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// Create handles POST /api/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var in models.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	article, err := h.articles.Create(c.Request.Context(), currentActor(c), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"article": article})
}

// Update handles PUT /api/articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	var in models.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	article, err := h.articles.Update(c.Request.Context(), currentActor(c), c.Param("id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// Delete handles DELETE /api/articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.articles.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "article deleted"})
}

// ListRubriques handles GET /api/rubriques
func (h *ArticleHandler) ListRubriques(c *gin.Context) {
	rubriques, err := h.articles.ListRubriques(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if rubriques == nil {
		rubriques = []*models.Rubrique{}
	}
	c.JSON(http.StatusOK, gin.H{"rubriques": rubriques})
}

// GetRubrique handles GET /api/rubriques/:slug
func (h *ArticleHandler) GetRubrique(c *gin.Context) {
	rubrique, err := h.articles.GetRubrique(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rubrique": rubrique})
}

// CreateRubrique handles POST /api/rubriques
func (h *ArticleHandler) CreateRubrique(c *gin.Context) {
	var in models.RubriqueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	rubrique, err := h.articles.CreateRubrique(c.Request.Context(), currentActor(c), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rubrique": rubrique})
}

// UpdateRubrique handles PUT /api/rubriques/:id
func (h *ArticleHandler) UpdateRubrique(c *gin.Context) {
	var in models.RubriqueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	rubrique, err := h.articles.UpdateRubrique(c.Request.Context(), currentActor(c), c.Param("id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rubrique": rubrique})
}

// DeleteRubrique handles DELETE /api/rubriques/:id
func (h *ArticleHandler) DeleteRubrique(c *gin.Context) {
	if err := h.articles.DeleteRubrique(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rubrique deleted"})
}
