package api_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/agency-cms-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentDuplicateSlugConflict(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		input map[string]any
	}{
		{"blog post", "/api/blog", map[string]any{"title": "Nos tarifs 2025", "content": "<p>Tout savoir</p>", "status": "published"}},
		{"offer", "/api/offers", map[string]any{"name": "Site Vitrine", "features": []string{"5 pages"}}},
		{"rubrique", "/api/rubriques", map[string]any{"name": "Design"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestRouter(t)
			admin, _ := s.tokenFor(t, models.RoleAdmin)

			w := s.do(http.MethodPost, tt.path, admin, tt.input)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

			w = s.do(http.MethodPost, tt.path, admin, tt.input)
			assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
			assert.Equal(t, "resource already exists", decode(t, w)["error"])
		})
	}
}

func TestContentListPagination(t *testing.T) {
	s := setupTestRouter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.f.Blog.Create(ctx, &models.BlogPost{
			Title: fmt.Sprintf("Post %d", i), Slug: fmt.Sprintf("post-%d", i), Status: models.StatusPublished,
		}))
		require.NoError(t, s.f.Offers.Create(ctx, &models.Offer{
			Name: fmt.Sprintf("Offer %d", i), Slug: fmt.Sprintf("offer-%d", i), IsActive: true, DisplayOrder: i,
		}))
		require.NoError(t, s.f.Testimonials.Create(ctx, &models.Testimonial{
			AuthorName: fmt.Sprintf("Client %d", i), Content: "Super", IsApproved: true,
		}))
	}
	// hidden from the public listings
	require.NoError(t, s.f.Blog.Create(ctx, &models.BlogPost{Title: "Draft", Slug: "draft", Status: models.StatusDraft}))
	require.NoError(t, s.f.Offers.Create(ctx, &models.Offer{Name: "Retired", Slug: "retired"}))
	require.NoError(t, s.f.Testimonials.Create(ctx, &models.Testimonial{AuthorName: "Pending", Content: "Bof"}))

	tests := []struct {
		path    string
		key     string
		items   int
		total   int
		hasMore bool
	}{
		{"/api/blog?limit=2", "posts", 2, 3, true},
		{"/api/blog?limit=2&offset=2", "posts", 1, 3, false},
		{"/api/blog?limit=2&page=2", "posts", 1, 3, false},
		{"/api/offers?limit=1&offset=1", "offers", 1, 3, true},
		{"/api/offers", "offers", 3, 3, false},
		{"/api/testimonials?limit=2", "testimonials", 2, 3, true},
		{"/api/testimonials?offset=5", "testimonials", 0, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.do(http.MethodGet, tt.path, "", nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			body := decode(t, w)
			assert.Len(t, body[tt.key], tt.items)
			pagination := body["pagination"].(map[string]any)
			assert.EqualValues(t, tt.total, pagination["total"])
			assert.Equal(t, tt.hasMore, pagination["has_more"])
		})
	}
}

func TestRubriqueDeleteWithArticles(t *testing.T) {
	s := setupTestRouter(t)
	admin, _ := s.tokenFor(t, models.RoleAdmin)

	w := s.do(http.MethodPost, "/api/rubriques", admin, map[string]any{"name": "Actualités", "slug": "actualites"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["rubrique"].(map[string]any)["id"].(string)

	article := &models.Article{Title: "Lancement", Slug: "lancement", RubriqueID: id, Status: models.StatusPublished}
	require.NoError(t, s.f.Articles.Create(context.Background(), article))

	w = s.do(http.MethodDelete, "/api/rubriques/"+id, admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "still has 1 article")
	assert.Contains(t, s.f.Rubriques.Rubriques, id)

	w = s.do(http.MethodGet, "/api/rubriques", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode(t, w)["rubriques"].([]any)
	require.Len(t, listed, 1)
	assert.EqualValues(t, 1, listed[0].(map[string]any)["articles_count"])

	delete(s.f.Articles.Articles, article.ID)
	w = s.do(http.MethodDelete, "/api/rubriques/"+id, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, s.f.Rubriques.Rubriques, id)
}
