package api_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/agency-cms-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formFile struct {
	name        string
	contentType string
	body        string
}

// multipartBody encodes files under field plus plain form values
func multipartBody(t *testing.T, field string, files []formFile, values map[string]string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestPortfolioImages(t *testing.T) {
	s := setupTestRouter(t)
	admin, _ := s.tokenFor(t, models.RoleAdmin)
	member, _ := s.tokenFor(t, models.RoleMember)

	body, contentType := multipartBody(t, "images", []formFile{
		{"vitrine.png", "image/png", "png-1"},
		{"boutique.jpg", "image/jpeg", "jpg-2"},
	}, map[string]string{"category": "web"})

	w := s.do(http.MethodPost, "/api/portfolio/images", member, body, "Content-Type", contentType)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/portfolio/images", admin, body, "Content-Type", contentType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.EqualValues(t, 2, created["count"])
	images := created["images"].([]any)
	first := images[0].(map[string]any)["id"].(string)
	second := images[1].(map[string]any)["id"].(string)
	assert.Len(t, s.f.Portfolio.Images, 2)

	w = s.do(http.MethodPut, "/api/portfolio/images/reorder", admin, map[string]any{"image_ids": []string{second, first}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/portfolio/images?category=web", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode(t, w)["images"].([]any)
	require.Len(t, listed, 2)
	assert.Equal(t, second, listed[0].(map[string]any)["id"])

	w = s.do(http.MethodPut, "/api/portfolio/images/reorder", admin, map[string]any{"image_ids": []string{"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/api/portfolio/images/"+first, admin, map[string]any{"alt_text": "Page d'accueil"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Page d'accueil", decode(t, w)["image"].(map[string]any)["alt_text"])

	w = s.do(http.MethodDelete, "/api/portfolio/images/"+first, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.f.Store.Deleted, 1)

	w = s.do(http.MethodDelete, "/api/portfolio/images/"+first, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodDelete, "/api/portfolio/images/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectFiles(t *testing.T) {
	s := setupTestRouter(t)
	clientToken, clientUser := s.tokenFor(t, models.RoleMember)
	editor, _ := s.tokenFor(t, models.RoleEditor)
	stranger, _ := s.tokenFor(t, models.RoleAuthor)

	project := &models.Project{ID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", UserID: clientUser.ID, Title: "Refonte"}
	s.f.Payments.Projects[project.ID] = project
	base := "/api/projects/" + project.ID + "/files"

	body, contentType := multipartBody(t, "files", []formFile{
		{"cahier-des-charges.pdf", "application/pdf", "%PDF-1.7"},
	}, map[string]string{"description": "Version initiale"})

	w := s.do(http.MethodPost, base, stranger, body, "Content-Type", contentType)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, base, clientToken, body, "Content-Type", contentType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	file := decode(t, w)["files"].([]any)[0].(map[string]any)
	fileID := file["id"].(string)
	assert.Equal(t, "Version initiale", file["description"])

	w = s.do(http.MethodGet, base, editor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = s.do(http.MethodGet, base+"/"+fileID+"/download", clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	download := decode(t, w)
	assert.Equal(t, "cahier-des-charges.pdf", download["file_name"])
	assert.NotEmpty(t, download["download_url"])

	w = s.do(http.MethodPatch, base+"/"+fileID, clientToken, map[string]any{"description": "Version finale"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Version finale", decode(t, w)["file"].(map[string]any)["description"])

	w = s.do(http.MethodGet, base+"/not-a-uuid", clientToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid file_id", decode(t, w)["error"])

	w = s.do(http.MethodGet, "/api/projects/550e8400-e29b-41d4-a716-446655440000/files", clientToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, base+"/"+fileID, clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, base+"/"+fileID, clientToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
