package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = service.Actor{UserID: "admin-1", Email: "admin@agency.fr", Role: models.RoleAdmin}

func TestPortfolio_UploadPersistsImages(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()

	first, err := svc.Portfolio.Upload(ctx, admin, models.PortfolioImageMeta{Category: " web "}, []service.UploadFile{
		fileOf("accueil.png", "image/png", "aaa"),
		fileOf("contact.jpg", "image/jpeg", "bbb"),
	})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "accueil", first[0].Title, "title defaults to the file name")
	assert.Equal(t, "web", first[0].Category)
	assert.True(t, strings.HasPrefix(first[0].PublicID, "portfolio/"))
	assert.Equal(t, f.Store.Assets[first[0].PublicID].URL, first[0].ImageURL)
	assert.Equal(t, []int{0, 1}, []int{first[0].DisplayOrder, first[1].DisplayOrder})

	second, err := svc.Portfolio.Upload(ctx, admin, models.PortfolioImageMeta{Title: "Logo"}, []service.UploadFile{
		fileOf("logo.png", "image/png", "ccc"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second[0].DisplayOrder, "new images go after the existing ones")
	assert.Equal(t, "Logo", second[0].Title)

	images, total, err := svc.Portfolio.List(ctx, models.PortfolioFilter{Category: "web"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, images, 2)
	assert.Len(t, f.Admin.Actions(), 3)
}

func TestPortfolio_InsertFailureRemovesAssets(t *testing.T) {
	f := mocks.NewFixture()
	f.Portfolio.InsertError = errors.New("connection reset")
	svc := f.Services()

	_, err := svc.Portfolio.Upload(context.Background(), admin, models.PortfolioImageMeta{}, []service.UploadFile{
		fileOf("a.png", "image/png", "aaa"),
		fileOf("b.png", "image/png", "bbb"),
	})
	require.EqualError(t, err, "connection reset")
	assert.Empty(t, f.Store.Assets)
	assert.Len(t, f.Store.Deleted, 2)
	assert.Empty(t, f.Portfolio.Images)
}

func TestPortfolio_UploadFailureLeavesNoRows(t *testing.T) {
	f := mocks.NewFixture()
	f.Store.FailOn = "boom"
	svc := f.Services()

	_, err := svc.Portfolio.Upload(context.Background(), admin, models.PortfolioImageMeta{}, []service.UploadFile{
		fileOf("a.png", "image/png", "aaa"),
		fileOf("b.png", "image/png", "boom"),
	})
	require.Error(t, err)
	assert.Empty(t, f.Portfolio.Images)
	assert.Empty(t, f.Store.Assets)

	_, err = svc.Portfolio.Upload(context.Background(), admin, models.PortfolioImageMeta{}, []service.UploadFile{
		fileOf("doc.pdf", "application/pdf", "%PDF"),
	})
	assert.True(t, errors.Is(err, service.ErrBadRequest), "got %v", err)
}

func TestPortfolio_ReorderAndDelete(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()

	images, err := svc.Portfolio.Upload(ctx, admin, models.PortfolioImageMeta{}, []service.UploadFile{
		fileOf("a.png", "image/png", "a"),
		fileOf("b.png", "image/png", "b"),
		fileOf("c.png", "image/png", "c"),
	})
	require.NoError(t, err)
	a, b, c := images[0].ID, images[1].ID, images[2].ID

	require.NoError(t, svc.Portfolio.Reorder(ctx, admin, []string{c, a, b}))
	listed, _, err := svc.Portfolio.List(ctx, models.PortfolioFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{c, a, b}, []string{listed[0].ID, listed[1].ID, listed[2].ID})

	err = svc.Portfolio.Reorder(ctx, admin, []string{a, a})
	assert.True(t, errors.Is(err, service.ErrBadRequest), "got %v", err)
	err = svc.Portfolio.Reorder(ctx, admin, []string{a, "550e8400-e29b-41d4-a716-446655440000"})
	assert.True(t, errors.Is(err, service.ErrNotFound), "got %v", err)
	assert.Equal(t, 1, f.Portfolio.Images[a].DisplayOrder, "a failed reorder changes nothing")

	publicID := images[1].PublicID
	require.NoError(t, svc.Portfolio.Delete(ctx, admin, b))
	assert.NotContains(t, f.Portfolio.Images, b)
	assert.Contains(t, f.Store.Deleted, publicID)
	assert.True(t, errors.Is(svc.Portfolio.Delete(ctx, admin, b), service.ErrNotFound))

	featured := true
	updated, err := svc.Portfolio.Update(ctx, admin, a, &models.PortfolioImageUpdate{IsFeatured: &featured})
	require.NoError(t, err)
	assert.True(t, updated.IsFeatured)
}

func projectFixture(t *testing.T) (*mocks.Fixture, *service.Services, *models.Project) {
	t.Helper()
	f := mocks.NewFixture()
	project := &models.Project{ID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", UserID: "client-1", AssignedTo: "dev-1", Title: "Refonte"}
	f.Payments.Projects[project.ID] = project
	return f, f.Services(), project
}

var (
	client   = service.Actor{UserID: "client-1", Role: models.RoleMember}
	assignee = service.Actor{UserID: "dev-1", Role: models.RoleAuthor}
	stranger = service.Actor{UserID: "other-1", Role: models.RoleMember}
)

func TestProjectFiles_Access(t *testing.T) {
	f, svc, project := projectFixture(t)
	ctx := context.Background()

	uploaded, err := svc.Files.Upload(ctx, client, project.ID, "<b>brief</b>", []service.UploadFile{
		fileOf("brief.pdf", "application/pdf", "%PDF-1.7"),
	})
	require.NoError(t, err)
	require.Len(t, uploaded, 1)
	file := uploaded[0]
	assert.Equal(t, "brief", file.Description)
	assert.Equal(t, "raw", file.ResourceType)
	assert.True(t, strings.HasPrefix(file.PublicID, "projects/"+project.ID+"/"))

	for _, actor := range []service.Actor{client, assignee, editor} {
		files, err := svc.Files.List(ctx, actor, project.ID)
		require.NoError(t, err, actor.UserID)
		assert.Len(t, files, 1)
	}

	_, err = svc.Files.List(ctx, stranger, project.ID)
	assert.True(t, errors.Is(err, service.ErrForbidden), "got %v", err)
	_, err = svc.Files.Download(ctx, stranger, project.ID, file.ID)
	assert.True(t, errors.Is(err, service.ErrForbidden), "got %v", err)
	_, err = svc.Files.Upload(ctx, stranger, project.ID, "", []service.UploadFile{fileOf("x.pdf", "application/pdf", "x")})
	assert.True(t, errors.Is(err, service.ErrForbidden), "got %v", err)
	assert.Len(t, f.Store.Assets, 1, "a refused upload never reaches the CDN")

	_, err = svc.Files.List(ctx, client, "550e8400-e29b-41d4-a716-446655440000")
	assert.True(t, errors.Is(err, service.ErrNotFound), "got %v", err)

	d, err := svc.Files.Download(ctx, assignee, project.ID, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.FileURL, d.URL)
	assert.Equal(t, "brief.pdf", d.FileName)
}

func TestProjectFiles_InsertFailureRemovesAssets(t *testing.T) {
	f, svc, project := projectFixture(t)
	f.ProjectFiles.InsertError = errors.New("connection reset")

	_, err := svc.Files.Upload(context.Background(), client, project.ID, "", []service.UploadFile{
		fileOf("a.pdf", "application/pdf", "a"),
		fileOf("b.png", "image/png", "b"),
	})
	require.EqualError(t, err, "connection reset")
	assert.Empty(t, f.Store.Assets)
	assert.Len(t, f.Store.Deleted, 2)
	assert.Empty(t, f.ProjectFiles.Files)
}

func TestProjectFiles_UpdateAndDelete(t *testing.T) {
	f, svc, project := projectFixture(t)
	ctx := context.Background()

	uploaded, err := svc.Files.Upload(ctx, client, project.ID, "", []service.UploadFile{
		fileOf("maquette.png", "image/png", "png"),
	})
	require.NoError(t, err)
	file := uploaded[0]

	name := "maquette-v2.png"
	_, err = svc.Files.Update(ctx, assignee, project.ID, file.ID, &models.ProjectFileUpdate{FileName: &name})
	assert.True(t, errors.Is(err, service.ErrForbidden), "only the uploader or staff may rename")

	updated, err := svc.Files.Update(ctx, client, project.ID, file.ID, &models.ProjectFileUpdate{FileName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FileName)

	blank := "  "
	_, err = svc.Files.Update(ctx, client, project.ID, file.ID, &models.ProjectFileUpdate{FileName: &blank})
	assert.True(t, errors.Is(err, service.ErrBadRequest), "got %v", err)

	assert.True(t, errors.Is(svc.Files.Delete(ctx, assignee, project.ID, file.ID), service.ErrForbidden))
	require.NoError(t, svc.Files.Delete(ctx, editor, project.ID, file.ID))
	assert.Empty(t, f.ProjectFiles.Files)
	assert.Contains(t, f.Store.Deleted, file.PublicID)

	_, err = svc.Files.Get(ctx, client, project.ID, file.ID)
	assert.True(t, errors.Is(err, service.ErrNotFound), "got %v", err)
}
