package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	author = service.Actor{UserID: "author-1", Email: "author@agency.test", Role: models.RoleAuthor}
	editor = service.Actor{UserID: "editor-1", Email: "editor@agency.test", Role: models.RoleEditor}
	member = service.Actor{UserID: "member-1", Email: "member@example.com", Role: models.RoleMember}
)

func TestArticle_CreateAndUpdate(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()

	article, err := svc.Article.Create(ctx, author, &models.ArticleInput{
		Title:   "Hello World",
		Content: `<p>Body</p><script>alert(1)</script>`,
		Excerpt: "<b>Short</b>",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", article.Slug)
	assert.Equal(t, models.StatusDraft, article.Status)
	assert.Nil(t, article.PublishedAt)
	assert.NotContains(t, article.Content, "script")
	assert.Equal(t, "Short", article.Excerpt)

	_, err = svc.Article.GetBySlug(ctx, "hello-world")
	assert.True(t, errors.Is(err, service.ErrNotFound), "drafts are not public")

	updated, err := svc.Article.Update(ctx, author, article.ID, &models.ArticleInput{
		Title:   "Hello Again",
		Content: "<p>Body</p>",
		Status:  models.StatusPublished,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", updated.Slug, "slug survives a title change")
	assert.NotNil(t, updated.PublishedAt)

	got, err := svc.Article.GetBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewsCount)

	assert.Equal(t, []string{"create article", "update article"}, f.Admin.Actions())
}

func TestArticle_Ownership(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()

	article, err := svc.Article.Create(ctx, author, &models.ArticleInput{Title: "Mine", Content: "x"})
	require.NoError(t, err)

	other := service.Actor{UserID: "author-2", Role: models.RoleAuthor}
	_, err = svc.Article.Update(ctx, other, article.ID, &models.ArticleInput{Title: "Stolen", Content: "x"})
	assert.True(t, errors.Is(err, service.ErrForbidden))

	err = svc.Article.Delete(ctx, other, article.ID)
	assert.True(t, errors.Is(err, service.ErrForbidden))

	require.NoError(t, svc.Article.Delete(ctx, editor, article.ID))
	err = svc.Article.Delete(ctx, editor, article.ID)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestArticle_InvalidSlug(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()

	_, err := svc.Article.Create(context.Background(), author, &models.ArticleInput{Title: "x", Slug: "Not A Slug", Content: "x"})
	assert.True(t, errors.Is(err, service.ErrBadRequest))
}

func publishedArticle(t *testing.T, f *mocks.Fixture, id string) *models.Article {
	t.Helper()
	a := &models.Article{ID: id, Title: id, Slug: id, Content: "x", AuthorID: author.UserID, Status: models.StatusPublished}
	require.NoError(t, f.Articles.Create(context.Background(), a))
	return a
}

func TestComment_Moderation(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()
	article := publishedArticle(t, f, "post-1")

	open, err := svc.Comment.Create(ctx, article.ID, &member, &models.CommentInput{Content: "First!"})
	require.NoError(t, err)
	assert.True(t, open.IsApproved)
	assert.Equal(t, member.UserID, open.UserID)

	require.NoError(t, svc.Comment.SetModeration(ctx, editor, true))
	held, err := svc.Comment.Create(ctx, article.ID, nil, &models.CommentInput{Content: "Nice <i>post</i>", AuthorName: "Guest", AuthorEmail: "Guest@Example.com"})
	require.NoError(t, err)
	assert.False(t, held.IsApproved)
	assert.Equal(t, "Nice post", held.Content)
	assert.Equal(t, "guest@example.com", held.AuthorEmail)

	public, err := svc.Comment.ListByArticle(ctx, article.ID, nil)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	staff, err := svc.Comment.ListByArticle(ctx, article.ID, &editor)
	require.NoError(t, err)
	assert.Len(t, staff, 2)

	pending, total, err := svc.Comment.ListPending(ctx, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, held.ID, pending[0].ID)

	require.NoError(t, svc.Comment.Approve(ctx, editor, held.ID))
	public, err = svc.Comment.ListByArticle(ctx, article.ID, nil)
	require.NoError(t, err)
	assert.Len(t, public, 2)
}

func TestComment_Rejects(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()
	article := publishedArticle(t, f, "post-1")
	other := publishedArticle(t, f, "post-2")
	draft := &models.Article{ID: "draft", Slug: "draft", Status: models.StatusDraft}
	require.NoError(t, f.Articles.Create(ctx, draft))

	parent, err := svc.Comment.Create(ctx, other.ID, &member, &models.CommentInput{Content: "elsewhere"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		articleID string
		viewer    *service.Actor
		in        models.CommentInput
		kind      error
	}{
		{"anonymous without name", article.ID, nil, models.CommentInput{Content: "hi"}, service.ErrBadRequest},
		{"empty after stripping", article.ID, &member, models.CommentInput{Content: "<br>"}, service.ErrBadRequest},
		{"parent from another article", article.ID, &member, models.CommentInput{Content: "hi", ParentCommentID: parent.ID}, service.ErrBadRequest},
		{"draft article", draft.ID, &member, models.CommentInput{Content: "hi"}, service.ErrNotFound},
		{"unknown article", "missing", &member, models.CommentInput{Content: "hi"}, service.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Comment.Create(ctx, tt.articleID, tt.viewer, &tt.in)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestComment_EditPermissions(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()
	article := publishedArticle(t, f, "post-1")

	comment, err := svc.Comment.Create(ctx, article.ID, &member, &models.CommentInput{Content: "typo"})
	require.NoError(t, err)

	stranger := service.Actor{UserID: "member-2", Role: models.RoleMember}
	assert.True(t, errors.Is(svc.Comment.Update(ctx, stranger, comment.ID, "hijack"), service.ErrForbidden))
	require.NoError(t, svc.Comment.Update(ctx, member, comment.ID, "fixed"))
	assert.Equal(t, "fixed", f.Comments.Comments[comment.ID].Content)

	require.NoError(t, svc.Comment.Delete(ctx, editor, comment.ID))
	assert.Contains(t, f.Admin.Actions(), "delete comment")
}

func TestOffer_SlugFromName(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()
	admin := service.Actor{UserID: "admin-1", Role: models.RoleAdmin}

	tests := []struct {
		name     string
		explicit string
		want     string
	}{
		{"Site Vitrine Éco", "", "site-vitrine-eco"},
		{"  Refonte & SEO  ", "", "refonte-seo"},
		{"E-commerce", "boutique", "boutique"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer, err := svc.Offer.Create(ctx, admin, &models.OfferInput{Name: tt.name, Slug: tt.explicit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, offer.Slug)
			assert.Equal(t, "EUR", offer.Currency)
			assert.True(t, offer.IsActive)
			assert.NotNil(t, offer.Features)
		})
	}

	_, err := svc.Offer.Create(ctx, admin, &models.OfferInput{Name: "!!!"})
	assert.True(t, errors.Is(err, service.ErrBadRequest))
}

func TestContent_DuplicateSlugOnUpdate(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()
	admin := service.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	var pqErr *pq.Error

	first, err := svc.Blog.Create(ctx, admin, &models.BlogPostInput{Title: "Premier", Content: "x"})
	require.NoError(t, err)
	second, err := svc.Blog.Create(ctx, admin, &models.BlogPostInput{Title: "Second", Content: "x"})
	require.NoError(t, err)
	_, err = svc.Blog.Update(ctx, admin, second.ID, &models.BlogPostInput{Title: "Second", Slug: first.Slug, Content: "x"})
	require.ErrorAs(t, err, &pqErr)
	assert.Equal(t, pq.ErrorCode("23505"), pqErr.Code)

	logo, err := svc.Offer.Create(ctx, admin, &models.OfferInput{Name: "Logo"})
	require.NoError(t, err)
	site, err := svc.Offer.Create(ctx, admin, &models.OfferInput{Name: "Site"})
	require.NoError(t, err)
	_, err = svc.Offer.Update(ctx, admin, site.ID, &models.OfferInput{Name: "Site", Slug: logo.Slug})
	require.ErrorAs(t, err, &pqErr)
	assert.Equal(t, pq.ErrorCode("23505"), pqErr.Code)

	_, err = svc.Offer.Update(ctx, admin, "00000000-0000-4000-8000-000000000000", &models.OfferInput{Name: "Ghost"})
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestBlog_PublicListing(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()

	draft, err := svc.Blog.Create(ctx, editor, &models.BlogPostInput{Title: "Brouillon", Content: "x", Tags: []string{" SEO", "seo", "Design "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"seo", "design"}, draft.Tags)
	assert.Nil(t, draft.PublishedAt)

	_, err = svc.Blog.Create(ctx, editor, &models.BlogPostInput{Title: "En ligne", Content: "x", Status: models.StatusPublished, Category: "news"})
	require.NoError(t, err)

	posts, total, err := svc.Blog.List(ctx, models.BlogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, posts, 1)
	assert.Equal(t, "en-ligne", posts[0].Slug)
	assert.NotNil(t, posts[0].PublishedAt)

	_, total, err = svc.Blog.ListAll(ctx, models.BlogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, err = svc.Blog.GetBySlug(ctx, draft.Slug)
	assert.True(t, errors.Is(err, service.ErrNotFound))

	got, err := svc.Blog.GetBySlug(ctx, "en-ligne")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewsCount)

	categories, err := svc.Blog.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.NamedCount{{Name: "news", Count: 1}}, categories)
}

func TestRubrique_DeleteGuard(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()
	admin := service.Actor{UserID: "admin-1", Role: models.RoleAdmin}

	rubrique, err := svc.Article.CreateRubrique(ctx, admin, &models.RubriqueInput{Name: "Études de cas"})
	require.NoError(t, err)
	assert.Equal(t, "etudes-de-cas", rubrique.Slug)

	_, err = svc.Article.Create(ctx, author, &models.ArticleInput{Title: "Cas client", Content: "x", RubriqueID: rubrique.ID})
	require.NoError(t, err)

	err = svc.Article.DeleteRubrique(ctx, admin, rubrique.ID)
	require.True(t, errors.Is(err, service.ErrBadRequest))
	assert.Contains(t, err.Error(), "still has 1 article(s)")

	empty, err := svc.Article.CreateRubrique(ctx, admin, &models.RubriqueInput{Name: "Vide"})
	require.NoError(t, err)
	require.NoError(t, svc.Article.DeleteRubrique(ctx, admin, empty.ID))
	assert.True(t, errors.Is(svc.Article.DeleteRubrique(ctx, admin, empty.ID), service.ErrNotFound))
}

func TestTestimonial_Lifecycle(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()
	admin := service.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	client := f.Users.Add(&models.User{Email: "client@example.com", Firstname: "Camille", Lastname: "Roy", CompanyName: "Roy SARL", Role: models.RoleMember, IsActive: true})
	actor := service.Actor{UserID: client.ID, Email: client.Email, Role: client.Role}

	created, err := svc.Testimonial.Create(ctx, actor, &models.TestimonialInput{Content: "<b>Top</b> équipe", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, "Camille Roy", created.AuthorName)
	assert.Equal(t, "Roy SARL", created.AuthorCompany)
	assert.Equal(t, "Top équipe", created.Content)
	assert.False(t, created.IsApproved)

	_, err = svc.Testimonial.Get(ctx, created.ID)
	assert.True(t, errors.Is(err, service.ErrNotFound), "unapproved testimonials are private")

	_, err = svc.Testimonial.Approve(ctx, admin, created.ID)
	require.NoError(t, err)
	got, err := svc.Testimonial.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)

	stats, err := svc.Testimonial.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Approved)
	assert.InDelta(t, 5.0, stats.AverageRating, 0.001)
	assert.Contains(t, f.Admin.Actions(), "approve testimonial")
}
