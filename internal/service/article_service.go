package service

import (
	"context"
	"strings"
	"time"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// articleService is the concrete implementation of ArticleService
type articleService struct {
	articles  repository.ArticleRepository
	rubriques repository.RubriqueRepository
	sanitizer *validation.Sanitizer
	audit     *auditor
	log       zerolog.Logger
}

func newArticleService(repos *repository.Repositories, sanitizer *validation.Sanitizer, audit *auditor, log zerolog.Logger) *articleService {
	return &articleService{
		articles:  repos.Article,
		rubriques: repos.Rubrique,
		sanitizer: sanitizer,
		audit:     audit,
		log:       log.With().Str("service", "article").Logger(),
	}
}

// List returns published articles only
func (s *articleService) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	filter.Status = models.StatusPublished
	filter.AuthorID = ""
	filter.Page = filter.Page.Normalize(10)
	return s.articles.List(ctx, filter)
}

func (s *articleService) ListMine(ctx context.Context, actor Actor, page models.Page) ([]*models.Article, int, error) {
	return s.articles.List(ctx, models.ArticleFilter{AuthorID: actor.UserID, Page: page.Normalize(20)})
}

func (s *articleService) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if article == nil || article.Status != models.StatusPublished {
		return nil, notFound("article")
	}

	if err := s.articles.IncrementViews(ctx, article.ID); err != nil {
		s.log.Warn().Err(err).Str("article_id", article.ID).Msg("Failed to increment views")
	} else {
		article.ViewsCount++
	}
	return article, nil
}

// slugFor returns the explicit slug or one derived from the title
func slugFor(explicit, title string) (string, error) {
	slug := strings.TrimSpace(explicit)
	if slug == "" {
		slug = validation.Slugify(title)
	}
	if !validation.IsValidSlug(slug) {
		return "", newError(ErrBadRequest, "invalid slug %q", slug)
	}
	return slug, nil
}

func (s *articleService) Create(ctx context.Context, actor Actor, in *models.ArticleInput) (*models.Article, error) {
	slug, err := slugFor(in.Slug, in.Title)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		Title:            strings.TrimSpace(in.Title),
		Slug:             slug,
		Excerpt:          s.sanitizer.StripTags(in.Excerpt),
		Content:          s.sanitizer.SanitizeHTML(in.Content),
		FeaturedImageURL: in.FeaturedImageURL,
		AuthorID:         actor.UserID,
		RubriqueID:       in.RubriqueID,
		Status:           in.Status,
		IsFeatured:       in.IsFeatured,
	}
	if article.Status == "" {
		article.Status = models.StatusDraft
	}
	if article.Status == models.StatusPublished {
		now := time.Now()
		article.PublishedAt = &now
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}

	s.audit.record(ctx, actor, "create", "article", article.ID, map[string]string{"title": article.Title})
	s.log.Info().Str("article_id", article.ID).Str("slug", article.Slug).Msg("Article created")
	return article, nil
}

// owned loads an article the actor may modify
func (s *articleService) owned(ctx context.Context, actor Actor, id string) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, notFound("article")
	}
	if article.AuthorID != actor.UserID && !actor.IsStaff() {
		return nil, newError(ErrForbidden, "you can only modify your own articles")
	}
	return article, nil
}

func (s *articleService) Update(ctx context.Context, actor Actor, id string, in *models.ArticleInput) (*models.Article, error) {
	article, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	slug, err := slugFor(in.Slug, in.Title)
	if err != nil {
		return nil, err
	}
	if in.Slug == "" {
		// keep published URLs stable when only the title changes
		slug = article.Slug
	}

	article.Title = strings.TrimSpace(in.Title)
	article.Slug = slug
	article.Excerpt = s.sanitizer.StripTags(in.Excerpt)
	article.Content = s.sanitizer.SanitizeHTML(in.Content)
	article.FeaturedImageURL = in.FeaturedImageURL
	article.RubriqueID = in.RubriqueID
	article.IsFeatured = in.IsFeatured
	if in.Status != "" {
		article.Status = in.Status
	}
	if article.Status == models.StatusPublished && article.PublishedAt == nil {
		now := time.Now()
		article.PublishedAt = &now
	}

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, notFoundIf(err, "article")
	}

	s.audit.record(ctx, actor, "update", "article", article.ID, map[string]string{"status": article.Status})
	return article, nil
}

func (s *articleService) Delete(ctx context.Context, actor Actor, id string) error {
	article, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		return notFoundIf(err, "article")
	}
	s.audit.record(ctx, actor, "delete", "article", id, map[string]string{"title": article.Title})
	return nil
}

func (s *articleService) ListRubriques(ctx context.Context) ([]*models.Rubrique, error) {
	return s.rubriques.List(ctx)
}

func (s *articleService) GetRubrique(ctx context.Context, slug string) (*models.Rubrique, error) {
	rubrique, err := s.rubriques.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if rubrique == nil {
		return nil, notFound("rubrique")
	}
	return rubrique, nil
}

func rubriqueFrom(in *models.RubriqueInput, slug string) *models.Rubrique {
	return &models.Rubrique{
		Name:         strings.TrimSpace(in.Name),
		Slug:         slug,
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		ColorTheme:   in.ColorTheme,
		DisplayOrder: in.DisplayOrder,
	}
}

func (s *articleService) CreateRubrique(ctx context.Context, actor Actor, in *models.RubriqueInput) (*models.Rubrique, error) {
	slug, err := slugFor(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	rubrique := rubriqueFrom(in, slug)
	if err := s.rubriques.Create(ctx, rubrique); err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, "create", "rubrique", rubrique.ID, map[string]string{"name": rubrique.Name})
	return rubrique, nil
}

func (s *articleService) UpdateRubrique(ctx context.Context, actor Actor, id string, in *models.RubriqueInput) (*models.Rubrique, error) {
	existing, err := s.rubriques.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, notFound("rubrique")
	}

	slug := existing.Slug
	if in.Slug != "" {
		if slug, err = slugFor(in.Slug, in.Name); err != nil {
			return nil, err
		}
	}

	rubrique := rubriqueFrom(in, slug)
	rubrique.ID = id
	rubrique.CreatedAt = existing.CreatedAt
	if err := s.rubriques.Update(ctx, rubrique); err != nil {
		return nil, notFoundIf(err, "rubrique")
	}
	s.audit.record(ctx, actor, "update", "rubrique", id, nil)
	return rubrique, nil
}

// DeleteRubrique refuses while any article references the rubrique
func (s *articleService) DeleteRubrique(ctx context.Context, actor Actor, id string) error {
	count, err := s.rubriques.CountArticles(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return newError(ErrBadRequest, "cannot delete a rubrique that still has %d article(s)", count)
	}
	if err := s.rubriques.Delete(ctx, id); err != nil {
		return notFoundIf(err, "rubrique")
	}
	s.audit.record(ctx, actor, "delete", "rubrique", id, nil)
	return nil
}
