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

// blogService is the concrete implementation of BlogService
type blogService struct {
	posts     repository.BlogRepository
	sanitizer *validation.Sanitizer
	audit     *auditor
	log       zerolog.Logger
}

func newBlogService(posts repository.BlogRepository, sanitizer *validation.Sanitizer, audit *auditor, log zerolog.Logger) *blogService {
	return &blogService{
		posts:     posts,
		sanitizer: sanitizer,
		audit:     audit,
		log:       log.With().Str("service", "blog").Logger(),
	}
}

// List returns published posts only
func (s *blogService) List(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, int, error) {
	filter.Status = models.StatusPublished
	filter.Page = filter.Page.Normalize(10)
	return s.posts.List(ctx, filter)
}

// ListAll returns posts of any status unless the filter names one
func (s *blogService) ListAll(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, int, error) {
	filter.Page = filter.Page.Normalize(20)
	return s.posts.List(ctx, filter)
}

func (s *blogService) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post == nil || post.Status != models.StatusPublished {
		return nil, notFound("blog post")
	}
	if err := s.posts.IncrementViews(ctx, post.ID); err != nil {
		s.log.Warn().Err(err).Str("post_id", post.ID).Msg("Failed to increment views")
	} else {
		post.ViewsCount++
	}
	return post, nil
}

func (s *blogService) Categories(ctx context.Context) ([]models.NamedCount, error) {
	return s.posts.Categories(ctx)
}

func (s *blogService) Tags(ctx context.Context) ([]models.NamedCount, error) {
	return s.posts.Tags(ctx)
}

func (s *blogService) Stats(ctx context.Context) (*models.BlogStats, error) {
	return s.posts.Stats(ctx)
}

// cleanTags trims, lower-cases and de-duplicates tags
func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (s *blogService) apply(post *models.BlogPost, in *models.BlogPostInput) {
	post.Title = strings.TrimSpace(in.Title)
	post.Excerpt = s.sanitizer.StripTags(in.Excerpt)
	post.Content = s.sanitizer.SanitizeHTML(in.Content)
	post.FeaturedImageURL = in.FeaturedImageURL
	post.Category = strings.TrimSpace(in.Category)
	post.Tags = cleanTags(in.Tags)
	post.IsFeatured = in.IsFeatured
	if in.Status != "" {
		post.Status = in.Status
	}
	if post.Status == "" {
		post.Status = models.StatusDraft
	}
	if post.Status == models.StatusPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}
}

func (s *blogService) Create(ctx context.Context, actor Actor, in *models.BlogPostInput) (*models.BlogPost, error) {
	slug, err := slugFor(in.Slug, in.Title)
	if err != nil {
		return nil, err
	}
	post := &models.BlogPost{Slug: slug, AuthorID: actor.UserID}
	s.apply(post, in)

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, "create", "blog_post", post.ID, map[string]string{"title": post.Title})
	return post, nil
}

func (s *blogService) Update(ctx context.Context, actor Actor, id string, in *models.BlogPostInput) (*models.BlogPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, notFound("blog post")
	}
	if in.Slug != "" {
		if post.Slug, err = slugFor(in.Slug, in.Title); err != nil {
			return nil, err
		}
	}
	s.apply(post, in)

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, notFoundIf(err, "blog post")
	}
	s.audit.record(ctx, actor, "update", "blog_post", id, map[string]string{"status": post.Status})
	return post, nil
}

func (s *blogService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return notFoundIf(err, "blog post")
	}
	s.audit.record(ctx, actor, "delete", "blog_post", id, nil)
	return nil
}
