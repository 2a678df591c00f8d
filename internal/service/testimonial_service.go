package service

import (
	"context"
	"strings"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// testimonialService is the concrete implementation of TestimonialService
type testimonialService struct {
	testimonials repository.TestimonialRepository
	users        repository.UserRepository
	sanitizer    *validation.Sanitizer
	audit        *auditor
	log          zerolog.Logger
}

func newTestimonialService(repos *repository.Repositories, sanitizer *validation.Sanitizer, audit *auditor, log zerolog.Logger) *testimonialService {
	return &testimonialService{
		testimonials: repos.Testimonial,
		users:        repos.User,
		sanitizer:    sanitizer,
		audit:        audit,
		log:          log.With().Str("service", "testimonial").Logger(),
	}
}

func (s *testimonialService) List(ctx context.Context, filter models.TestimonialFilter) ([]*models.Testimonial, int, error) {
	filter.Page = filter.Page.Normalize(10)
	return s.testimonials.List(ctx, filter)
}

// Get returns an approved testimonial
func (s *testimonialService) Get(ctx context.Context, id string) (*models.Testimonial, error) {
	t, err := s.testimonials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.IsApproved {
		return nil, notFound("testimonial")
	}
	return t, nil
}

// Create stores a testimonial pending approval. Author fields default to the caller's profile.
func (s *testimonialService) Create(ctx context.Context, actor Actor, in *models.TestimonialInput) (*models.Testimonial, error) {
	t := &models.Testimonial{
		UserID:          actor.UserID,
		AuthorName:      strings.TrimSpace(in.AuthorName),
		AuthorCompany:   strings.TrimSpace(in.AuthorCompany),
		AuthorPosition:  strings.TrimSpace(in.AuthorPosition),
		AuthorAvatarURL: in.AuthorAvatarURL,
		Content:         s.sanitizer.StripTags(in.Content),
		Rating:          in.Rating,
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if t.AuthorName == "" {
			t.AuthorName = user.FullName()
		}
		if t.AuthorCompany == "" {
			t.AuthorCompany = user.CompanyName
		}
		if t.AuthorAvatarURL == "" {
			t.AuthorAvatarURL = user.AvatarURL
		}
	}
	if t.AuthorName == "" {
		return nil, newError(ErrBadRequest, "author_name is required")
	}

	if err := s.testimonials.Create(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info().Str("testimonial_id", t.ID).Msg("Testimonial submitted")
	return t, nil
}

func (s *testimonialService) load(ctx context.Context, id string) (*models.Testimonial, error) {
	t, err := s.testimonials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFound("testimonial")
	}
	return t, nil
}

func (s *testimonialService) Update(ctx context.Context, actor Actor, id string, in *models.TestimonialUpdate) (*models.Testimonial, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.AuthorName != nil {
		t.AuthorName = strings.TrimSpace(*in.AuthorName)
	}
	if in.AuthorCompany != nil {
		t.AuthorCompany = strings.TrimSpace(*in.AuthorCompany)
	}
	if in.AuthorPosition != nil {
		t.AuthorPosition = strings.TrimSpace(*in.AuthorPosition)
	}
	if in.Content != nil {
		t.Content = s.sanitizer.StripTags(*in.Content)
	}
	if in.Rating != nil {
		t.Rating = *in.Rating
	}
	if in.IsApproved != nil {
		t.IsApproved = *in.IsApproved
	}
	if in.IsFeatured != nil {
		t.IsFeatured = *in.IsFeatured
	}

	if err := s.testimonials.Update(ctx, t); err != nil {
		return nil, notFoundIf(err, "testimonial")
	}
	s.audit.record(ctx, actor, "update", "testimonial", id, nil)
	return t, nil
}

func (s *testimonialService) Approve(ctx context.Context, actor Actor, id string) (*models.Testimonial, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	t.IsApproved = true
	if err := s.testimonials.Update(ctx, t); err != nil {
		return nil, notFoundIf(err, "testimonial")
	}
	s.audit.record(ctx, actor, "approve", "testimonial", id, nil)
	return t, nil
}

func (s *testimonialService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.testimonials.Delete(ctx, id); err != nil {
		return notFoundIf(err, "testimonial")
	}
	s.audit.record(ctx, actor, "delete", "testimonial", id, nil)
	return nil
}

func (s *testimonialService) Stats(ctx context.Context) (*models.TestimonialStats, error) {
	return s.testimonials.Stats(ctx)
}
