package service

import (
	"context"
	"errors"
	"strings"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// newsletterService is the concrete implementation of NewsletterService
type newsletterService struct {
	subscribers repository.NewsletterRepository
	mail        MailService
	log         zerolog.Logger
}

func newNewsletterService(subscribers repository.NewsletterRepository, mail MailService, log zerolog.Logger) *newsletterService {
	return &newsletterService{
		subscribers: subscribers,
		mail:        mail,
		log:         log.With().Str("service", "newsletter").Logger(),
	}
}

// Subscribe creates or reactivates a subscription. created is false on reactivation.
func (s *newsletterService) Subscribe(ctx context.Context, req *models.SubscribeRequest, meta RequestMeta) (*models.Subscriber, bool, error) {
	email := validation.NormalizeEmail(req.Email)
	if !validation.IsValidEmail(email) {
		return nil, false, newError(ErrBadRequest, "invalid email address")
	}

	sub := &models.Subscriber{
		Email:              email,
		Firstname:          strings.TrimSpace(req.Firstname),
		Lastname:           strings.TrimSpace(req.Lastname),
		SubscriptionSource: strings.TrimSpace(req.Source),
		IPAddress:          meta.IPAddress,
		UserAgent:          meta.UserAgent,
	}
	if sub.SubscriptionSource == "" {
		sub.SubscriptionSource = "website"
	}

	existing, err := s.subscribers.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}

	created := existing == nil
	switch {
	case existing != nil && existing.Status == models.SubscriberActive:
		return nil, false, newError(ErrBadRequest, "this email is already subscribed")
	case existing != nil:
		if err := s.subscribers.Reactivate(ctx, sub); err != nil {
			return nil, false, notFoundIf(err, "subscriber")
		}
		if sub.Firstname == "" {
			sub.Firstname = existing.Firstname
		}
	default:
		if err := s.subscribers.Create(ctx, sub); err != nil {
			return nil, false, err
		}
	}

	s.mail.Enqueue(ctx, newEmail(models.EmailNewsletterWelcome, sub.Email, sub.Firstname, map[string]any{
		"firstname": sub.Firstname,
		"email":     sub.Email,
	}))

	s.log.Info().Str("subscriber_id", sub.ID).Bool("created", created).Msg("Newsletter subscription")
	return sub, created, nil
}

func (s *newsletterService) Unsubscribe(ctx context.Context, email string) error {
	err := s.subscribers.Unsubscribe(ctx, validation.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "email not found in the subscriber list")
	}
	return err
}

func (s *newsletterService) List(ctx context.Context, filter models.SubscriberFilter) ([]*models.Subscriber, int, error) {
	filter.Page = filter.Page.Normalize(50)
	return s.subscribers.List(ctx, filter)
}

func (s *newsletterService) Stats(ctx context.Context) (*models.NewsletterStats, error) {
	return s.subscribers.Stats(ctx)
}
