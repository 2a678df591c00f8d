package service

import (
	"context"
	"strings"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/rs/zerolog"
)

const defaultCurrency = "EUR"

// offerService is the concrete implementation of OfferService
type offerService struct {
	offers repository.OfferRepository
	audit  *auditor
	log    zerolog.Logger
}

func newOfferService(offers repository.OfferRepository, audit *auditor, log zerolog.Logger) *offerService {
	return &offerService{
		offers: offers,
		audit:  audit,
		log:    log.With().Str("service", "offer").Logger(),
	}
}

func (s *offerService) List(ctx context.Context, filter models.OfferFilter) ([]*models.Offer, int, error) {
	filter.Page = filter.Page.Normalize(50)
	return s.offers.List(ctx, filter)
}

// GetBySlug returns active offers only
func (s *offerService) GetBySlug(ctx context.Context, slug string) (*models.Offer, error) {
	offer, err := s.offers.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if offer == nil || !offer.IsActive {
		return nil, notFound("offer")
	}
	return offer, nil
}

func (s *offerService) Stats(ctx context.Context) (*models.OfferStats, error) {
	return s.offers.Stats(ctx)
}

func applyOffer(o *models.Offer, in *models.OfferInput) {
	o.Name = strings.TrimSpace(in.Name)
	o.Description = in.Description
	o.Features = in.Features
	if o.Features == nil {
		o.Features = []string{}
	}
	o.PriceStartingAt = in.PriceStartingAt
	o.Currency = strings.ToUpper(in.Currency)
	if o.Currency == "" {
		o.Currency = defaultCurrency
	}
	o.DurationWeeks = in.DurationWeeks
	o.Category = strings.TrimSpace(in.Category)
	o.DisplayOrder = in.DisplayOrder
	o.IconName = in.IconName
	o.ColorTheme = in.ColorTheme
	if in.IsActive != nil {
		o.IsActive = *in.IsActive
	}
}

func (s *offerService) Create(ctx context.Context, actor Actor, in *models.OfferInput) (*models.Offer, error) {
	slug, err := slugFor(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	offer := &models.Offer{Slug: slug, IsActive: true}
	applyOffer(offer, in)

	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, "create", "offer", offer.ID, map[string]string{"name": offer.Name})
	return offer, nil
}

func (s *offerService) Update(ctx context.Context, actor Actor, id string, in *models.OfferInput) (*models.Offer, error) {
	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, notFound("offer")
	}
	if in.Slug != "" {
		if offer.Slug, err = slugFor(in.Slug, in.Name); err != nil {
			return nil, err
		}
	}
	applyOffer(offer, in)

	if err := s.offers.Update(ctx, offer); err != nil {
		return nil, notFoundIf(err, "offer")
	}
	s.audit.record(ctx, actor, "update", "offer", id, nil)
	return offer, nil
}

func (s *offerService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.offers.Delete(ctx, id); err != nil {
		return notFoundIf(err, "offer")
	}
	s.audit.record(ctx, actor, "delete", "offer", id, nil)
	return nil
}
