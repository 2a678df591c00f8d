package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The in-memory fixtures must stay interchangeable with the postgres repositories.
var (
	_ repository.UserRepository         = (*mocks.MockUserRepository)(nil)
	_ repository.AuthRepository         = (*mocks.MockAuthRepository)(nil)
	_ repository.ArticleRepository      = (*mocks.MockArticleRepository)(nil)
	_ repository.RubriqueRepository     = (*mocks.MockRubriqueRepository)(nil)
	_ repository.CommentRepository      = (*mocks.MockCommentRepository)(nil)
	_ repository.BlogRepository         = (*mocks.MockBlogRepository)(nil)
	_ repository.OfferRepository        = (*mocks.MockOfferRepository)(nil)
	_ repository.TestimonialRepository  = (*mocks.MockTestimonialRepository)(nil)
	_ repository.SettingRepository      = (*mocks.MockSettingRepository)(nil)
	_ repository.NewsletterRepository   = (*mocks.MockNewsletterRepository)(nil)
	_ repository.ContactRepository      = (*mocks.MockContactRepository)(nil)
	_ repository.PaymentRepository      = (*mocks.MockPaymentRepository)(nil)
	_ repository.WebhookRepository      = (*mocks.MockWebhookRepository)(nil)
	_ repository.NotificationRepository = (*mocks.MockNotificationRepository)(nil)
	_ repository.AdminRepository        = (*mocks.MockAdminRepository)(nil)
	_ repository.EmailRepository        = (*mocks.MockEmailRepository)(nil)
	_ repository.PortfolioRepository    = (*mocks.MockPortfolioRepository)(nil)
	_ repository.ProjectFileRepository  = (*mocks.MockProjectFileRepository)(nil)
)

func TestMockUserRepository_Lookup(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	ctx := context.Background()

	user := &models.User{Email: "jane@agency.fr", Username: "jane", Role: models.RoleAuthor, IsActive: true}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "jane@agency.fr")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)

	exists, err := repo.UsernameExists(ctx, "jane")
	require.NoError(t, err)
	assert.True(t, exists)

	missing, err := repo.GetByEmail(ctx, "nobody@agency.fr")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, repo.UpdateLastLogin(ctx, "unknown-id"), repository.ErrNotFound)
}

func TestMockUserRepository_InsertError(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	repo.InsertError = errors.New("connection reset")

	err := repo.Create(context.Background(), &models.User{Email: "x@agency.fr"})
	assert.EqualError(t, err, "connection reset")
	assert.Empty(t, repo.Users)
}

func TestMockNewsletterRepository_Lifecycle(t *testing.T) {
	repo := mocks.NewMockNewsletterRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Subscriber{Email: "a@agency.fr"}))
	require.NoError(t, repo.Create(ctx, &models.Subscriber{Email: "b@agency.fr"}))

	err := repo.Create(ctx, &models.Subscriber{Email: "a@agency.fr"})
	var pqErr *pq.Error
	require.ErrorAs(t, err, &pqErr)
	assert.Equal(t, pq.ErrorCode("23505"), pqErr.Code)

	require.NoError(t, repo.Unsubscribe(ctx, "a@agency.fr"))
	assert.ErrorIs(t, repo.Unsubscribe(ctx, "a@agency.fr"), repository.ErrNotFound)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Unsubscribed)

	active, total, err := repo.List(ctx, models.SubscriberFilter{Status: models.SubscriberActive, Page: models.Page{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, active, 1)
	assert.Equal(t, "b@agency.fr", active[0].Email)

	sub := &models.Subscriber{Email: "a@agency.fr"}
	require.NoError(t, repo.Reactivate(ctx, sub))
	assert.Equal(t, models.SubscriberActive, sub.Status)
	assert.Nil(t, sub.UnsubscribedAt)

	var streamed []string
	require.NoError(t, repo.StreamAll(ctx, "", func(s *models.Subscriber) error {
		streamed = append(streamed, s.Email)
		return nil
	}))
	assert.Equal(t, []string{"a@agency.fr", "b@agency.fr"}, streamed)
}

func TestMockWebhookRepository_ApplyOnce(t *testing.T) {
	payments := mocks.NewMockPaymentRepository()
	repo := mocks.NewMockWebhookRepository(payments)
	ctx := context.Background()

	evt := &models.StripeEvent{EventID: "evt_1", EventType: "payment_intent.succeeded"}
	apply := func(tx repository.PaymentTx) error {
		_, err := tx.UpsertPayment(ctx, repository.KeyPaymentIntent, &models.PaymentUpdate{
			PaymentIntentID: "pi_1",
			Amount:          5000,
			Currency:        "eur",
			PaymentType:     models.PaymentTypeDeposit,
			Status:          models.PaymentSucceeded,
		})
		return err
	}

	applied, err := repo.Apply(ctx, evt, apply)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.Apply(ctx, evt, apply)
	require.NoError(t, err)
	assert.False(t, applied, "a processed event must not be applied twice")

	stored, err := repo.GetEvent(ctx, "evt_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.Attempts)
	assert.NotNil(t, stored.ProcessedAt)

	p := payments.Find(func(p *models.PaymentLog) bool { return p.PaymentIntentID == "pi_1" })
	require.NotNil(t, p)
	assert.Equal(t, models.PaymentSucceeded, p.Status)
	assert.EqualValues(t, 5000, p.Amount)
}

func TestMockWebhookRepository_RollsBackOnFailure(t *testing.T) {
	payments := mocks.NewMockPaymentRepository()
	repo := mocks.NewMockWebhookRepository(payments)
	ctx := context.Background()
	repo.FailWith = errors.New("boom")

	evt := &models.StripeEvent{EventID: "evt_2", EventType: "checkout.session.completed"}
	_, err := repo.Apply(ctx, evt, func(tx repository.PaymentTx) error {
		_, err := tx.UpsertPayment(ctx, repository.KeyCheckoutSession, &models.PaymentUpdate{
			CheckoutSessionID: "cs_1",
			Amount:            1200,
			Status:            models.PaymentSucceeded,
		})
		return err
	})
	require.EqualError(t, err, "boom")
	require.NoError(t, repo.RecordFailure(ctx, evt, err))

	assert.Nil(t, payments.Find(func(p *models.PaymentLog) bool { return p.CheckoutSessionID == "cs_1" }))

	stored, err := repo.GetEvent(ctx, "evt_2")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "boom", stored.Error)
	assert.Nil(t, stored.ProcessedAt)

	// a failed event is retried on redelivery
	applied, err := repo.Apply(ctx, evt, func(tx repository.PaymentTx) error { return nil })
	require.NoError(t, err)
	assert.True(t, applied)
}
