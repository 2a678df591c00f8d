package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agency-cms-api/internal/mailer"
	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queued(to, emailType string) *models.Email {
	return &models.Email{
		RecipientEmail: to,
		RecipientName:  "Jo",
		Type:           emailType,
		Subject:        "Bienvenue",
		Payload:        []byte(`{"firstname":"Jo"}`),
	}
}

func TestMail_DispatcherDeliversAndRetries(t *testing.T) {
	f := mocks.NewFixture()
	f.Sender.FailFor["bounce@example.com"] = true
	svc := f.Services()

	ok := queued("jo@example.com", models.EmailWelcome)
	bounce := queued("bounce@example.com", models.EmailWelcome)
	broken := queued("jo@example.com", "no_such_template")
	for _, e := range []*models.Email{ok, bounce, broken} {
		svc.Mail.Enqueue(context.Background(), e)
		require.NotEmpty(t, e.ID)
		assert.Equal(t, models.EmailPending, e.Status)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		svc.Mail.StartDispatcher(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return f.Emails.Status(ok.ID) == models.EmailSent &&
			f.Emails.Status(bounce.ID) == models.EmailFailed &&
			f.Emails.Status(broken.ID) == models.EmailFailed
	}, 2*time.Second, 10*time.Millisecond)

	svc.Mail.StopDispatcher()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}

	assert.NotNil(t, ok.SentAt)
	assert.Equal(t, 1, ok.Attempts)
	assert.Equal(t, f.Config.Mail.MaxAttempts, bounce.Attempts)
	assert.Contains(t, bounce.Error, "mailbox unavailable")
	assert.Equal(t, 1, broken.Attempts, "render errors are not retried")

	msgs := f.Sender.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "jo@example.com", msgs[0].To)
	assert.Equal(t, "Bienvenue", msgs[0].Subject)
	assert.True(t, strings.Contains(msgs[0].HTML, "Jo"))
}

func TestMail_StopWithoutStart(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	assert.NotPanics(t, svc.Mail.StopDispatcher)
}

func TestMail_StopLetsInFlightSendFinish(t *testing.T) {
	f := mocks.NewFixture()
	f.Sender.Hold = make(chan struct{})
	f.Sender.Started = make(chan mailer.Message, 1)
	svc := f.Services()

	email := queued("jo@example.com", models.EmailWelcome)
	svc.Mail.Enqueue(context.Background(), email)

	go svc.Mail.StartDispatcher(context.Background())

	select {
	case <-f.Sender.Started:
	case <-time.After(2 * time.Second):
		t.Fatal("email was never handed to the sender")
	}
	assert.Equal(t, models.EmailSending, f.Emails.Status(email.ID))

	stopped := make(chan struct{})
	go func() {
		svc.Mail.StopDispatcher()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while a send was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.Sender.Hold)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	assert.Equal(t, models.EmailSent, f.Emails.Status(email.ID))
	assert.Len(t, f.Sender.Messages(), 1)
}

func TestMail_ReclaimsStaleSending(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()

	stale := queued("stale@example.com", models.EmailWelcome)
	fresh := queued("fresh@example.com", models.EmailWelcome)
	for _, e := range []*models.Email{stale, fresh} {
		svc.Mail.Enqueue(context.Background(), e)
	}
	// a dispatcher died mid-send an hour ago; another one is sending right now
	stale.Status, stale.Attempts, stale.UpdatedAt = models.EmailSending, 1, time.Now().Add(-time.Hour)
	fresh.Status, fresh.Attempts, fresh.UpdatedAt = models.EmailSending, 1, time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Mail.StartDispatcher(ctx)

	require.Eventually(t, func() bool {
		return f.Emails.Status(stale.ID) == models.EmailSent
	}, 2*time.Second, 10*time.Millisecond)
	svc.Mail.StopDispatcher()

	assert.Equal(t, 2, stale.Attempts)
	assert.Equal(t, models.EmailSending, f.Emails.Status(fresh.ID))
	msgs := f.Sender.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "stale@example.com", msgs[0].To)
}
