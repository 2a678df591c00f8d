package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitContact(t *testing.T, svc *service.Services) *models.ContactMessage {
	t.Helper()
	msg, err := svc.Contact.Submit(context.Background(), &models.ContactRequest{
		Name:    "Jo Durand",
		Email:   "Jo@Example.com",
		Subject: "Devis <b>site</b>",
		Message: "Hello there",
	}, service.RequestMeta{IPAddress: "192.0.2.1", UserAgent: "curl"})
	require.NoError(t, err)
	return msg
}

func TestContact_Submit(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()

	msg := submitContact(t, svc)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "jo@example.com", msg.Email)
	assert.Equal(t, "Devis site", msg.Subject)
	assert.Equal(t, models.ContactNew, msg.Status)
	assert.Equal(t, "192.0.2.1", msg.IPAddress)

	notices := f.Emails.ByType(models.EmailContactReceived)
	require.Len(t, notices, 1)
	assert.Equal(t, "team@agency.test", notices[0].RecipientEmail)
	assert.Equal(t, msg.ID, emailData(t, notices[0])["message_id"])
}

func TestContact_SubmitRejects(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()

	tests := []struct {
		name string
		req  models.ContactRequest
	}{
		{"blank name", models.ContactRequest{Name: "  ", Email: "jo@example.com", Message: "hi"}},
		{"blank message", models.ContactRequest{Name: "Jo", Email: "jo@example.com", Message: "<p></p>"}},
		{"bad email", models.ContactRequest{Name: "Jo", Email: "jo-at-example", Message: "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Contact.Submit(context.Background(), &tt.req, service.RequestMeta{})
			assert.True(t, errors.Is(err, service.ErrBadRequest), "got %v", err)
		})
	}
	assert.Empty(t, f.Contacts.Messages)
}

func TestContact_ThreadMarksRead(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	msg := submitContact(t, svc)

	thread, err := svc.Contact.Thread(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.True(t, thread.Message.IsRead)
	assert.Equal(t, models.ContactRead, thread.Message.Status)
	assert.Empty(t, thread.Replies)

	_, err = svc.Contact.Thread(context.Background(), "missing")
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestContact_Reply(t *testing.T) {
	f := mocks.NewFixture()
	admin := f.Users.Add(&models.User{Email: "admin@agency.test", Firstname: "Alex", Lastname: "Admin", Role: models.RoleAdmin, IsActive: true})
	actor := service.Actor{UserID: admin.ID, Email: admin.Email, Role: admin.Role}
	svc := f.Services()
	msg := submitContact(t, svc)

	thread, err := svc.Contact.Reply(context.Background(), actor, msg.ID, &models.ContactReplyRequest{ReplyText: "  Merci, nous revenons vers vous.  "})
	require.NoError(t, err)

	assert.Equal(t, models.ContactReplied, thread.Message.Status)
	assert.NotNil(t, thread.Message.RepliedAt)
	assert.Equal(t, admin.ID, thread.Message.RepliedBy)
	require.Len(t, thread.Replies, 1)
	assert.Equal(t, "Merci, nous revenons vers vous.", thread.Replies[0].ReplyText)

	replies := f.Emails.ByType(models.EmailContactReply)
	require.Len(t, replies, 1)
	assert.Equal(t, "jo@example.com", replies[0].RecipientEmail)
	data := emailData(t, replies[0])
	assert.Equal(t, "Jo", data["firstname"])
	assert.Equal(t, "Merci, nous revenons vers vous.", data["reply_message"])
	assert.Equal(t, "Alex Admin", data["admin_name"])

	assert.Contains(t, f.Admin.Actions(), "reply_message contact_message")
}

func TestContact_ReplyWithoutEmail(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	actor := service.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	msg := submitContact(t, svc)
	send := false

	_, err := svc.Contact.Reply(context.Background(), actor, msg.ID, &models.ContactReplyRequest{ReplyText: "noted", SendEmail: &send})
	require.NoError(t, err)
	assert.Empty(t, f.Emails.ByType(models.EmailContactReply))

	_, err = svc.Contact.Reply(context.Background(), actor, "missing", &models.ContactReplyRequest{ReplyText: "hello"})
	assert.True(t, errors.Is(err, service.ErrNotFound))

	_, err = svc.Contact.Reply(context.Background(), actor, msg.ID, &models.ContactReplyRequest{ReplyText: "   "})
	assert.True(t, errors.Is(err, service.ErrBadRequest))
}

func TestNewsletter_SubscribeLifecycle(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()

	sub, created, err := svc.Newsletter.Subscribe(ctx, &models.SubscribeRequest{Email: "Reader@Example.com", Firstname: "Lou"}, service.RequestMeta{})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "reader@example.com", sub.Email)
	assert.Equal(t, "website", sub.SubscriptionSource)
	assert.Equal(t, models.SubscriberActive, sub.Status)

	_, _, err = svc.Newsletter.Subscribe(ctx, &models.SubscribeRequest{Email: "reader@example.com"}, service.RequestMeta{})
	assert.True(t, errors.Is(err, service.ErrBadRequest))

	require.NoError(t, svc.Newsletter.Unsubscribe(ctx, "READER@example.com"))
	assert.Equal(t, models.SubscriberUnsubscribed, f.Newsletter.Subscribers["reader@example.com"].Status)

	err = svc.Newsletter.Unsubscribe(ctx, "reader@example.com")
	assert.True(t, errors.Is(err, service.ErrNotFound))

	sub, created, err = svc.Newsletter.Subscribe(ctx, &models.SubscribeRequest{Email: "reader@example.com"}, service.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.SubscriberActive, sub.Status)
	assert.Nil(t, sub.UnsubscribedAt)
	assert.Equal(t, "Lou", sub.Firstname)

	assert.Len(t, f.Emails.ByType(models.EmailNewsletterWelcome), 2)
}
