package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/agency-cms-api/internal/config"
	"github.com/agency-cms-api/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates_RenderAll(t *testing.T) {
	tmpl, err := LoadTemplates("Agency", "https://agency.example")
	require.NoError(t, err)

	data := map[string]any{
		"firstname":        "Jo",
		"email":            "jo@x.com",
		"name":             "Jo",
		"message":          "Hello there",
		"message_id":       "m-1",
		"subject":          "Devis",
		"reset_link":       "https://agency.example/reset?token=abc",
		"original_message": "Hello there",
		"reply_message":    "Thanks!",
		"amount":           "1500.00",
		"currency":         "EUR",
		"payment_date":     "2024-05-01",
		"error_message":    "card declined",
	}

	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			html, err := tmpl.Render(name, data)
			require.NoError(t, err)
			assert.Contains(t, html, "<!DOCTYPE html>")
			assert.Contains(t, html, "Agency")
		})
	}
}

func TestTemplates_EscapesUserInput(t *testing.T) {
	tmpl, err := LoadTemplates("Agency", "https://agency.example")
	require.NoError(t, err)

	html, err := tmpl.Render(models.EmailContactReceived, map[string]any{
		"name":    "<script>alert(1)</script>",
		"email":   "x@y.z",
		"message": "hi",
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestTemplates_Truncate(t *testing.T) {
	tmpl, err := LoadTemplates("Agency", "https://agency.example")
	require.NoError(t, err)

	long := strings.Repeat("é", 200)
	html, err := tmpl.Render(models.EmailContactReply, map[string]any{
		"firstname":        "Jo",
		"original_message": long,
		"reply_message":    "ok",
	})
	require.NoError(t, err)
	assert.Contains(t, html, strings.Repeat("é", 150)+"...")
	assert.NotContains(t, html, strings.Repeat("é", 151))
}

func TestTemplates_Unknown(t *testing.T) {
	tmpl, err := LoadTemplates("Agency", "")
	require.NoError(t, err)

	_, err = tmpl.Render("reservation_created", nil)
	assert.Error(t, err)
}

func TestNewSender_LogOnlyWithoutHost(t *testing.T) {
	s, err := NewSender(config.MailConfig{}, zerolog.Nop())
	require.NoError(t, err)

	_, ok := s.(*logSender)
	assert.True(t, ok)
	assert.NoError(t, s.Send(context.Background(), Message{To: "jo@x.com", Subject: "hi", HTML: "<p>hi</p>"}))
}

func TestNewSender_SMTP(t *testing.T) {
	s, err := NewSender(config.MailConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "no-reply@example.com"}, zerolog.Nop())
	require.NoError(t, err)

	_, ok := s.(*smtpSender)
	assert.True(t, ok)
}
