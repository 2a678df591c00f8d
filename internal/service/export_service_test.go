package service_test

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSubscribers(t *testing.T, f *mocks.Fixture) {
	t.Helper()
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, f.Newsletter.Create(ctx, &models.Subscriber{Email: email, Firstname: "N", SubscriptionSource: "website"}))
	}
	require.NoError(t, f.Newsletter.Unsubscribe(ctx, "c@example.com"))
}

func TestExport_SubscribersCSV(t *testing.T) {
	f := mocks.NewFixture()
	seedSubscribers(t, f)
	svc := f.Services()

	rec := httptest.NewRecorder()
	require.NoError(t, svc.Export.StreamSubscribers(context.Background(), rec, "csv", models.SubscriberActive))

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "subscribers.csv")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "email", rows[0][0])
	assert.Equal(t, "a@example.com", rows[1][0])
	assert.Equal(t, models.SubscriberActive, rows[2][3])
	assert.Empty(t, rows[2][6])
}

func TestExport_SubscribersNDJSON(t *testing.T) {
	f := mocks.NewFixture()
	seedSubscribers(t, f)
	svc := f.Services()

	rec := httptest.NewRecorder()
	require.NoError(t, svc.Export.StreamSubscribers(context.Background(), rec, "ndjson", ""))

	var emails []string
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		var sub models.Subscriber
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &sub))
		emails = append(emails, sub.Email)
	}
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, emails)
}

func TestExport_SubscribersJSONArray(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()

	rec := httptest.NewRecorder()
	require.NoError(t, svc.Export.StreamSubscribers(context.Background(), rec, "json", ""))
	assert.Equal(t, "[]", rec.Body.String())

	seedSubscribers(t, f)
	rec = httptest.NewRecorder()
	require.NoError(t, svc.Export.StreamSubscribers(context.Background(), rec, "json", ""))
	var subs []models.Subscriber
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
	assert.Len(t, subs, 3)
}

func TestExport_ContactsAndPayments(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	ctx := context.Background()
	_, err := svc.Contact.Submit(ctx, &models.ContactRequest{Name: "Jo", Email: "jo@example.com", Message: "line one, with comma\nline two"}, service.RequestMeta{})
	require.NoError(t, err)
	require.NoError(t, f.Payments.Create(ctx, &models.PaymentLog{PaymentIntentID: "pi_x", Amount: 12345, Currency: "eur", Status: models.PaymentSucceeded}))

	rec := httptest.NewRecorder()
	require.NoError(t, svc.Export.StreamContacts(ctx, rec, "csv"))
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "line one, with comma\nline two", rows[1][5])

	rec = httptest.NewRecorder()
	require.NoError(t, svc.Export.StreamPayments(ctx, rec, "csv"))
	rows, err = csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "12345", rows[1][5])
	assert.Equal(t, "succeeded", rows[1][8])
}

func TestExport_UnsupportedFormat(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()

	for _, fn := range []func() error{
		func() error {
			return svc.Export.StreamSubscribers(context.Background(), httptest.NewRecorder(), "xml", "")
		},
		func() error { return svc.Export.StreamContacts(context.Background(), httptest.NewRecorder(), "json") },
		func() error { return svc.Export.StreamPayments(context.Background(), httptest.NewRecorder(), "xlsx") },
	} {
		err := fn()
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrBadRequest))
		assert.True(t, strings.HasPrefix(err.Error(), "unsupported format"))
	}
}
