package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/agency-cms-api/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

const intentEvent = `{
  "id": "evt_123",
  "object": "event",
  "type": "payment_intent.succeeded",
  "created": 1700000000,
  "livemode": false,
  "data": {"object": {
    "id": "pi_123", "object": "payment_intent", "amount": 150000, "currency": "eur",
    "status": "succeeded", "latest_charge": "ch_9",
    "metadata": {"user_id": "u-1", "project_id": "p-1", "payment_type": "deposit"}
  }}
}`

func TestVerify_ValidSignature(t *testing.T) {
	payload := []byte(intentEvent)

	evt, err := verify(payload, sign(payload, testSecret, time.Now()), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", evt.ID)
	assert.Equal(t, "payment_intent.succeeded", evt.Type)
	assert.Equal(t, int64(1700000000), evt.Created.Unix())

	intent, err := DecodeIntent(evt.Object)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, int64(150000), intent.Amount)
	assert.Equal(t, "ch_9", intent.ChargeID)
	assert.Equal(t, "deposit", intent.Metadata[MetaPaymentType])
}

func TestVerify_Rejects(t *testing.T) {
	payload := []byte(intentEvent)

	_, err := verify(payload, "", testSecret)
	assert.ErrorIs(t, err, ErrMissingSignature)

	_, err = verify(payload, sign(payload, "whsec_other", time.Now()), testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = verify(payload, sign(payload, testSecret, time.Now().Add(-time.Hour)), testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature, "stale timestamps are outside the tolerance")

	tampered := []byte(intentEvent[:len(intentEvent)-2] + ` }`)
	_, err = verify(tampered, sign(payload, testSecret, time.Now()), testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = verify(payload, "garbage", testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeCheckoutSession(t *testing.T) {
	s, err := DecodeCheckoutSession([]byte(`{
		"id": "cs_1", "object": "checkout.session", "payment_intent": "pi_7", "customer": "cus_2",
		"amount_total": 4200, "currency": "eur", "status": "complete", "payment_status": "paid",
		"customer_details": {"email": "jo@x.com"}, "metadata": {"user_id": "u-2"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "cs_1", s.ID)
	assert.Equal(t, "pi_7", s.PaymentIntentID)
	assert.Equal(t, "cus_2", s.CustomerID)
	assert.Equal(t, "jo@x.com", s.CustomerEmail)
	assert.Equal(t, "paid", s.PaymentStatus)
	assert.Equal(t, int64(4200), s.AmountTotal)
}

func TestDecodeInvoiceAndCharge(t *testing.T) {
	inv, err := DecodeInvoice([]byte(`{
		"id": "in_1", "object": "invoice", "customer": "cus_1", "payment_intent": "pi_2", "charge": "ch_3",
		"status": "paid", "amount_due": 9900, "amount_paid": 9900, "currency": "eur"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "in_1", inv.ID)
	assert.Equal(t, "pi_2", inv.PaymentIntentID)
	assert.Equal(t, "ch_3", inv.ChargeID)
	assert.Equal(t, int64(9900), inv.AmountPaid)

	ch, err := DecodeCharge([]byte(`{
		"id": "ch_3", "object": "charge", "payment_intent": "pi_2", "amount": 9900,
		"amount_refunded": 2500, "refunded": false, "currency": "eur"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "pi_2", ch.PaymentIntentID)
	assert.Equal(t, int64(2500), ch.AmountRefunded)
	assert.False(t, ch.Refunded)

	_, err = DecodeCharge([]byte(`{"object":"charge"}`))
	assert.Error(t, err)
	_, err = DecodeIntent([]byte(`not json`))
	assert.Error(t, err)
}

func TestWithSource(t *testing.T) {
	meta := withSource(map[string]string{MetaUserID: "u-1", MetaProjectID: ""})
	assert.Equal(t, "u-1", meta[MetaUserID])
	assert.Equal(t, SourceAPI, meta[MetaSource])
	_, ok := meta[MetaProjectID]
	assert.False(t, ok, "empty values are dropped")
}

func TestNew_Disabled(t *testing.T) {
	p := New(config.PaymentConfig{}, zerolog.Nop())
	assert.False(t, p.Enabled())

	_, err := p.CreatePaymentIntent(context.Background(), IntentParams{Amount: 100})
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = p.VerifyWebhook([]byte(intentEvent), "t=1,v1=00")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNew_Enabled(t *testing.T) {
	p := New(config.PaymentConfig{SecretKey: "sk_test_x", WebhookSecret: testSecret, Currency: "EUR"}, zerolog.Nop())
	require.True(t, p.Enabled())

	payload := []byte(intentEvent)
	evt, err := p.VerifyWebhook(payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_123", evt.ID)

	sp := p.(*stripeProcessor)
	assert.Equal(t, "eur", sp.currencyOr(""))
	assert.Equal(t, "usd", sp.currencyOr("USD"))
}
