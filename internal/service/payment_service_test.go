package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/payment"
	"github.com/agency-cms-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	*mocks.Fixture
	svc     *service.Services
	client  service.Actor
	admin   service.Actor
	project *models.Project
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := mocks.NewFixture()
	client := f.Users.Add(&models.User{Email: "client@example.com", Firstname: "Camille", Role: models.RoleMember, IsActive: true})
	admin := f.Users.Add(&models.User{Email: "admin@agency.test", Firstname: "Alex", Role: models.RoleAdmin, IsActive: true})
	project := &models.Project{ID: "9b2d6c1a-0000-4000-8000-000000000002", UserID: client.ID, Title: "Refonte"}
	f.Payments.Projects[project.ID] = project

	return &paymentFixture{
		Fixture: f,
		svc:     f.Services(),
		client:  service.Actor{UserID: client.ID, Email: client.Email, Role: client.Role},
		admin:   service.Actor{UserID: admin.ID, Email: admin.Email, Role: admin.Role},
		project: project,
	}
}

func (p *paymentFixture) succeeded(t *testing.T, amount int64) *models.PaymentLog {
	t.Helper()
	entry := &models.PaymentLog{
		UserID:          p.client.UserID,
		PaymentIntentID: "pi_paid",
		Amount:          amount,
		Currency:        "eur",
		PaymentType:     models.PaymentTypeCustom,
		Status:          models.PaymentSucceeded,
	}
	require.NoError(t, p.Payments.Create(context.Background(), entry))
	return entry
}

func TestPayment_CreateIntent(t *testing.T) {
	p := newPaymentFixture(t)

	intent, entry, err := p.svc.Payment.CreateIntent(context.Background(), p.client, &models.PaymentIntentRequest{
		Amount:      1500.5,
		ProjectID:   p.project.ID,
		PaymentType: models.PaymentTypeDeposit,
	})
	require.NoError(t, err)
	require.NotNil(t, intent)
	require.NotNil(t, entry)

	assert.True(t, strings.HasPrefix(intent.ID, "pi_"))
	assert.Equal(t, int64(150050), entry.Amount)
	assert.Equal(t, models.PaymentPending, entry.Status)
	assert.Equal(t, intent.ID, entry.PaymentIntentID)
	assert.Equal(t, "Paiement deposit - Refonte", entry.Description)

	require.Len(t, p.Processor.Intents, 1)
	sent := p.Processor.Intents[0]
	assert.Equal(t, "eur", sent.Currency)
	assert.Equal(t, "client@example.com", sent.ReceiptEmail)
	assert.Equal(t, p.client.UserID, sent.Metadata[payment.MetaUserID])
	assert.Equal(t, p.project.ID, sent.Metadata[payment.MetaProjectID])
	assert.Equal(t, models.PaymentTypeDeposit, sent.Metadata[payment.MetaPaymentType])
}

func TestPayment_CreateIntentProjectChecks(t *testing.T) {
	p := newPaymentFixture(t)
	stranger := service.Actor{UserID: "someone-else", Email: "x@example.com", Role: models.RoleMember}

	_, _, err := p.svc.Payment.CreateIntent(context.Background(), stranger, &models.PaymentIntentRequest{Amount: 10, ProjectID: p.project.ID})
	assert.True(t, errors.Is(err, service.ErrForbidden))

	_, _, err = p.svc.Payment.CreateIntent(context.Background(), p.client, &models.PaymentIntentRequest{Amount: 10, ProjectID: "00000000-0000-4000-8000-000000000000"})
	assert.True(t, errors.Is(err, service.ErrNotFound))

	_, _, err = p.svc.Payment.CreateIntent(context.Background(), p.admin, &models.PaymentIntentRequest{Amount: 10, ProjectID: p.project.ID})
	assert.NoError(t, err)
	assert.Len(t, p.Processor.Intents, 1)
}

func TestPayment_CreateIntentRecordLostStillReturnsIntent(t *testing.T) {
	p := newPaymentFixture(t)
	p.Payments.CreateError = errors.New("insert failed")

	intent, entry, err := p.svc.Payment.CreateIntent(context.Background(), p.client, &models.PaymentIntentRequest{Amount: 25})
	require.NoError(t, err)
	assert.NotNil(t, intent)
	assert.Nil(t, entry)
}

func TestPayment_CreateCheckout(t *testing.T) {
	p := newPaymentFixture(t)

	session, err := p.svc.Payment.CreateCheckout(context.Background(), p.client, &models.CheckoutRequest{
		Items: []models.CheckoutItem{
			{Name: "Logo", Amount: 300},
			{Name: "Pages", Amount: 150, Quantity: 4},
		},
	})
	require.NoError(t, err)

	require.Len(t, p.Processor.Checkouts, 1)
	params := p.Processor.Checkouts[0]
	assert.Equal(t, "http://localhost:3000/payment/success?session_id={CHECKOUT_SESSION_ID}", params.SuccessURL)
	assert.Equal(t, "http://localhost:3000/payment/cancel", params.CancelURL)
	assert.Equal(t, int64(1), params.Lines[0].Quantity)
	assert.Equal(t, "client@example.com", params.CustomerEmail)

	row := p.Payments.Find(func(pl *models.PaymentLog) bool { return pl.CheckoutSessionID == session.ID })
	require.NotNil(t, row)
	assert.Equal(t, int64(90000), row.Amount)
	assert.Equal(t, models.PaymentTypeCheckout, row.PaymentType)
	assert.Equal(t, models.PaymentPending, row.Status)
	assert.Equal(t, row.ID, params.Metadata[payment.MetaPaymentID], "intent events find the row through metadata")
}

func TestPayment_Refund(t *testing.T) {
	p := newPaymentFixture(t)
	entry := p.succeeded(t, 5000)
	amount := 20.0

	refund, err := p.svc.Payment.Refund(context.Background(), p.admin, entry.ID, &models.RefundRequest{Amount: &amount, Reason: "requested_by_customer"})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), refund.Amount)

	require.Len(t, p.Processor.Refunds, 1)
	assert.Equal(t, "pi_paid", p.Processor.Refunds[0].PaymentIntentID)

	row := p.Payments.Payments[entry.ID]
	assert.Equal(t, models.PaymentRefunded, row.Status)
	assert.Equal(t, refund.ID, row.RefundID)
	assert.Equal(t, p.admin.UserID, row.RefundedBy)
	assert.Contains(t, p.Admin.Actions(), "refund payment")
}

func TestPayment_RefundRejected(t *testing.T) {
	p := newPaymentFixture(t)
	entry := p.succeeded(t, 5000)
	tooMuch := 80.0

	_, err := p.svc.Payment.Refund(context.Background(), p.admin, entry.ID, &models.RefundRequest{Amount: &tooMuch})
	assert.True(t, errors.Is(err, service.ErrBadRequest))

	pending := &models.PaymentLog{UserID: p.client.UserID, PaymentIntentID: "pi_open", Amount: 100, Status: models.PaymentPending}
	require.NoError(t, p.Payments.Create(context.Background(), pending))
	_, err = p.svc.Payment.Refund(context.Background(), p.admin, pending.ID, &models.RefundRequest{})
	assert.True(t, errors.Is(err, service.ErrBadRequest))

	_, err = p.svc.Payment.Refund(context.Background(), p.admin, "missing", &models.RefundRequest{})
	assert.True(t, errors.Is(err, service.ErrNotFound))

	assert.Empty(t, p.Processor.Refunds)
}

func TestPayment_GetMine(t *testing.T) {
	p := newPaymentFixture(t)
	entry := p.succeeded(t, 5000)
	other := service.Actor{UserID: "other", Role: models.RoleMember}

	got, err := p.svc.Payment.GetMine(context.Background(), p.client, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	_, err = p.svc.Payment.GetMine(context.Background(), other, entry.ID)
	assert.True(t, errors.Is(err, service.ErrNotFound))

	_, err = p.svc.Payment.GetMine(context.Background(), p.admin, entry.ID)
	assert.NoError(t, err)

	list, total, err := p.svc.Payment.ListMine(context.Background(), other, models.PaymentFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestPayment_Disabled(t *testing.T) {
	p := newPaymentFixture(t)
	p.Processor.Disabled = true

	_, _, err := p.svc.Payment.CreateIntent(context.Background(), p.client, &models.PaymentIntentRequest{Amount: 10})
	assert.True(t, errors.Is(err, service.ErrPaymentsDisabled))

	_, err = p.svc.Payment.CreateCheckout(context.Background(), p.client, &models.CheckoutRequest{Items: []models.CheckoutItem{{Name: "x", Amount: 1}}})
	assert.True(t, errors.Is(err, service.ErrPaymentsDisabled))
}
