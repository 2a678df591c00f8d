package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agency-cms-api/internal/config"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const defaultDaysUntilDue = 30

type stripeProcessor struct {
	api           *client.API
	webhookSecret string
	currency      string
	log           zerolog.Logger
}

// New creates the processor. Without a secret key every call returns ErrDisabled.
func New(cfg config.PaymentConfig, log zerolog.Logger) Processor {
	if !cfg.Enabled() {
		log.Warn().Msg("Payment secret key not set, payments disabled")
		return disabledProcessor{}
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &stripeProcessor{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		currency:      strings.ToLower(cfg.Currency),
		log:           log.With().Str("component", "payment").Logger(),
	}
}

func (p *stripeProcessor) Enabled() bool { return true }

func (p *stripeProcessor) currencyOr(c string) string {
	if c == "" {
		return p.currency
	}
	return strings.ToLower(c)
}

func withSource(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		if v != "" {
			out[k] = v
		}
	}
	out[MetaSource] = SourceAPI
	return out
}

func (p *stripeProcessor) CreatePaymentIntent(ctx context.Context, in IntentParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.Amount),
		Currency: stripe.String(p.currencyOr(in.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: withSource(in.Metadata),
	}
	params.Context = ctx
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	}
	if in.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(in.ReceiptEmail)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("payment_intent_id", pi.ID).Int64("amount", pi.Amount).Msg("Payment intent created")
	return intentFrom(pi), nil
}

func (p *stripeProcessor) GetPaymentIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, err
	}
	return intentFrom(pi), nil
}

func (p *stripeProcessor) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (*CheckoutSession, error) {
	currency := p.currencyOr(in.Currency)
	meta := withSource(in.Metadata)

	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(in.Lines))
	for _, l := range in.Lines {
		qty := l.Quantity
		if qty <= 0 {
			qty = 1
		}
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(l.Name)}
		if l.Description != "" {
			product.Description = stripe.String(l.Description)
		}
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(l.Amount),
				ProductData: product,
			},
			Quantity: stripe.Int64(qty),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lines,
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		Metadata:   meta,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: meta,
		},
	}
	params.Context = ctx
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("checkout_session_id", s.ID).Msg("Checkout session created")
	return checkoutFrom(s), nil
}

func (p *stripeProcessor) CreateCustomer(ctx context.Context, in CustomerParams) (*Customer, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(in.Email),
		Metadata: withSource(in.Metadata),
	}
	params.Context = ctx
	if in.Name != "" {
		params.Name = stripe.String(in.Name)
	}
	if in.Phone != "" {
		params.Phone = stripe.String(in.Phone)
	}

	c, err := p.api.Customers.New(params)
	if err != nil {
		return nil, err
	}
	return &Customer{ID: c.ID, Email: c.Email, Name: c.Name}, nil
}

// CreateInvoice creates a draft invoice, attaches one item and finalizes it
func (p *stripeProcessor) CreateInvoice(ctx context.Context, in InvoiceParams) (*Invoice, error) {
	currency := p.currencyOr(in.Currency)
	days := in.DaysUntilDue
	if days <= 0 {
		days = defaultDaysUntilDue
	}
	meta := withSource(in.Metadata)

	params := &stripe.InvoiceParams{
		Customer:         stripe.String(in.CustomerID),
		CollectionMethod: stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		DaysUntilDue:     stripe.Int64(days),
		Currency:         stripe.String(currency),
		Description:      stripe.String(in.Description),
		Metadata:         meta,
	}
	params.Context = ctx
	inv, err := p.api.Invoices.New(params)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	itemParams := &stripe.InvoiceItemParams{
		Customer:    stripe.String(in.CustomerID),
		Invoice:     stripe.String(inv.ID),
		Amount:      stripe.Int64(in.Amount),
		Currency:    stripe.String(currency),
		Description: stripe.String(in.Description),
	}
	itemParams.Context = ctx
	if _, err := p.api.InvoiceItems.New(itemParams); err != nil {
		return nil, fmt.Errorf("add invoice item: %w", err)
	}

	finalizeParams := &stripe.InvoiceFinalizeInvoiceParams{}
	finalizeParams.Context = ctx
	inv, err = p.api.Invoices.FinalizeInvoice(inv.ID, finalizeParams)
	if err != nil {
		return nil, fmt.Errorf("finalize invoice: %w", err)
	}

	p.log.Info().Str("invoice_id", inv.ID).Int64("amount_due", inv.AmountDue).Msg("Invoice finalized")
	return invoiceFrom(inv), nil
}

func (p *stripeProcessor) Refund(ctx context.Context, in RefundParams) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(in.PaymentIntentID),
		Metadata:      withSource(in.Metadata),
	}
	params.Context = ctx
	if in.Amount > 0 {
		params.Amount = stripe.Int64(in.Amount)
	}
	if in.Reason != "" {
		params.Reason = stripe.String(in.Reason)
	}

	r, err := p.api.Refunds.New(params)
	if err != nil {
		return nil, err
	}
	out := &Refund{ID: r.ID, Status: string(r.Status), Amount: r.Amount}
	if r.Charge != nil {
		out.ChargeID = r.Charge.ID
	}
	if r.PaymentIntent != nil {
		out.PaymentIntentID = r.PaymentIntent.ID
	}
	return out, nil
}

func (p *stripeProcessor) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	return verify(payload, signature, p.webhookSecret)
}

func verify(payload []byte, signature, secret string) (*Event, error) {
	if signature == "" {
		return nil, ErrMissingSignature
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if evt.ID == "" || evt.Data == nil {
		return nil, fmt.Errorf("%w: malformed event", ErrInvalidSignature)
	}
	return &Event{
		ID:       evt.ID,
		Type:     string(evt.Type),
		Object:   evt.Data.Raw,
		Created:  time.Unix(evt.Created, 0).UTC(),
		Livemode: evt.Livemode,
	}, nil
}

// IsProcessorError reports whether err came back from the processor API,
// returning the processor's message when it did
func IsProcessorError(err error) (string, bool) {
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.Msg, true
	}
	return "", false
}

type disabledProcessor struct{}

func (disabledProcessor) Enabled() bool { return false }

func (disabledProcessor) CreatePaymentIntent(context.Context, IntentParams) (*Intent, error) {
	return nil, ErrDisabled
}

func (disabledProcessor) GetPaymentIntent(context.Context, string) (*Intent, error) {
	return nil, ErrDisabled
}

func (disabledProcessor) CreateCheckoutSession(context.Context, CheckoutParams) (*CheckoutSession, error) {
	return nil, ErrDisabled
}

func (disabledProcessor) CreateCustomer(context.Context, CustomerParams) (*Customer, error) {
	return nil, ErrDisabled
}

func (disabledProcessor) CreateInvoice(context.Context, InvoiceParams) (*Invoice, error) {
	return nil, ErrDisabled
}

func (disabledProcessor) Refund(context.Context, RefundParams) (*Refund, error) {
	return nil, ErrDisabled
}

func (disabledProcessor) VerifyWebhook([]byte, string) (*Event, error) {
	return nil, ErrDisabled
}
