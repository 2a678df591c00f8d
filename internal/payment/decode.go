package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
)

// DecodeIntent decodes a payment intent event object
func DecodeIntent(raw json.RawMessage) (*Intent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	if pi.ID == "" {
		return nil, fmt.Errorf("decode payment intent: missing id")
	}
	return intentFrom(&pi), nil
}

// DecodeCheckoutSession decodes a checkout session event object
func DecodeCheckoutSession(raw json.RawMessage) (*CheckoutSession, error) {
	var s stripe.CheckoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("decode checkout session: missing id")
	}
	return checkoutFrom(&s), nil
}

// DecodeInvoice decodes an invoice event object
func DecodeInvoice(raw json.RawMessage) (*Invoice, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	if inv.ID == "" {
		return nil, fmt.Errorf("decode invoice: missing id")
	}
	return invoiceFrom(&inv), nil
}

// DecodeCharge decodes a charge event object
func DecodeCharge(raw json.RawMessage) (*Charge, error) {
	var ch stripe.Charge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, fmt.Errorf("decode charge: %w", err)
	}
	if ch.ID == "" {
		return nil, fmt.Errorf("decode charge: missing id")
	}
	out := &Charge{
		ID:             ch.ID,
		Amount:         ch.Amount,
		AmountRefunded: ch.AmountRefunded,
		Refunded:       ch.Refunded,
		Currency:       string(ch.Currency),
		Metadata:       ch.Metadata,
	}
	if ch.PaymentIntent != nil {
		out.PaymentIntentID = ch.PaymentIntent.ID
	}
	return out, nil
}

func intentFrom(pi *stripe.PaymentIntent) *Intent {
	out := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	if pi.Created > 0 {
		out.Created = time.Unix(pi.Created, 0).UTC()
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	if pi.LatestCharge != nil {
		out.ChargeID = pi.LatestCharge.ID
	}
	if pi.Invoice != nil {
		out.InvoiceID = pi.Invoice.ID
	}
	if pi.LastPaymentError != nil {
		out.ErrorMessage = pi.LastPaymentError.Msg
	}
	return out
}

func checkoutFrom(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
		CustomerEmail: s.CustomerEmail,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out
}

func invoiceFrom(inv *stripe.Invoice) *Invoice {
	out := &Invoice{
		ID:         inv.ID,
		Status:     string(inv.Status),
		HostedURL:  inv.HostedInvoiceURL,
		PDFURL:     inv.InvoicePDF,
		AmountDue:  inv.AmountDue,
		AmountPaid: inv.AmountPaid,
		Currency:   string(inv.Currency),
		Metadata:   inv.Metadata,
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if inv.PaymentIntent != nil {
		out.PaymentIntentID = inv.PaymentIntent.ID
	}
	if inv.Charge != nil {
		out.ChargeID = inv.Charge.ID
	}
	return out
}
