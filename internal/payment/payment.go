// Package payment wraps the payment processor API and webhook verification.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrDisabled         = errors.New("payments are not configured")
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Metadata keys written on every processor object we create
const (
	MetaUserID      = "user_id"
	MetaProjectID   = "project_id"
	MetaPaymentType = "payment_type"
	// MetaPaymentID carries the id of the payment_logs row created before the processor object
	MetaPaymentID = "payment_id"
	MetaSource    = "source"
)

// SourceAPI marks objects created by this service
const SourceAPI = "agency-cms-api"

// IntentParams describes a new payment intent
type IntentParams struct {
	Amount       int64 // minor units
	Currency     string
	Description  string
	CustomerID   string
	ReceiptEmail string
	Metadata     map[string]string
}

// Intent is the subset of a payment intent the service uses
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	CustomerID   string            `json:"customer_id,omitempty"`
	ChargeID     string            `json:"charge_id,omitempty"`
	InvoiceID    string            `json:"invoice_id,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Created      time.Time         `json:"created"`
}

// CheckoutLine is one priced line of a hosted checkout
type CheckoutLine struct {
	Name        string
	Description string
	Amount      int64 // unit amount, minor units
	Quantity    int64
}

// CheckoutParams describes a hosted checkout session
type CheckoutParams struct {
	Lines         []CheckoutLine
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutSession is the subset of a checkout session the service uses
type CheckoutSession struct {
	ID              string            `json:"id"`
	URL             string            `json:"url,omitempty"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
	CustomerID      string            `json:"customer_id,omitempty"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// CustomerParams describes a new processor customer
type CustomerParams struct {
	Email    string
	Name     string
	Phone    string
	Metadata map[string]string
}

// Customer is a processor customer
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// InvoiceParams describes a single-line invoice sent to a customer
type InvoiceParams struct {
	CustomerID   string
	Amount       int64
	Currency     string
	Description  string
	DaysUntilDue int64
	Metadata     map[string]string
}

// Invoice is the subset of an invoice the service uses
type Invoice struct {
	ID              string            `json:"id"`
	CustomerID      string            `json:"customer_id,omitempty"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
	ChargeID        string            `json:"charge_id,omitempty"`
	Status          string            `json:"status"`
	HostedURL       string            `json:"hosted_invoice_url,omitempty"`
	PDFURL          string            `json:"invoice_pdf,omitempty"`
	AmountDue       int64             `json:"amount_due"`
	AmountPaid      int64             `json:"amount_paid"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// RefundParams describes a refund. A zero Amount refunds the full payment.
type RefundParams struct {
	PaymentIntentID string
	Amount          int64
	Reason          string
	Metadata        map[string]string
}

// Refund is a created refund
type Refund struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	ChargeID        string `json:"charge_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

// Charge is the subset of a charge the service uses
type Charge struct {
	ID              string            `json:"id"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
	Amount          int64             `json:"amount"`
	AmountRefunded  int64             `json:"amount_refunded"`
	Refunded        bool              `json:"refunded"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Event is a verified webhook event. Object holds the raw JSON of the event's data object.
type Event struct {
	ID       string
	Type     string
	Object   json.RawMessage
	Created  time.Time
	Livemode bool
}

// Processor is the payment processor façade
type Processor interface {
	Enabled() bool
	CreatePaymentIntent(ctx context.Context, p IntentParams) (*Intent, error)
	GetPaymentIntent(ctx context.Context, id string) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	CreateCustomer(ctx context.Context, p CustomerParams) (*Customer, error)
	CreateInvoice(ctx context.Context, p InvoiceParams) (*Invoice, error)
	Refund(ctx context.Context, p RefundParams) (*Refund, error)
	// VerifyWebhook checks the signature header against the payload and decodes the event
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
