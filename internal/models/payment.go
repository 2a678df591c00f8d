package models

import (
	"encoding/json"
	"time"
)

// PaymentStatus mirrors the processor-side lifecycle of a payment
type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "pending"
	PaymentRequiresAction PaymentStatus = "requires_action"
	PaymentSucceeded      PaymentStatus = "succeeded"
	PaymentFailed         PaymentStatus = "failed"
	PaymentCanceled       PaymentStatus = "canceled"
	PaymentRefunded       PaymentStatus = "refunded"
)

// Payment types
const (
	PaymentTypeDeposit  = "deposit"
	PaymentTypeFinal    = "final"
	PaymentTypeCustom   = "custom"
	PaymentTypeCheckout = "checkout"
	PaymentTypeInvoice  = "invoice"
)

// ValidPaymentTypes defines the payment types a client may request
var ValidPaymentTypes = map[string]bool{
	PaymentTypeDeposit: true,
	PaymentTypeFinal:   true,
	PaymentTypeCustom:  true,
}

// PaymentLog is the local mirror of one processor payment, keyed by its
// payment intent, checkout session or invoice id
type PaymentLog struct {
	ID                string        `json:"id" db:"id"`
	UserID            string        `json:"user_id,omitempty" db:"user_id"`
	ProjectID         string        `json:"project_id,omitempty" db:"project_id"`
	PaymentIntentID   string        `json:"payment_intent_id,omitempty" db:"payment_intent_id"`
	CheckoutSessionID string        `json:"checkout_session_id,omitempty" db:"checkout_session_id"`
	InvoiceID         string        `json:"invoice_id,omitempty" db:"invoice_id"`
	ChargeID          string        `json:"stripe_charge_id,omitempty" db:"stripe_charge_id"`
	CustomerID        string        `json:"customer_id,omitempty" db:"customer_id"`
	Amount            int64         `json:"amount" db:"amount"` // minor units
	Currency          string        `json:"currency" db:"currency"`
	PaymentType       string        `json:"payment_type" db:"payment_type"`
	Status            PaymentStatus `json:"status" db:"status"`
	Description       string        `json:"description,omitempty" db:"description"`
	ErrorMessage      string        `json:"error_message,omitempty" db:"error_message"`
	RefundID          string        `json:"refund_id,omitempty" db:"refund_id"`
	RefundAmount      *int64        `json:"refund_amount,omitempty" db:"refund_amount"`
	RefundedBy        string        `json:"refunded_by,omitempty" db:"refunded_by"`
	PaidAt            *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	FailedAt          *time.Time    `json:"failed_at,omitempty" db:"failed_at"`
	CanceledAt        *time.Time    `json:"canceled_at,omitempty" db:"canceled_at"`
	RefundedAt        *time.Time    `json:"refunded_at,omitempty" db:"refunded_at"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
	ProjectTitle      string        `json:"project_title,omitempty" db:"-"`
	UserEmail         string        `json:"user_email,omitempty" db:"-"`
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	UserID      string
	Status      string
	PaymentType string
	ProjectID   string
	Page
}

// PaymentStats summarises payments for the admin dashboard
type PaymentStats struct {
	Total         int   `json:"total"`
	Succeeded     int   `json:"succeeded"`
	Failed        int   `json:"failed"`
	Pending       int   `json:"pending"`
	Refunded      int   `json:"refunded"`
	TotalRevenue  int64 `json:"total_revenue"`
	TotalRefunded int64 `json:"total_refunded"`
}

// PaymentIntentRequest asks for a new payment intent
type PaymentIntentRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"omitempty,len=3"`
	ProjectID   string  `json:"project_id" binding:"omitempty,uuid"`
	PaymentType string  `json:"payment_type" binding:"omitempty,oneof=deposit final custom"`
	Description string  `json:"description" binding:"omitempty,max=500"`
}

// CheckoutItem is one line of a hosted checkout
type CheckoutItem struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description string  `json:"description" binding:"omitempty,max=500"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Quantity    int64   `json:"quantity" binding:"omitempty,min=1"`
}

// CheckoutRequest asks for a hosted checkout session
type CheckoutRequest struct {
	Items      []CheckoutItem `json:"items" binding:"required,min=1,dive"`
	Currency   string         `json:"currency" binding:"omitempty,len=3"`
	ProjectID  string         `json:"project_id" binding:"omitempty,uuid"`
	SuccessURL string         `json:"success_url" binding:"omitempty,url"`
	CancelURL  string         `json:"cancel_url" binding:"omitempty,url"`
}

// CustomerRequest creates a processor customer for a user
type CustomerRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// InvoiceRequest creates and finalizes an invoice for a customer
type InvoiceRequest struct {
	CustomerID   string  `json:"customer_id" binding:"required"`
	UserID       string  `json:"user_id" binding:"omitempty,uuid"`
	ProjectID    string  `json:"project_id" binding:"omitempty,uuid"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	Currency     string  `json:"currency" binding:"omitempty,len=3"`
	Description  string  `json:"description" binding:"required,max=500"`
	DaysUntilDue int64   `json:"days_until_due" binding:"omitempty,min=1,max=365"`
}

// RefundRequest refunds all or part of a payment
type RefundRequest struct {
	Amount *float64 `json:"amount" binding:"omitempty,gt=0"`
	Reason string   `json:"reason" binding:"omitempty,oneof=duplicate fraudulent requested_by_customer"`
}

// Project is a client engagement whose deposit and final payments are tracked
type Project struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	AssignedTo  string    `json:"assigned_to,omitempty" db:"assigned_to"`
	Title       string    `json:"title" db:"title"`
	Status      string    `json:"status" db:"status"`
	DepositPaid bool      `json:"deposit_paid" db:"deposit_paid"`
	FinalPaid   bool      `json:"final_paid" db:"final_paid"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// StripeEvent is the audit record of one received webhook event
type StripeEvent struct {
	EventID     string          `json:"event_id" db:"event_id"`
	EventType   string          `json:"event_type" db:"event_type"`
	Data        json.RawMessage `json:"data" db:"data"`
	Error       string          `json:"error,omitempty" db:"error"`
	Attempts    int             `json:"attempts" db:"attempts"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// ToMinorUnits converts a major-unit amount (euros) to minor units (cents)
func ToMinorUnits(amount float64) int64 {
	if amount < 0 {
		return -int64(-amount*100 + 0.5)
	}
	return int64(amount*100 + 0.5)
}

// PaymentUpdate is a status transition reported by the processor. Empty
// fields leave the stored value untouched.
type PaymentUpdate struct {
	// PaymentID is our own row id when the processor object carries it in metadata
	PaymentID         string
	PaymentIntentID   string
	CheckoutSessionID string
	InvoiceID         string
	ChargeID          string
	CustomerID        string
	UserID            string
	ProjectID         string
	Amount            int64
	Currency          string
	PaymentType       string
	Status            PaymentStatus
	ErrorMessage      string
	OccurredAt        time.Time
}
