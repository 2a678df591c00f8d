package models

import (
	"encoding/json"
	"time"
)

// EmailStatus tracks a queued email through delivery
type EmailStatus string

const (
	EmailPending EmailStatus = "pending"
	EmailSending EmailStatus = "sending"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
)

// Email template names
const (
	EmailWelcome           = "welcome"
	EmailPasswordReset     = "password_reset"
	EmailContactReceived   = "contact_received"
	EmailContactReply      = "contact_reply"
	EmailNewsletterWelcome = "newsletter_welcome"
	EmailPaymentSuccess    = "payment_success"
	EmailPaymentFailed     = "payment_failed"
)

// Email is a queued outbound message. Payload feeds the named template at send time.
type Email struct {
	ID             string          `json:"id" db:"id"`
	RecipientEmail string          `json:"recipient_email" db:"recipient_email"`
	RecipientName  string          `json:"recipient_name,omitempty" db:"recipient_name"`
	Type           string          `json:"email_type" db:"email_type"`
	Subject        string          `json:"subject" db:"subject"`
	Payload        json.RawMessage `json:"payload" db:"payload"`
	Status         EmailStatus     `json:"status" db:"status"`
	Attempts       int             `json:"attempts" db:"attempts"`
	Error          string          `json:"error,omitempty" db:"error"`
	SentAt         *time.Time      `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}
