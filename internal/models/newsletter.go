package models

import (
	"time"
)

// Subscriber statuses
const (
	SubscriberActive       = "active"
	SubscriberUnsubscribed = "unsubscribed"
)

// Subscriber is a newsletter recipient
type Subscriber struct {
	ID                 string     `json:"id" db:"id"`
	Email              string     `json:"email" db:"email"`
	Firstname          string     `json:"firstname,omitempty" db:"firstname"`
	Lastname           string     `json:"lastname,omitempty" db:"lastname"`
	Status             string     `json:"status" db:"status"`
	SubscriptionSource string     `json:"subscription_source,omitempty" db:"subscription_source"`
	IPAddress          string     `json:"-" db:"ip_address"`
	UserAgent          string     `json:"-" db:"user_agent"`
	SubscribedAt       time.Time  `json:"subscribed_at" db:"subscribed_at"`
	UnsubscribedAt     *time.Time `json:"unsubscribed_at,omitempty" db:"unsubscribed_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// SubscribeRequest is the public subscription payload
type SubscribeRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Firstname string `json:"firstname" binding:"omitempty,max=100"`
	Lastname  string `json:"lastname" binding:"omitempty,max=100"`
	Source    string `json:"source" binding:"omitempty,max=100"`
}

// UnsubscribeRequest is the public unsubscription payload
type UnsubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SubscriberFilter narrows subscriber listings
type SubscriberFilter struct {
	Status string
	Search string
	Page
}

// NewsletterStats summarises the subscriber base
type NewsletterStats struct {
	Total          int          `json:"total"`
	Active         int          `json:"active"`
	Unsubscribed   int          `json:"unsubscribed"`
	LastThirtyDays int          `json:"last_30_days"`
	BySource       []NamedCount `json:"by_source"`
}
