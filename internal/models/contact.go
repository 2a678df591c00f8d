package models

import (
	"time"
)

// Contact message statuses
const (
	ContactNew      = "new"
	ContactRead     = "read"
	ContactReplied  = "replied"
	ContactArchived = "archived"
)

// ContactMessage is an inbound message from the public contact form
type ContactMessage struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Email      string     `json:"email" db:"email"`
	Phone      string     `json:"phone,omitempty" db:"phone"`
	Subject    string     `json:"subject,omitempty" db:"subject"`
	Message    string     `json:"message" db:"message"`
	IPAddress  string     `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  string     `json:"user_agent,omitempty" db:"user_agent"`
	IsRead     bool       `json:"is_read" db:"is_read"`
	Status     string     `json:"status" db:"status"`
	Priority   string     `json:"priority" db:"priority"`
	AssignedTo string     `json:"assigned_to,omitempty" db:"assigned_to"`
	RepliedAt  *time.Time `json:"replied_at,omitempty" db:"replied_at"`
	RepliedBy  string     `json:"replied_by,omitempty" db:"replied_by"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// ContactReply is an admin answer in a contact conversation
type ContactReply struct {
	ID        string    `json:"id" db:"id"`
	MessageID string    `json:"message_id" db:"message_id"`
	AdminID   string    `json:"admin_id,omitempty" db:"admin_id"`
	AdminName string    `json:"admin_name,omitempty" db:"-"`
	ReplyText string    `json:"reply_text" db:"reply_text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ContactThread is a message with its replies
type ContactThread struct {
	Message *ContactMessage `json:"message"`
	Replies []ContactReply  `json:"replies"`
}

// ContactRequest is the public contact form payload
type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,max=50"`
	Subject string `json:"subject" binding:"omitempty,max=500"`
	Message string `json:"message" binding:"required,max=10000"`
}

// ContactReplyRequest is the admin reply payload
type ContactReplyRequest struct {
	ReplyText string `json:"reply_text" binding:"required"`
	SendEmail *bool  `json:"send_email"`
}

// ContactUpdate is the admin triage payload. Nil means unchanged.
type ContactUpdate struct {
	Status     *string `json:"status" binding:"omitempty,oneof=new read replied archived"`
	Priority   *string `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	AssignedTo *string `json:"assigned_to" binding:"omitempty,uuid"`
}

// ContactFilter narrows contact message listings
type ContactFilter struct {
	Status   string
	Priority string
	Search   string
	Page
}

// ContactStats summarises the contact inbox
type ContactStats struct {
	Total         int `json:"total"`
	New           int `json:"new"`
	Read          int `json:"read"`
	Replied       int `json:"replied"`
	Archived      int `json:"archived"`
	Urgent        int `json:"urgent"`
	LastSevenDays int `json:"last_7_days"`
}
