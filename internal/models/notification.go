package models

import (
	"encoding/json"
	"time"
)

// Notification is a user-facing message about something that happened to their account
type Notification struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Message     string    `json:"message" db:"message"`
	Type        string    `json:"type" db:"type"`
	RelatedType string    `json:"related_type,omitempty" db:"related_type"`
	RelatedID   string    `json:"related_id,omitempty" db:"related_id"`
	IsRead      bool      `json:"is_read" db:"is_read"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Alert severities
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// AdminAlert is an operational alert raised for administrators
type AdminAlert struct {
	ID         string     `json:"id" db:"id"`
	AlertType  string     `json:"alert_type" db:"alert_type"`
	Title      string     `json:"title" db:"title"`
	Message    string     `json:"message" db:"message"`
	Severity   string     `json:"severity" db:"severity"`
	RelatedID  string     `json:"related_id,omitempty" db:"related_id"`
	IsResolved bool       `json:"is_resolved" db:"is_resolved"`
	ResolvedBy string     `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// AlertRequest is the admin payload for raising an alert by hand
type AlertRequest struct {
	AlertType string `json:"alert_type" binding:"required,max=50"`
	Title     string `json:"title" binding:"required,max=255"`
	Message   string `json:"message" binding:"required"`
	Severity  string `json:"severity" binding:"omitempty,oneof=info warning error critical"`
}

// AlertFilter narrows alert listings
type AlertFilter struct {
	Resolved *bool
	Severity string
	Page
}

// ActivityLog is an audit record of an administrative change
type ActivityLog struct {
	ID           int64           `json:"id" db:"id"`
	AdminUserID  string          `json:"admin_user_id,omitempty" db:"admin_user_id"`
	AdminName    string          `json:"admin_name,omitempty" db:"-"`
	Action       string          `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// ActivityFilter narrows activity log listings
type ActivityFilter struct {
	AdminUserID  string
	Action       string
	ResourceType string
	Page
}

// ActivityStats summarises admin activity
type ActivityStats struct {
	Total      int          `json:"total"`
	LastDay    int          `json:"last_24h"`
	ByAction   []NamedCount `json:"by_action"`
	ByResource []NamedCount `json:"by_resource"`
}
