package models

import (
	"time"
)

// Offer is a service package the agency sells
type Offer struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Slug            string    `json:"slug" db:"slug"`
	Description     string    `json:"description,omitempty" db:"description"`
	Features        []string  `json:"features" db:"features"`
	PriceStartingAt *int64    `json:"price_starting_at,omitempty" db:"price_starting_at"` // minor units
	Currency        string    `json:"currency" db:"currency"`
	DurationWeeks   *int      `json:"duration_weeks,omitempty" db:"duration_weeks"`
	Category        string    `json:"category,omitempty" db:"category"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	DisplayOrder    int       `json:"display_order" db:"display_order"`
	IconName        string    `json:"icon_name,omitempty" db:"icon_name"`
	ColorTheme      string    `json:"color_theme,omitempty" db:"color_theme"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// OfferFilter narrows offer listings
type OfferFilter struct {
	Category   string
	ActiveOnly bool
	Page
}

// OfferInput is the create/update payload for offers
type OfferInput struct {
	Name            string   `json:"name" binding:"required,max=255"`
	Slug            string   `json:"slug" binding:"omitempty,slug,max=255"`
	Description     string   `json:"description"`
	Features        []string `json:"features"`
	PriceStartingAt *int64   `json:"price_starting_at" binding:"omitempty,min=0"`
	Currency        string   `json:"currency" binding:"omitempty,len=3"`
	DurationWeeks   *int     `json:"duration_weeks" binding:"omitempty,min=0"`
	Category        string   `json:"category" binding:"omitempty,max=100"`
	IsActive        *bool    `json:"is_active"`
	DisplayOrder    int      `json:"display_order"`
	IconName        string   `json:"icon_name" binding:"omitempty,max=100"`
	ColorTheme      string   `json:"color_theme" binding:"omitempty,max=50"`
}

// OfferStats summarises offers for the admin dashboard
type OfferStats struct {
	Total      int          `json:"total"`
	Active     int          `json:"active"`
	Inactive   int          `json:"inactive"`
	ByCategory []NamedCount `json:"by_category"`
}
