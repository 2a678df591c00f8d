package models

import (
	"time"
)

// Testimonial is client feedback shown on the public site once approved
type Testimonial struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id,omitempty" db:"user_id"`
	AuthorName      string    `json:"author_name" db:"author_name"`
	AuthorCompany   string    `json:"author_company,omitempty" db:"author_company"`
	AuthorPosition  string    `json:"author_position,omitempty" db:"author_position"`
	AuthorAvatarURL string    `json:"author_avatar_url,omitempty" db:"author_avatar_url"`
	Content         string    `json:"content" db:"content"`
	Rating          int       `json:"rating,omitempty" db:"rating"`
	IsApproved      bool      `json:"is_approved" db:"is_approved"`
	IsFeatured      bool      `json:"is_featured" db:"is_featured"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// TestimonialFilter narrows testimonial listings
type TestimonialFilter struct {
	Approved *bool
	Featured *bool
	Page
}

// TestimonialInput is the create payload for testimonials
type TestimonialInput struct {
	AuthorName      string `json:"author_name" binding:"omitempty,max=255"`
	AuthorCompany   string `json:"author_company" binding:"omitempty,max=255"`
	AuthorPosition  string `json:"author_position" binding:"omitempty,max=255"`
	AuthorAvatarURL string `json:"author_avatar_url" binding:"omitempty,url"`
	Content         string `json:"content" binding:"required,max=5000"`
	Rating          int    `json:"rating" binding:"omitempty,min=1,max=5"`
}

// TestimonialUpdate is the admin update payload. Nil means unchanged.
type TestimonialUpdate struct {
	AuthorName     *string `json:"author_name" binding:"omitempty,max=255"`
	AuthorCompany  *string `json:"author_company" binding:"omitempty,max=255"`
	AuthorPosition *string `json:"author_position" binding:"omitempty,max=255"`
	Content        *string `json:"content" binding:"omitempty,max=5000"`
	Rating         *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	IsApproved     *bool   `json:"is_approved"`
	IsFeatured     *bool   `json:"is_featured"`
}

// TestimonialStats summarises testimonials for the admin dashboard
type TestimonialStats struct {
	Total         int     `json:"total"`
	Approved      int     `json:"approved"`
	Pending       int     `json:"pending"`
	Featured      int     `json:"featured"`
	AverageRating float64 `json:"average_rating"`
}
