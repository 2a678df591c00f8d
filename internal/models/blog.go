package models

import (
	"time"
)

// BlogPost represents an agency blog entry
type BlogPost struct {
	ID               string     `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	Slug             string     `json:"slug" db:"slug"`
	Excerpt          string     `json:"excerpt,omitempty" db:"excerpt"`
	Content          string     `json:"content" db:"content"`
	FeaturedImageURL string     `json:"featured_image_url,omitempty" db:"featured_image_url"`
	AuthorID         string     `json:"author_id,omitempty" db:"author_id"`
	Category         string     `json:"category,omitempty" db:"category"`
	Tags             []string   `json:"tags" db:"tags"`
	Status           string     `json:"status" db:"status"`
	IsFeatured       bool       `json:"is_featured" db:"is_featured"`
	ViewsCount       int        `json:"views_count" db:"views_count"`
	PublishedAt      *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	AuthorName       string     `json:"author_name,omitempty" db:"-"`
}

// BlogFilter narrows blog listings
type BlogFilter struct {
	Category string
	Tag      string
	Featured *bool
	Status   string
	Page
}

// BlogPostInput is the create/update payload for blog posts
type BlogPostInput struct {
	Title            string   `json:"title" binding:"required,max=500"`
	Slug             string   `json:"slug" binding:"omitempty,slug,max=500"`
	Excerpt          string   `json:"excerpt"`
	Content          string   `json:"content" binding:"required"`
	FeaturedImageURL string   `json:"featured_image_url" binding:"omitempty,url"`
	Category         string   `json:"category" binding:"omitempty,max=100"`
	Tags             []string `json:"tags" binding:"omitempty,dive,max=50"`
	Status           string   `json:"status" binding:"omitempty,oneof=draft published archived"`
	IsFeatured       bool     `json:"is_featured"`
}

// NamedCount is a label with its number of occurrences
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// BlogStats summarises blog posts for the admin dashboard
type BlogStats struct {
	Total      int `json:"total"`
	Published  int `json:"published"`
	Drafts     int `json:"drafts"`
	Archived   int `json:"archived"`
	Featured   int `json:"featured"`
	TotalViews int `json:"total_views"`
}
