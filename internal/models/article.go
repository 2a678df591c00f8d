package models

import (
	"time"
)

// Content statuses shared by articles and blog posts
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// ValidStatuses defines allowed publication statuses
var ValidStatuses = map[string]bool{
	StatusDraft:     true,
	StatusPublished: true,
	StatusArchived:  true,
}

// Article represents an editorial article filed under a rubrique
type Article struct {
	ID               string     `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	Slug             string     `json:"slug" db:"slug"`
	Excerpt          string     `json:"excerpt,omitempty" db:"excerpt"`
	Content          string     `json:"content" db:"content"`
	FeaturedImageURL string     `json:"featured_image_url,omitempty" db:"featured_image_url"`
	AuthorID         string     `json:"author_id" db:"author_id"`
	RubriqueID       string     `json:"rubrique_id,omitempty" db:"rubrique_id"`
	Status           string     `json:"status" db:"status"`
	IsFeatured       bool       `json:"is_featured" db:"is_featured"`
	ViewsCount       int        `json:"views_count" db:"views_count"`
	PublishedAt      *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`

	// Joined columns
	AuthorUsername string `json:"author_username,omitempty" db:"-"`
	AuthorName     string `json:"author_name,omitempty" db:"-"`
	AuthorAvatar   string `json:"author_avatar,omitempty" db:"-"`
	RubriqueName   string `json:"rubrique_name,omitempty" db:"-"`
	RubriqueSlug   string `json:"rubrique_slug,omitempty" db:"-"`
	CommentsCount  int    `json:"comments_count" db:"-"`
}

// ArticleSummary is the compact listing form of an article
type ArticleSummary struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	Excerpt          string     `json:"excerpt,omitempty"`
	FeaturedImageURL string     `json:"featured_image_url,omitempty"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	ViewsCount       int        `json:"views_count"`
}

// ArticleFilter narrows article listings
type ArticleFilter struct {
	RubriqueSlug   string
	AuthorUsername string
	AuthorID       string
	Featured       *bool
	Search         string
	Status         string // empty means any status
	Page
}

// ArticleInput is the create/update payload for articles
type ArticleInput struct {
	Title            string `json:"title" binding:"required,max=500"`
	Slug             string `json:"slug" binding:"omitempty,slug,max=500"`
	Excerpt          string `json:"excerpt"`
	Content          string `json:"content" binding:"required"`
	FeaturedImageURL string `json:"featured_image_url" binding:"omitempty,url"`
	RubriqueID       string `json:"rubrique_id" binding:"omitempty,uuid"`
	Status           string `json:"status" binding:"omitempty,oneof=draft published archived"`
	IsFeatured       bool   `json:"is_featured"`
}

// Rubrique is a topical section grouping articles
type Rubrique struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Slug          string    `json:"slug" db:"slug"`
	Description   string    `json:"description,omitempty" db:"description"`
	ImageURL      string    `json:"image_url,omitempty" db:"image_url"`
	ColorTheme    string    `json:"color_theme,omitempty" db:"color_theme"`
	DisplayOrder  int       `json:"display_order" db:"display_order"`
	ArticlesCount int       `json:"articles_count" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// RubriqueInput is the create/update payload for rubriques
type RubriqueInput struct {
	Name         string `json:"name" binding:"required,max=255"`
	Slug         string `json:"slug" binding:"omitempty,slug,max=255"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url" binding:"omitempty,url"`
	ColorTheme   string `json:"color_theme" binding:"omitempty,max=50"`
	DisplayOrder int    `json:"display_order"`
}
