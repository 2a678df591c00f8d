package models

import (
	"time"
)

// PortfolioImage is a showcase image stored on the CDN
type PortfolioImage struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title,omitempty" db:"title"`
	Description  string    `json:"description,omitempty" db:"description"`
	AltText      string    `json:"alt_text,omitempty" db:"alt_text"`
	Category     string    `json:"category,omitempty" db:"category"`
	PublicID     string    `json:"public_id" db:"public_id"`
	ImageURL     string    `json:"image_url" db:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	MediumURL    string    `json:"medium_url,omitempty" db:"medium_url"`
	Width        int       `json:"width,omitempty" db:"width"`
	Height       int       `json:"height,omitempty" db:"height"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	IsFeatured   bool      `json:"is_featured" db:"is_featured"`
	UploadedBy   string    `json:"uploaded_by,omitempty" db:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PortfolioFilter narrows portfolio listings
type PortfolioFilter struct {
	Category string
	Featured *bool
	Page
}

// PortfolioImageMeta is the descriptive part of an upload
type PortfolioImageMeta struct {
	Title       string `form:"title" binding:"omitempty,max=255"`
	Description string `form:"description"`
	Category    string `form:"category" binding:"omitempty,max=100"`
}

// PortfolioImageUpdate is the admin patch payload. Nil means unchanged.
type PortfolioImageUpdate struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	AltText     *string `json:"alt_text" binding:"omitempty,max=255"`
	Category    *string `json:"category" binding:"omitempty,max=100"`
	IsFeatured  *bool   `json:"is_featured"`
}

// ReorderRequest lists image ids in their new display order
type ReorderRequest struct {
	ImageIDs []string `json:"image_ids" binding:"required,min=1,dive,uuid"`
}

// ProjectFile is a deliverable or brief attached to a client project
type ProjectFile struct {
	ID             string    `json:"id" db:"id"`
	ProjectID      string    `json:"project_id" db:"project_id"`
	UploadedBy     string    `json:"uploaded_by,omitempty" db:"uploaded_by"`
	FileName       string    `json:"file_name" db:"file_name"`
	MimeType       string    `json:"mime_type" db:"mime_type"`
	Size           int64     `json:"size" db:"size"`
	PublicID       string    `json:"public_id" db:"public_id"`
	ResourceType   string    `json:"resource_type" db:"resource_type"`
	FileURL        string    `json:"file_url" db:"file_url"`
	Description    string    `json:"description,omitempty" db:"description"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	UploadedByName string    `json:"uploaded_by_name,omitempty" db:"-"`
}

// ProjectFileUpdate is the metadata patch payload. Nil means unchanged.
type ProjectFileUpdate struct {
	FileName    *string `json:"file_name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// FileDownload points the client at the stored file
type FileDownload struct {
	URL      string `json:"download_url"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}
