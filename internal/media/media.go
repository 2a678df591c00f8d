// Package media stores uploaded images and files on the media CDN.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	ErrDisabled        = errors.New("media storage is not configured")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrUnknownPreset   = errors.New("unknown transformation preset")
)

// Folder groups assets by purpose
type Folder string

const (
	FolderArticles  Folder = "articles"
	FolderRubriques Folder = "rubriques"
	FolderAvatars   Folder = "avatars"
	FolderTeam      Folder = "team"
	FolderLogo      Folder = "logo"
	FolderGallery   Folder = "gallery"
	FolderFiles     Folder = "files"
	FolderPortfolio Folder = "portfolio"
	FolderProjects  Folder = "projects"
	FolderTemp      Folder = "temp"
)

// ProjectFolder is where the deliverables of one client project live
func ProjectFolder(projectID string) Folder {
	return Folder(path.Join(string(FolderProjects), projectID))
}

// Resource types understood by the CDN
const (
	ResourceImage = "image"
	ResourceRaw   = "raw"
	ResourceVideo = "video"
	ResourceAuto  = "auto"
)

// Preset names a delivery transformation
type Preset string

const (
	PresetArticleHero      Preset = "article_hero"
	PresetArticleFeatured  Preset = "article_featured"
	PresetArticleThumbnail Preset = "article_thumbnail"
	PresetRubriqueBanner   Preset = "rubrique_banner"
	PresetAvatarLarge      Preset = "avatar_large"
	PresetAvatarMedium     Preset = "avatar_medium"
	PresetAvatarSmall      Preset = "avatar_small"
	PresetTeamPhoto        Preset = "team_photo"
	PresetThumbnail        Preset = "thumbnail"
)

var presets = map[Preset]string{
	PresetArticleHero:      "c_limit,w_1920,h_1080,q_auto:best,f_auto",
	PresetArticleFeatured:  "c_fill,g_auto,w_1200,h_630,q_auto:good,f_auto",
	PresetArticleThumbnail: "c_fill,g_auto,w_600,h_400,q_auto:good,f_auto",
	PresetRubriqueBanner:   "c_fill,g_center,w_800,h_400,q_auto:good,f_auto",
	PresetAvatarLarge:      "c_fill,g_face,w_400,h_400,q_auto:good,f_auto",
	PresetAvatarMedium:     "c_fill,g_face,w_200,h_200,q_auto:good,f_auto",
	PresetAvatarSmall:      "c_fill,g_face,w_64,h_64,q_auto:good,f_auto",
	PresetTeamPhoto:        "c_fill,g_face,w_600,h_600,q_auto:good,f_auto",
	PresetThumbnail:        "c_fill,w_300,h_300,q_auto:good,f_auto",
}

// Transformation returns the CDN transformation string for a preset
func (p Preset) Transformation() (string, bool) {
	t, ok := presets[p]
	return t, ok
}

// Variants lists the presets whose URLs are returned after each kind of upload
var Variants = map[Folder][]Preset{
	FolderArticles:  {PresetArticleHero, PresetArticleFeatured, PresetArticleThumbnail},
	FolderAvatars:   {PresetAvatarLarge, PresetAvatarMedium, PresetAvatarSmall},
	FolderTeam:      {PresetTeamPhoto, PresetThumbnail},
	FolderRubriques: {PresetRubriqueBanner, PresetThumbnail},
	FolderGallery:   {PresetArticleThumbnail, PresetThumbnail},
	FolderPortfolio: {PresetArticleFeatured, PresetThumbnail},
}

// Allowed upload content types
var (
	ImageTypes = map[string]bool{
		"image/jpeg":    true,
		"image/png":     true,
		"image/gif":     true,
		"image/webp":    true,
		"image/svg+xml": true,
	}
	DocumentTypes = map[string]bool{
		"application/pdf":    true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		"application/vnd.ms-excel": true,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
		"application/vnd.ms-powerpoint":                                             true,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
		"text/plain": true,
	}
	VideoTypes = map[string]bool{
		"video/mp4":  true,
		"video/webm": true,
		"video/ogg":  true,
	}
)

// CheckImage validates an image upload against the allowed types and size limit
func CheckImage(contentType string, size, maxSize int64) error {
	if !ImageTypes[baseType(contentType)] {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, size, maxSize)
	}
	return nil
}

// CheckFile validates a generic upload and returns the resource type to store it under
func CheckFile(contentType string, size, maxSize int64) (string, error) {
	ct := baseType(contentType)
	var resourceType string
	switch {
	case ImageTypes[ct]:
		resourceType = ResourceImage
	case VideoTypes[ct]:
		resourceType = ResourceVideo
	case DocumentTypes[ct]:
		resourceType = ResourceRaw
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if maxSize > 0 && size > maxSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, size, maxSize)
	}
	return resourceType, nil
}

func baseType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// UploadOptions controls where and how an asset is stored
type UploadOptions struct {
	Folder       Folder
	PublicID     string
	ResourceType string
	Tags         []string
}

// SearchOptions narrows an asset search
type SearchOptions struct {
	Folder     Folder
	Expression string
	MaxResults int
	Cursor     string
}

// Asset is a stored CDN asset
type Asset struct {
	PublicID     string            `json:"public_id"`
	URL          string            `json:"url"`
	Format       string            `json:"format,omitempty"`
	ResourceType string            `json:"resource_type"`
	Bytes        int               `json:"bytes"`
	Width        int               `json:"width,omitempty"`
	Height       int               `json:"height,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	Variants     map[Preset]string `json:"variants,omitempty"`
}

// SearchResult is one page of search hits
type SearchResult struct {
	Assets     []Asset `json:"assets"`
	Total      int     `json:"total"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// Store is the media CDN façade
type Store interface {
	Upload(ctx context.Context, r io.Reader, opts UploadOptions) (*Asset, error)
	Delete(ctx context.Context, publicID, resourceType string) error
	Search(ctx context.Context, opts SearchOptions) (*SearchResult, error)
	URL(publicID string, preset Preset) (string, error)
}

// PublicIDFromURL extracts the asset public id from a CDN delivery URL.
// It returns "" for URLs that were not produced by the CDN.
func PublicIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	i := 0
	for i < len(parts) && parts[i] != "upload" {
		i++
	}
	if i >= len(parts)-1 {
		return ""
	}
	parts = parts[i+1:]

	for len(parts) > 1 && isTransformation(parts[0]) {
		parts = parts[1:]
	}
	if len(parts) > 1 && isVersion(parts[0]) {
		parts = parts[1:]
	}

	id := strings.Join(parts, "/")
	return strings.TrimSuffix(id, path.Ext(id))
}

var transformationToken = regexp.MustCompile(`^[a-z]{1,3}_[^/]+$`)

func isTransformation(s string) bool {
	for _, tok := range strings.Split(s, ",") {
		if !transformationToken.MatchString(tok) {
			return false
		}
	}
	return true
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
