package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/agency-cms-api/internal/config"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin/search"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

const defaultSearchResults = 30

type cloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	prefix string
	log    zerolog.Logger
}

// New creates the media store. Without credentials every call returns ErrDisabled.
func New(cfg config.MediaConfig, log zerolog.Logger) (Store, error) {
	if !cfg.Enabled() {
		log.Warn().Msg("Media credentials not set, uploads disabled")
		return disabledStore{}, nil
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create media client: %w", err)
	}
	cld.Config.URL.Secure = true

	return &cloudinaryStore{
		cld:    cld,
		prefix: strings.Trim(cfg.FolderPrefix, "/"),
		log:    log.With().Str("component", "media").Logger(),
	}, nil
}

func (s *cloudinaryStore) folder(f Folder) string {
	if f == "" {
		f = FolderTemp
	}
	if s.prefix == "" {
		return string(f)
	}
	return s.prefix + "/" + string(f)
}

func (s *cloudinaryStore) Upload(ctx context.Context, r io.Reader, opts UploadOptions) (*Asset, error) {
	resourceType := opts.ResourceType
	if resourceType == "" {
		resourceType = ResourceAuto
	}

	params := uploader.UploadParams{
		Folder:         s.folder(opts.Folder),
		PublicID:       opts.PublicID,
		ResourceType:   resourceType,
		Tags:           append([]string{"agency"}, opts.Tags...),
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(true),
	}

	res, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("upload failed: %s", res.Error.Message)
	}

	asset := &Asset{
		PublicID:     res.PublicID,
		URL:          res.SecureURL,
		Format:       res.Format,
		ResourceType: res.ResourceType,
		Bytes:        res.Bytes,
		Width:        res.Width,
		Height:       res.Height,
		CreatedAt:    res.CreatedAt,
	}
	if res.ResourceType == ResourceImage {
		asset.Variants = s.variants(res.PublicID, opts.Folder)
	}

	s.log.Debug().Str("public_id", res.PublicID).Int("bytes", res.Bytes).Msg("Asset uploaded")
	return asset, nil
}

func (s *cloudinaryStore) variants(publicID string, folder Folder) map[Preset]string {
	out := make(map[Preset]string)
	for _, p := range Variants[folder] {
		u, err := s.URL(publicID, p)
		if err != nil {
			s.log.Warn().Err(err).Str("preset", string(p)).Msg("Failed to build variant URL")
			continue
		}
		out[p] = u
	}
	return out
}

func (s *cloudinaryStore) Delete(ctx context.Context, publicID, resourceType string) error {
	if resourceType == "" {
		resourceType = ResourceImage
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("delete failed: %s", res.Error.Message)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("delete failed: %s", res.Result)
	}
	return nil
}

func (s *cloudinaryStore) Search(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	limit := opts.MaxResults
	if limit <= 0 || limit > 500 {
		limit = defaultSearchResults
	}

	query := search.Query{
		Expression: searchExpression(s.folder(opts.Folder), opts),
		SortBy:     []search.SortByField{{"created_at": search.Descending}},
		MaxResults: limit,
		NextCursor: opts.Cursor,
	}

	res, err := s.cld.Admin.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("search failed: %s", res.Error.Message)
	}

	out := &SearchResult{Total: res.TotalCount, NextCursor: res.NextCursor, Assets: make([]Asset, 0, len(res.Assets))}
	for _, a := range res.Assets {
		asset := Asset{
			PublicID:     a.PublicID,
			URL:          a.SecureURL,
			Format:       a.Format,
			ResourceType: a.ResourceType,
			Bytes:        a.Bytes,
			Width:        a.Width,
			Height:       a.Height,
			CreatedAt:    a.CreatedAt,
		}
		if a.ResourceType == ResourceImage {
			if u, err := s.URL(a.PublicID, PresetThumbnail); err == nil {
				asset.Variants = map[Preset]string{PresetThumbnail: u}
			}
		}
		out.Assets = append(out.Assets, asset)
	}
	return out, nil
}

// searchExpression scopes the caller's expression to a folder when one is given
func searchExpression(folder string, opts SearchOptions) string {
	if opts.Folder == "" {
		return opts.Expression
	}
	expr := "folder:" + folder
	if opts.Expression != "" {
		expr += " AND " + opts.Expression
	}
	return expr
}

func (s *cloudinaryStore) URL(publicID string, preset Preset) (string, error) {
	t, ok := preset.Transformation()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
	}
	img, err := s.cld.Image(publicID)
	if err != nil {
		return "", err
	}
	img.Transformation = t
	return img.String()
}

type disabledStore struct{}

func (disabledStore) Upload(context.Context, io.Reader, UploadOptions) (*Asset, error) {
	return nil, ErrDisabled
}

func (disabledStore) Delete(context.Context, string, string) error {
	return ErrDisabled
}

func (disabledStore) Search(context.Context, SearchOptions) (*SearchResult, error) {
	return nil, ErrDisabled
}

func (disabledStore) URL(string, Preset) (string, error) {
	return "", ErrDisabled
}
