package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/agency-cms-api/internal/config"
	"github.com/agency-cms-api/internal/media"
	"github.com/agency-cms-api/internal/metrics"
	"github.com/agency-cms-api/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// galleryConcurrency bounds parallel CDN uploads of one request
const galleryConcurrency = 4

// mediaService is the concrete implementation of MediaService
type mediaService struct {
	users repository.UserRepository
	store media.Store
	cfg   config.UploadConfig
	audit *auditor
	log   zerolog.Logger
}

func newMediaService(users repository.UserRepository, store media.Store, cfg config.UploadConfig, audit *auditor, log zerolog.Logger) *mediaService {
	return &mediaService{
		users: users,
		store: store,
		cfg:   cfg,
		audit: audit,
		log:   log.With().Str("service", "media").Logger(),
	}
}

func toResult(a *media.Asset) *UploadResult {
	r := &UploadResult{
		PublicID: a.PublicID,
		URL:      a.URL,
		Format:   a.Format,
		Bytes:    a.Bytes,
		Width:    a.Width,
		Height:   a.Height,
	}
	if len(a.Variants) > 0 {
		r.Variants = make(map[string]string, len(a.Variants)+1)
		r.Variants["original"] = a.URL
		for p, u := range a.Variants {
			r.Variants[string(p)] = u
		}
	}
	return r
}

// checkError turns admission failures into client errors
func checkError(err error) error {
	if errors.Is(err, media.ErrUnsupportedType) || errors.Is(err, media.ErrTooLarge) {
		return &Error{Kind: ErrBadRequest, Msg: err.Error()}
	}
	return err
}

// upload sends one admitted file to the CDN and records the outcome
func (s *mediaService) upload(ctx context.Context, file UploadFile, opts media.UploadOptions) (*media.Asset, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", file.Name, err)
	}
	defer rc.Close()

	asset, err := s.store.Upload(ctx, rc, opts)
	if err != nil {
		metrics.RecordUpload(string(opts.Folder), "error", file.Size)
		return nil, err
	}
	metrics.RecordUpload(string(opts.Folder), "ok", file.Size)
	return asset, nil
}

// discard deletes an asset whose database write failed
func (s *mediaService) discard(asset *media.Asset) {
	if err := s.store.Delete(context.Background(), asset.PublicID, asset.ResourceType); err != nil {
		s.log.Warn().Err(err).Str("public_id", asset.PublicID).Msg("Failed to remove orphaned asset")
	}
}

func (s *mediaService) UploadImage(ctx context.Context, folder media.Folder, file UploadFile) (*UploadResult, error) {
	if err := media.CheckImage(file.ContentType, file.Size, s.cfg.MaxImageSize); err != nil {
		return nil, checkError(err)
	}
	asset, err := s.upload(ctx, file, media.UploadOptions{
		Folder:       folder,
		ResourceType: media.ResourceImage,
		Tags:         []string{string(folder)},
	})
	if err != nil {
		return nil, err
	}
	return toResult(asset), nil
}

// setAvatar uploads a profile picture, stores url on the user and drops the previous asset
func (s *mediaService) setAvatar(ctx context.Context, actor Actor, file UploadFile, folder media.Folder, preset media.Preset) (*UploadResult, error) {
	if err := media.CheckImage(file.ContentType, file.Size, s.cfg.MaxImageSize); err != nil {
		return nil, checkError(err)
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user")
	}

	asset, err := s.upload(ctx, file, media.UploadOptions{
		Folder:       folder,
		ResourceType: media.ResourceImage,
		Tags:         []string{string(folder), "user_" + actor.UserID},
	})
	if err != nil {
		return nil, err
	}

	url := asset.Variants[preset]
	if url == "" {
		url = asset.URL
	}
	if err := s.users.UpdateAvatar(ctx, actor.UserID, url); err != nil {
		s.discard(asset)
		return nil, notFoundIf(err, "user")
	}

	if previous := media.PublicIDFromURL(user.AvatarURL); previous != "" && previous != asset.PublicID {
		if err := s.store.Delete(ctx, previous, media.ResourceImage); err != nil {
			s.log.Warn().Err(err).Str("public_id", previous).Msg("Failed to delete previous avatar")
		}
	}

	result := toResult(asset)
	result.URL = url
	return result, nil
}

func (s *mediaService) UploadAvatar(ctx context.Context, actor Actor, file UploadFile) (*UploadResult, error) {
	return s.setAvatar(ctx, actor, file, media.FolderAvatars, media.PresetAvatarMedium)
}

func (s *mediaService) UploadTeamPhoto(ctx context.Context, actor Actor, file UploadFile) (*UploadResult, error) {
	return s.setAvatar(ctx, actor, file, media.FolderTeam, media.PresetTeamPhoto)
}

// uploadAll uploads files concurrently. Any failure removes the files already uploaded.
func (s *mediaService) uploadAll(ctx context.Context, files []UploadFile, options func(UploadFile) media.UploadOptions) ([]*media.Asset, error) {
	assets := make([]*media.Asset, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(galleryConcurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			asset, err := s.upload(gctx, f, options(f))
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			assets[i] = asset
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.discardAll(assets)
		return nil, err
	}
	return assets, nil
}

func (s *mediaService) discardAll(assets []*media.Asset) {
	for _, a := range assets {
		if a != nil {
			s.discard(a)
		}
	}
}

// checkCount rejects empty and oversized batches
func (s *mediaService) checkCount(n int) error {
	if n == 0 {
		return newError(ErrBadRequest, "no file provided")
	}
	if s.cfg.MaxFiles > 0 && n > s.cfg.MaxFiles {
		return newError(ErrBadRequest, "too many files (max %d)", s.cfg.MaxFiles)
	}
	return nil
}

// UploadGallery uploads files concurrently. Any failure removes the files already uploaded.
func (s *mediaService) UploadGallery(ctx context.Context, files []UploadFile) ([]*UploadResult, error) {
	if len(files) == 0 {
		return nil, newError(ErrBadRequest, "no image provided")
	}
	if s.cfg.MaxFiles > 0 && len(files) > s.cfg.MaxFiles {
		return nil, newError(ErrBadRequest, "too many files (max %d)", s.cfg.MaxFiles)
	}
	for _, f := range files {
		if err := media.CheckImage(f.ContentType, f.Size, s.cfg.MaxImageSize); err != nil {
			return nil, checkError(fmt.Errorf("%s: %w", f.Name, err))
		}
	}

	assets, err := s.uploadAll(ctx, files, func(UploadFile) media.UploadOptions {
		return media.UploadOptions{
			Folder:       media.FolderGallery,
			ResourceType: media.ResourceImage,
			Tags:         []string{string(media.FolderGallery)},
		}
	})
	if err != nil {
		return nil, err
	}

	out := make([]*UploadResult, len(assets))
	for i, a := range assets {
		out[i] = toResult(a)
	}
	return out, nil
}

func (s *mediaService) UploadFile(ctx context.Context, file UploadFile) (*UploadResult, error) {
	resourceType, err := media.CheckFile(file.ContentType, file.Size, s.cfg.MaxFileSize)
	if err != nil {
		return nil, checkError(err)
	}
	asset, err := s.upload(ctx, file, media.UploadOptions{
		Folder:       media.FolderFiles,
		ResourceType: resourceType,
		Tags:         []string{string(media.FolderFiles)},
	})
	if err != nil {
		return nil, err
	}
	return toResult(asset), nil
}

func (s *mediaService) Search(ctx context.Context, opts media.SearchOptions) (*media.SearchResult, error) {
	if opts.MaxResults <= 0 || opts.MaxResults > 500 {
		opts.MaxResults = 50
	}
	return s.store.Search(ctx, opts)
}

func (s *mediaService) Delete(ctx context.Context, actor Actor, publicID, resourceType string) error {
	if publicID == "" {
		return newError(ErrBadRequest, "public_id is required")
	}
	if err := s.store.Delete(ctx, publicID, resourceType); err != nil {
		return err
	}
	s.audit.record(ctx, actor, "delete", "media", publicID, map[string]string{"resource_type": resourceType})
	return nil
}
