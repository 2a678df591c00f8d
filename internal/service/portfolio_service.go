package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agency-cms-api/internal/media"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// portfolioService is the concrete implementation of PortfolioService
type portfolioService struct {
	images    repository.PortfolioRepository
	media     *mediaService
	sanitizer *validation.Sanitizer
	audit     *auditor
	log       zerolog.Logger
}

func newPortfolioService(repos *repository.Repositories, uploads *mediaService, sanitizer *validation.Sanitizer, audit *auditor, log zerolog.Logger) *portfolioService {
	return &portfolioService{
		images:    repos.Portfolio,
		media:     uploads,
		sanitizer: sanitizer,
		audit:     audit,
		log:       log.With().Str("service", "portfolio").Logger(),
	}
}

func (s *portfolioService) List(ctx context.Context, filter models.PortfolioFilter) ([]*models.PortfolioImage, int, error) {
	filter.Page = filter.Page.Normalize(50)
	return s.images.List(ctx, filter)
}

// Upload stores the images on the CDN, then records them in one batch.
// When the batch cannot be written the uploaded assets are removed again.
func (s *portfolioService) Upload(ctx context.Context, actor Actor, meta models.PortfolioImageMeta, files []UploadFile) ([]*models.PortfolioImage, error) {
	if err := s.media.checkCount(len(files)); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := media.CheckImage(f.ContentType, f.Size, s.media.cfg.MaxImageSize); err != nil {
			return nil, checkError(fmt.Errorf("%s: %w", f.Name, err))
		}
	}

	assets, err := s.media.uploadAll(ctx, files, func(UploadFile) media.UploadOptions {
		return media.UploadOptions{
			Folder:       media.FolderPortfolio,
			ResourceType: media.ResourceImage,
			Tags:         []string{string(media.FolderPortfolio)},
		}
	})
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(meta.Title)
	images := make([]*models.PortfolioImage, len(assets))
	for i, a := range assets {
		img := &models.PortfolioImage{
			Title:        title,
			Description:  s.sanitizer.StripTags(meta.Description),
			Category:     strings.TrimSpace(meta.Category),
			PublicID:     a.PublicID,
			ImageURL:     a.URL,
			ThumbnailURL: a.Variants[media.PresetThumbnail],
			MediumURL:    a.Variants[media.PresetArticleFeatured],
			Width:        a.Width,
			Height:       a.Height,
			UploadedBy:   actor.UserID,
		}
		if img.Title == "" {
			img.Title = strings.TrimSuffix(files[i].Name, filepath.Ext(files[i].Name))
		}
		images[i] = img
	}

	if err := s.images.CreateBatch(ctx, images); err != nil {
		s.media.discardAll(assets)
		return nil, err
	}

	for _, img := range images {
		s.audit.record(ctx, actor, "create", "portfolio_image", img.ID, map[string]string{"public_id": img.PublicID})
	}
	s.log.Info().Int("count", len(images)).Str("user_id", actor.UserID).Msg("Portfolio images uploaded")
	return images, nil
}

func (s *portfolioService) Update(ctx context.Context, actor Actor, id string, u *models.PortfolioImageUpdate) (*models.PortfolioImage, error) {
	if u.Description != nil {
		d := s.sanitizer.StripTags(*u.Description)
		u.Description = &d
	}
	img, err := s.images.Update(ctx, id, u)
	if err != nil {
		return nil, notFoundIf(err, "portfolio image")
	}
	s.audit.record(ctx, actor, "update", "portfolio_image", id, u)
	return img, nil
}

// Reorder applies the given order. Every id must exist.
func (s *portfolioService) Reorder(ctx context.Context, actor Actor, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return newError(ErrBadRequest, "duplicate image id %s", id)
		}
		seen[id] = true
	}
	if err := s.images.Reorder(ctx, ids); err != nil {
		return notFoundIf(err, "portfolio image")
	}
	s.audit.record(ctx, actor, "reorder", "portfolio_image", "", map[string]int{"count": len(ids)})
	return nil
}

// Delete removes the row first. The CDN asset is removed best effort afterwards.
func (s *portfolioService) Delete(ctx context.Context, actor Actor, id string) error {
	img, err := s.images.Delete(ctx, id)
	if err != nil {
		return notFoundIf(err, "portfolio image")
	}
	s.media.discard(&media.Asset{PublicID: img.PublicID, ResourceType: media.ResourceImage})
	s.audit.record(ctx, actor, "delete", "portfolio_image", id, map[string]string{"public_id": img.PublicID})
	return nil
}

// projectFileService is the concrete implementation of ProjectFileService
type projectFileService struct {
	files     repository.ProjectFileRepository
	projects  repository.PaymentRepository
	media     *mediaService
	sanitizer *validation.Sanitizer
	audit     *auditor
	log       zerolog.Logger
}

func newProjectFileService(repos *repository.Repositories, uploads *mediaService, sanitizer *validation.Sanitizer, audit *auditor, log zerolog.Logger) *projectFileService {
	return &projectFileService{
		files:     repos.ProjectFile,
		projects:  repos.Payment,
		media:     uploads,
		sanitizer: sanitizer,
		audit:     audit,
		log:       log.With().Str("service", "project_file").Logger(),
	}
}

// project loads a project the actor may see: its client, the assignee or staff
func (s *projectFileService) project(ctx context.Context, actor Actor, id string) (*models.Project, error) {
	p, err := s.projects.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound("project")
	}
	if p.UserID != actor.UserID && p.AssignedTo != actor.UserID && !actor.IsStaff() {
		return nil, newError(ErrForbidden, "access to this project denied")
	}
	return p, nil
}

func (s *projectFileService) List(ctx context.Context, actor Actor, projectID string) ([]*models.ProjectFile, error) {
	if _, err := s.project(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.files.ListByProject(ctx, projectID)
}

func (s *projectFileService) Get(ctx context.Context, actor Actor, projectID, fileID string) (*models.ProjectFile, error) {
	if _, err := s.project(ctx, actor, projectID); err != nil {
		return nil, err
	}
	f, err := s.files.Get(ctx, projectID, fileID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, notFound("file")
	}
	return f, nil
}

func (s *projectFileService) Download(ctx context.Context, actor Actor, projectID, fileID string) (*models.FileDownload, error) {
	f, err := s.Get(ctx, actor, projectID, fileID)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("file_id", f.ID).Str("user_id", actor.UserID).Msg("Project file downloaded")
	return &models.FileDownload{URL: f.FileURL, FileName: f.FileName, MimeType: f.MimeType, Size: f.Size}, nil
}

// Upload attaches files to a project. The CDN upload comes first; a failed insert removes the assets.
func (s *projectFileService) Upload(ctx context.Context, actor Actor, projectID, description string, files []UploadFile) ([]*models.ProjectFile, error) {
	if _, err := s.project(ctx, actor, projectID); err != nil {
		return nil, err
	}
	if err := s.media.checkCount(len(files)); err != nil {
		return nil, err
	}
	resourceTypes := make(map[string]string, len(files))
	for _, f := range files {
		rt, err := media.CheckFile(f.ContentType, f.Size, s.media.cfg.MaxFileSize)
		if err != nil {
			return nil, checkError(fmt.Errorf("%s: %w", f.Name, err))
		}
		resourceTypes[f.ContentType] = rt
	}

	folder := media.ProjectFolder(projectID)
	assets, err := s.media.uploadAll(ctx, files, func(f UploadFile) media.UploadOptions {
		return media.UploadOptions{
			Folder:       folder,
			ResourceType: resourceTypes[f.ContentType],
			Tags:         []string{string(media.FolderProjects), "project_" + projectID},
		}
	})
	if err != nil {
		return nil, err
	}

	description = s.sanitizer.StripTags(description)
	records := make([]*models.ProjectFile, len(assets))
	for i, a := range assets {
		records[i] = &models.ProjectFile{
			ProjectID:    projectID,
			UploadedBy:   actor.UserID,
			FileName:     files[i].Name,
			MimeType:     files[i].ContentType,
			Size:         files[i].Size,
			PublicID:     a.PublicID,
			ResourceType: a.ResourceType,
			FileURL:      a.URL,
			Description:  description,
		}
	}

	if err := s.files.CreateBatch(ctx, records); err != nil {
		s.media.discardAll(assets)
		return nil, err
	}

	for _, f := range records {
		s.audit.record(ctx, actor, "upload", "project_file", f.ID, map[string]string{"project_id": projectID, "file_name": f.FileName})
	}
	return records, nil
}

// Update renames or describes a file. Only the uploader and staff may change it.
func (s *projectFileService) Update(ctx context.Context, actor Actor, projectID, fileID string, u *models.ProjectFileUpdate) (*models.ProjectFile, error) {
	f, err := s.Get(ctx, actor, projectID, fileID)
	if err != nil {
		return nil, err
	}
	if f.UploadedBy != actor.UserID && !actor.IsStaff() {
		return nil, newError(ErrForbidden, "only the uploader can edit this file")
	}
	if u.FileName != nil {
		name := strings.TrimSpace(*u.FileName)
		if name == "" {
			return nil, newError(ErrBadRequest, "file_name cannot be empty")
		}
		u.FileName = &name
	}
	if u.Description != nil {
		d := s.sanitizer.StripTags(*u.Description)
		u.Description = &d
	}

	updated, err := s.files.Update(ctx, projectID, fileID, u)
	if err != nil {
		return nil, notFoundIf(err, "file")
	}
	updated.UploadedByName = f.UploadedByName
	s.audit.record(ctx, actor, "update", "project_file", fileID, u)
	return updated, nil
}

// Delete removes the row, then the CDN asset best effort. Only the uploader and staff may delete.
func (s *projectFileService) Delete(ctx context.Context, actor Actor, projectID, fileID string) error {
	f, err := s.Get(ctx, actor, projectID, fileID)
	if err != nil {
		return err
	}
	if f.UploadedBy != actor.UserID && !actor.IsStaff() {
		return newError(ErrForbidden, "only the uploader can delete this file")
	}

	deleted, err := s.files.Delete(ctx, projectID, fileID)
	if err != nil {
		return notFoundIf(err, "file")
	}
	s.media.discard(&media.Asset{PublicID: deleted.PublicID, ResourceType: deleted.ResourceType})
	s.audit.record(ctx, actor, "delete", "project_file", fileID, map[string]string{"project_id": projectID, "public_id": deleted.PublicID})
	return nil
}
