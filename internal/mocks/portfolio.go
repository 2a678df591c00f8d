package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/google/uuid"
)

// MockPortfolioRepository is a mock implementation of PortfolioRepository
type MockPortfolioRepository struct {
	mu     sync.Mutex
	Images map[string]*models.PortfolioImage
	// InsertError fails the next CreateBatch
	InsertError error
}

func NewMockPortfolioRepository() *MockPortfolioRepository {
	return &MockPortfolioRepository{Images: make(map[string]*models.PortfolioImage)}
}

func (m *MockPortfolioRepository) sorted() []*models.PortfolioImage {
	out := make([]*models.PortfolioImage, 0, len(m.Images))
	for _, img := range m.Images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MockPortfolioRepository) List(ctx context.Context, filter models.PortfolioFilter) ([]*models.PortfolioImage, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PortfolioImage
	for _, img := range m.sorted() {
		if filter.Category != "" && img.Category != filter.Category {
			continue
		}
		if filter.Featured != nil && img.IsFeatured != *filter.Featured {
			continue
		}
		out = append(out, img)
	}
	return page(out, filter.Page), len(out), nil
}

func (m *MockPortfolioRepository) CreateBatch(ctx context.Context, images []*models.PortfolioImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.InsertError; err != nil {
		m.InsertError = nil
		return err
	}
	last := -1
	for _, img := range m.Images {
		if img.DisplayOrder > last {
			last = img.DisplayOrder
		}
	}
	now := time.Now()
	for _, img := range images {
		last++
		img.ID = uuid.NewString()
		img.DisplayOrder = last
		img.CreatedAt, img.UpdatedAt = now, now
		m.Images[img.ID] = img
	}
	return nil
}

func (m *MockPortfolioRepository) Update(ctx context.Context, id string, u *models.PortfolioImageUpdate) (*models.PortfolioImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.Images[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u.Title != nil {
		img.Title = *u.Title
	}
	if u.Description != nil {
		img.Description = *u.Description
	}
	if u.AltText != nil {
		img.AltText = *u.AltText
	}
	if u.Category != nil {
		img.Category = *u.Category
	}
	if u.IsFeatured != nil {
		img.IsFeatured = *u.IsFeatured
	}
	img.UpdatedAt = time.Now()
	return img, nil
}

func (m *MockPortfolioRepository) Reorder(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.Images[id]; !ok {
			return repository.ErrNotFound
		}
	}
	for i, id := range ids {
		m.Images[id].DisplayOrder = i
	}
	return nil
}

func (m *MockPortfolioRepository) Delete(ctx context.Context, id string) (*models.PortfolioImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.Images[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.Images, id)
	return img, nil
}

// MockProjectFileRepository is a mock implementation of ProjectFileRepository
type MockProjectFileRepository struct {
	mu    sync.Mutex
	Files map[string]*models.ProjectFile
	// InsertError fails the next CreateBatch
	InsertError error
}

func NewMockProjectFileRepository() *MockProjectFileRepository {
	return &MockProjectFileRepository{Files: make(map[string]*models.ProjectFile)}
}

func (m *MockProjectFileRepository) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ProjectFile, 0)
	for _, f := range m.Files {
		if f.ProjectID == projectID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockProjectFileRepository) Get(ctx context.Context, projectID, fileID string) (*models.ProjectFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.Files[fileID]
	if !ok || f.ProjectID != projectID {
		return nil, nil
	}
	return f, nil
}

func (m *MockProjectFileRepository) CreateBatch(ctx context.Context, files []*models.ProjectFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.InsertError; err != nil {
		m.InsertError = nil
		return err
	}
	now := time.Now()
	for i, f := range files {
		f.ID = uuid.NewString()
		f.CreatedAt = now.Add(time.Duration(len(m.Files)+i) * time.Millisecond)
		f.UpdatedAt = f.CreatedAt
	}
	for _, f := range files {
		m.Files[f.ID] = f
	}
	return nil
}

func (m *MockProjectFileRepository) Update(ctx context.Context, projectID, fileID string, u *models.ProjectFileUpdate) (*models.ProjectFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.Files[fileID]
	if !ok || f.ProjectID != projectID {
		return nil, repository.ErrNotFound
	}
	if u.FileName != nil {
		f.FileName = *u.FileName
	}
	if u.Description != nil {
		f.Description = *u.Description
	}
	f.UpdatedAt = time.Now()
	return f, nil
}

func (m *MockProjectFileRepository) Delete(ctx context.Context, projectID, fileID string) (*models.ProjectFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.Files[fileID]
	if !ok || f.ProjectID != projectID {
		return nil, repository.ErrNotFound
	}
	delete(m.Files, fileID)
	return f, nil
}
