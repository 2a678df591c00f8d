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

// MockBlogRepository is a mock implementation of BlogRepository
type MockBlogRepository struct {
	mu    sync.Mutex
	Posts map[string]*models.BlogPost
}

func NewMockBlogRepository() *MockBlogRepository {
	return &MockBlogRepository{Posts: make(map[string]*models.BlogPost)}
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (m *MockBlogRepository) List(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.BlogPost
	for _, p := range m.Posts {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Tag != "" && !hasTag(p.Tags, filter.Tag) {
			continue
		}
		if filter.Featured != nil && p.IsFeatured != *filter.Featured {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return page(out, filter.Page), len(out), nil
}

func (m *MockBlogRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Posts[id], nil
}

func (m *MockBlogRepository) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, nil
}

func (m *MockBlogRepository) slugTaken(slug, self string) bool {
	for _, p := range m.Posts {
		if p.Slug == slug && p.ID != self {
			return true
		}
	}
	return false
}

func (m *MockBlogRepository) Create(ctx context.Context, post *models.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(post.Slug, "") {
		return errUniqueViolation
	}
	post.ID = uuid.NewString()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	m.Posts[post.ID] = post
	return nil
}

func (m *MockBlogRepository) Update(ctx context.Context, post *models.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Posts[post.ID]; !ok {
		return repository.ErrNotFound
	}
	if m.slugTaken(post.Slug, post.ID) {
		return errUniqueViolation
	}
	post.UpdatedAt = time.Now()
	m.Posts[post.ID] = post
	return nil
}

func (m *MockBlogRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Posts, id)
	return nil
}

func (m *MockBlogRepository) IncrementViews(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Posts[id]; ok {
		p.ViewsCount++
	}
	return nil
}

// counts tallies labels, most frequent first
func counts(labels []string) []models.NamedCount {
	byName := make(map[string]int)
	for _, l := range labels {
		if l != "" {
			byName[l]++
		}
	}
	out := make([]models.NamedCount, 0, len(byName))
	for name, n := range byName {
		out = append(out, models.NamedCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (m *MockBlogRepository) Categories(ctx context.Context) ([]models.NamedCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var labels []string
	for _, p := range m.Posts {
		if p.Status == models.StatusPublished {
			labels = append(labels, p.Category)
		}
	}
	return counts(labels), nil
}

func (m *MockBlogRepository) Tags(ctx context.Context) ([]models.NamedCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var labels []string
	for _, p := range m.Posts {
		if p.Status == models.StatusPublished {
			labels = append(labels, p.Tags...)
		}
	}
	return counts(labels), nil
}

func (m *MockBlogRepository) Stats(ctx context.Context) (*models.BlogStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.BlogStats{Total: len(m.Posts)}
	for _, p := range m.Posts {
		switch p.Status {
		case models.StatusPublished:
			stats.Published++
		case models.StatusDraft:
			stats.Drafts++
		case models.StatusArchived:
			stats.Archived++
		}
		if p.IsFeatured {
			stats.Featured++
		}
		stats.TotalViews += p.ViewsCount
	}
	return stats, nil
}

// MockOfferRepository is a mock implementation of OfferRepository
type MockOfferRepository struct {
	mu     sync.Mutex
	Offers map[string]*models.Offer
}

func NewMockOfferRepository() *MockOfferRepository {
	return &MockOfferRepository{Offers: make(map[string]*models.Offer)}
}

func (m *MockOfferRepository) List(ctx context.Context, filter models.OfferFilter) ([]*models.Offer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Offer
	for _, o := range m.Offers {
		if filter.ActiveOnly && !o.IsActive {
			continue
		}
		if filter.Category != "" && o.Category != filter.Category {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return page(out, filter.Page), len(out), nil
}

func (m *MockOfferRepository) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Offers[id], nil
}

func (m *MockOfferRepository) GetBySlug(ctx context.Context, slug string) (*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.Offers {
		if o.Slug == slug {
			return o, nil
		}
	}
	return nil, nil
}

func (m *MockOfferRepository) slugTaken(slug, self string) bool {
	for _, o := range m.Offers {
		if o.Slug == slug && o.ID != self {
			return true
		}
	}
	return false
}

func (m *MockOfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(offer.Slug, "") {
		return errUniqueViolation
	}
	offer.ID = uuid.NewString()
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = offer.CreatedAt
	m.Offers[offer.ID] = offer
	return nil
}

func (m *MockOfferRepository) Update(ctx context.Context, offer *models.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Offers[offer.ID]; !ok {
		return repository.ErrNotFound
	}
	if m.slugTaken(offer.Slug, offer.ID) {
		return errUniqueViolation
	}
	offer.UpdatedAt = time.Now()
	m.Offers[offer.ID] = offer
	return nil
}

func (m *MockOfferRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Offers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Offers, id)
	return nil
}

func (m *MockOfferRepository) Stats(ctx context.Context) (*models.OfferStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.OfferStats{Total: len(m.Offers)}
	var categories []string
	for _, o := range m.Offers {
		if o.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		categories = append(categories, o.Category)
	}
	stats.ByCategory = counts(categories)
	return stats, nil
}

// MockTestimonialRepository is a mock implementation of TestimonialRepository
type MockTestimonialRepository struct {
	mu           sync.Mutex
	Testimonials map[string]*models.Testimonial
}

func NewMockTestimonialRepository() *MockTestimonialRepository {
	return &MockTestimonialRepository{Testimonials: make(map[string]*models.Testimonial)}
}

func (m *MockTestimonialRepository) List(ctx context.Context, filter models.TestimonialFilter) ([]*models.Testimonial, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Testimonial
	for _, t := range m.Testimonials {
		if filter.Approved != nil && t.IsApproved != *filter.Approved {
			continue
		}
		if filter.Featured != nil && t.IsFeatured != *filter.Featured {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, filter.Page), len(out), nil
}

func (m *MockTestimonialRepository) GetByID(ctx context.Context, id string) (*models.Testimonial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Testimonials[id], nil
}

func (m *MockTestimonialRepository) Create(ctx context.Context, t *models.Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.NewString()
	// distinct timestamps keep the newest-first order stable
	t.CreatedAt = time.Now().Add(time.Duration(len(m.Testimonials)) * time.Millisecond)
	t.UpdatedAt = t.CreatedAt
	m.Testimonials[t.ID] = t
	return nil
}

func (m *MockTestimonialRepository) Update(ctx context.Context, t *models.Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Testimonials[t.ID]; !ok {
		return repository.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	m.Testimonials[t.ID] = t
	return nil
}

func (m *MockTestimonialRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Testimonials[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Testimonials, id)
	return nil
}

func (m *MockTestimonialRepository) Stats(ctx context.Context) (*models.TestimonialStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.TestimonialStats{Total: len(m.Testimonials)}
	var rated, sum int
	for _, t := range m.Testimonials {
		if t.IsApproved {
			stats.Approved++
		} else {
			stats.Pending++
		}
		if t.IsFeatured {
			stats.Featured++
		}
		if t.Rating > 0 {
			rated++
			sum += t.Rating
		}
	}
	if rated > 0 {
		stats.AverageRating = float64(sum) / float64(rated)
	}
	return stats, nil
}

// MockRubriqueRepository is a mock implementation of RubriqueRepository.
// Article counts come from the article mock it shares with the fixture.
type MockRubriqueRepository struct {
	mu        sync.Mutex
	Rubriques map[string]*models.Rubrique
	articles  *MockArticleRepository
}

func NewMockRubriqueRepository(articles *MockArticleRepository) *MockRubriqueRepository {
	return &MockRubriqueRepository{Rubriques: make(map[string]*models.Rubrique), articles: articles}
}

func (m *MockRubriqueRepository) List(ctx context.Context) ([]*models.Rubrique, error) {
	m.mu.Lock()
	out := make([]*models.Rubrique, 0, len(m.Rubriques))
	for _, r := range m.Rubriques {
		out = append(out, r)
	}
	m.mu.Unlock()

	for _, r := range out {
		r.ArticlesCount, _ = m.CountArticles(ctx, r.ID)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MockRubriqueRepository) GetByID(ctx context.Context, id string) (*models.Rubrique, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Rubriques[id], nil
}

func (m *MockRubriqueRepository) GetBySlug(ctx context.Context, slug string) (*models.Rubrique, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Rubriques {
		if r.Slug == slug {
			return r, nil
		}
	}
	return nil, nil
}

func (m *MockRubriqueRepository) slugTaken(slug, self string) bool {
	for _, r := range m.Rubriques {
		if r.Slug == slug && r.ID != self {
			return true
		}
	}
	return false
}

func (m *MockRubriqueRepository) Create(ctx context.Context, rubrique *models.Rubrique) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(rubrique.Slug, "") {
		return errUniqueViolation
	}
	rubrique.ID = uuid.NewString()
	rubrique.CreatedAt = time.Now()
	rubrique.UpdatedAt = rubrique.CreatedAt
	m.Rubriques[rubrique.ID] = rubrique
	return nil
}

func (m *MockRubriqueRepository) Update(ctx context.Context, rubrique *models.Rubrique) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Rubriques[rubrique.ID]; !ok {
		return repository.ErrNotFound
	}
	if m.slugTaken(rubrique.Slug, rubrique.ID) {
		return errUniqueViolation
	}
	rubrique.UpdatedAt = time.Now()
	m.Rubriques[rubrique.ID] = rubrique
	return nil
}

func (m *MockRubriqueRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Rubriques[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Rubriques, id)
	return nil
}

func (m *MockRubriqueRepository) CountArticles(ctx context.Context, id string) (int, error) {
	m.articles.mu.Lock()
	defer m.articles.mu.Unlock()
	n := 0
	for _, a := range m.articles.Articles {
		if a.RubriqueID == id {
			n++
		}
	}
	return n, nil
}

// MockNotificationRepository reads the notifications webhook transactions
// write into the payment mock.
type MockNotificationRepository struct {
	payments *MockPaymentRepository
}

func NewMockNotificationRepository(payments *MockPaymentRepository) *MockNotificationRepository {
	return &MockNotificationRepository{payments: payments}
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, p models.Page) ([]*models.Notification, int, error) {
	m.payments.mu.Lock()
	defer m.payments.mu.Unlock()
	var out []*models.Notification
	for i := len(m.payments.Notifications) - 1; i >= 0; i-- {
		n := m.payments.Notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	return page(out, p), len(out), nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	m.payments.mu.Lock()
	defer m.payments.mu.Unlock()
	for _, n := range m.payments.Notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	m.payments.mu.Lock()
	defer m.payments.mu.Unlock()
	n := 0
	for _, notif := range m.payments.Notifications {
		if notif.UserID == userID && !notif.IsRead {
			notif.IsRead = true
			n++
		}
	}
	return n, nil
}
