package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// errUniqueViolation is what postgres reports for a duplicate key
var errUniqueViolation = &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}

func page[T any](items []T, p models.Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[string]*models.User
	InsertError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[string]*models.User)}
}

// Add stores a user as-is, assigning an id when missing
func (m *MockUserRepository) Add(user *models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.Users[user.ID] = user
	return user
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	user.CreatedAt = time.Now()
	m.Add(user)
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Users[id], nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	u, _ := m.GetByUsername(ctx, username)
	return u != nil, nil
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	u.LastLogin = &now
	return nil
}

func applyProfile(u *models.User, p *models.ProfileUpdate) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Firstname, p.Firstname)
	set(&u.Lastname, p.Lastname)
	set(&u.Phone, p.Phone)
	set(&u.CompanyName, p.CompanyName)
	set(&u.Bio, p.Bio)
	set(&u.LinkedinURL, p.LinkedinURL)
	set(&u.TwitterURL, p.TwitterURL)
	set(&u.GithubURL, p.GithubURL)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, update *models.ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	applyProfile(u, update)
	return u, nil
}

func (m *MockUserRepository) UpdateTeam(ctx context.Context, id string, update *models.TeamUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	applyProfile(u, &update.ProfileUpdate)
	if update.IsTeamMember != nil {
		u.IsTeamMember = *update.IsTeamMember
	}
	if update.TeamPosition != nil {
		u.TeamPosition = *update.TeamPosition
	}
	if update.TeamOrder != nil {
		u.TeamOrder = *update.TeamOrder
	}
	if update.Role != nil {
		u.Role = *update.Role
	}
	if update.IsActive != nil {
		u.IsActive = *update.IsActive
	}
	return u, nil
}

func (m *MockUserRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.AvatarURL = avatarURL
	return nil
}

func (m *MockUserRepository) ListTeam(ctx context.Context) ([]models.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TeamMember
	for _, u := range m.Users {
		if u.IsTeamMember && u.IsActive {
			out = append(out, models.TeamMember{
				ID:           u.ID,
				Username:     u.Username,
				Firstname:    u.Firstname,
				Lastname:     u.Lastname,
				AvatarURL:    u.AvatarURL,
				TeamPosition: u.TeamPosition,
				TeamOrder:    u.TeamOrder,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamOrder < out[j].TeamOrder })
	return out, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Users), nil
}

// MockAuthRepository is a mock implementation of AuthRepository
type MockAuthRepository struct {
	mu       sync.Mutex
	Attempts []models.LoginAttempt
	Tokens   map[string]*models.PasswordResetToken
	// Passwords records the hash set by ConsumeResetToken, by user id
	Passwords map[string]string
}

func NewMockAuthRepository() *MockAuthRepository {
	return &MockAuthRepository{
		Tokens:    make(map[string]*models.PasswordResetToken),
		Passwords: make(map[string]string),
	}
}

func (m *MockAuthRepository) RecordLoginAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts = append(m.Attempts, *attempt)
	return nil
}

func (m *MockAuthRepository) CountRecentFailures(ctx context.Context, email string, window int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.Attempts {
		if a.Email == email && !a.Success {
			n++
		}
	}
	return n, nil
}

func (m *MockAuthRepository) CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.ID = uuid.NewString()
	m.Tokens[token.Token] = token
	return nil
}

func (m *MockAuthRepository) GetResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Tokens[token], nil
}

func (m *MockAuthRepository) ConsumeResetToken(ctx context.Context, tokenID, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Tokens {
		if t.ID == tokenID && !t.Used {
			t.Used = true
			m.Passwords[userID] = passwordHash
			return nil
		}
	}
	return repository.ErrNotFound
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	mu       sync.Mutex
	Articles map[string]*models.Article
}

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{Articles: make(map[string]*models.Article)}
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Article
	for _, a := range m.Articles {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.AuthorID != "" && a.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return page(out, filter.Page), len(out), nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Articles[id], nil
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Articles {
		if a.Slug == slug {
			return a, nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Articles {
		if a.Slug == article.Slug {
			return errUniqueViolation
		}
	}
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	m.Articles[article.ID] = article
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Articles[article.ID]; !ok {
		return repository.ErrNotFound
	}
	m.Articles[article.ID] = article
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Articles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Articles, id)
	return nil
}

func (m *MockArticleRepository) IncrementViews(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Articles[id]; ok {
		a.ViewsCount++
	}
	return nil
}

func (m *MockArticleRepository) RecentByAuthor(ctx context.Context, authorID string, limit int) ([]models.ArticleSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ArticleSummary
	for _, a := range m.Articles {
		if a.AuthorID == authorID && a.Status == models.StatusPublished && len(out) < limit {
			out = append(out, models.ArticleSummary{ID: a.ID, Title: a.Title, Slug: a.Slug})
		}
	}
	return out, nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	mu       sync.Mutex
	Comments map[string]*models.Comment
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{Comments: make(map[string]*models.Comment)}
}

func (m *MockCommentRepository) ListByArticle(ctx context.Context, articleID string, includeUnapproved bool) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Comment
	for _, c := range m.Comments {
		if c.ArticleID == articleID && (includeUnapproved || c.IsApproved) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MockCommentRepository) ListPending(ctx context.Context, p models.Page) ([]*models.Comment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Comment
	for _, c := range m.Comments {
		if !c.IsApproved {
			out = append(out, c)
		}
	}
	return page(out, p), len(out), nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Comments[id], nil
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	m.Comments[comment.ID] = comment
	return nil
}

func (m *MockCommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Content = content
	return nil
}

func (m *MockCommentRepository) Approve(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.IsApproved = true
	return nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Comments, id)
	return nil
}

// MockSettingRepository is a mock implementation of SettingRepository
type MockSettingRepository struct {
	mu       sync.Mutex
	Settings map[string]string
}

func NewMockSettingRepository() *MockSettingRepository {
	return &MockSettingRepository{Settings: make(map[string]string)}
}

func (m *MockSettingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Settings[key]
	return v, ok, nil
}

func (m *MockSettingRepository) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Settings[key] = value
	return nil
}

// MockNewsletterRepository is a mock implementation of NewsletterRepository
type MockNewsletterRepository struct {
	mu          sync.Mutex
	Subscribers map[string]*models.Subscriber // by email
}

func NewMockNewsletterRepository() *MockNewsletterRepository {
	return &MockNewsletterRepository{Subscribers: make(map[string]*models.Subscriber)}
}

func (m *MockNewsletterRepository) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Subscribers[email], nil
}

func (m *MockNewsletterRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Subscribers[sub.Email]; ok {
		return errUniqueViolation
	}
	sub.ID = uuid.NewString()
	sub.Status = models.SubscriberActive
	sub.SubscribedAt = time.Now()
	m.Subscribers[sub.Email] = sub
	return nil
}

func (m *MockNewsletterRepository) Reactivate(ctx context.Context, sub *models.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Subscribers[sub.Email]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Status = models.SubscriberActive
	existing.UnsubscribedAt = nil
	existing.SubscribedAt = time.Now()
	*sub = *existing
	return nil
}

func (m *MockNewsletterRepository) Unsubscribe(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.Subscribers[email]
	if !ok || sub.Status != models.SubscriberActive {
		return repository.ErrNotFound
	}
	now := time.Now()
	sub.Status = models.SubscriberUnsubscribed
	sub.UnsubscribedAt = &now
	return nil
}

func (m *MockNewsletterRepository) sorted(status string) []*models.Subscriber {
	var out []*models.Subscriber
	for _, s := range m.Subscribers {
		if status == "" || s.Status == status {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (m *MockNewsletterRepository) List(ctx context.Context, filter models.SubscriberFilter) ([]*models.Subscriber, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(filter.Status)
	return page(all, filter.Page), len(all), nil
}

func (m *MockNewsletterRepository) Stats(ctx context.Context) (*models.NewsletterStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.NewsletterStats{Total: len(m.Subscribers)}
	for _, s := range m.Subscribers {
		if s.Status == models.SubscriberActive {
			stats.Active++
		} else {
			stats.Unsubscribed++
		}
	}
	return stats, nil
}

func (m *MockNewsletterRepository) StreamAll(ctx context.Context, status string, callback func(*models.Subscriber) error) error {
	m.mu.Lock()
	all := m.sorted(status)
	m.mu.Unlock()
	for _, s := range all {
		if err := callback(s); err != nil {
			return err
		}
	}
	return nil
}

// MockContactRepository is a mock implementation of ContactRepository
type MockContactRepository struct {
	mu       sync.Mutex
	Messages map[string]*models.ContactMessage
	Replied  map[string][]models.ContactReply
}

func NewMockContactRepository() *MockContactRepository {
	return &MockContactRepository{
		Messages: make(map[string]*models.ContactMessage),
		Replied:  make(map[string][]models.ContactReply),
	}
}

func (m *MockContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt
	m.Messages[msg.ID] = msg
	return nil
}

func (m *MockContactRepository) GetByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Messages[id], nil
}

func (m *MockContactRepository) sorted() []*models.ContactMessage {
	out := make([]*models.ContactMessage, 0, len(m.Messages))
	for _, msg := range m.Messages {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MockContactRepository) List(ctx context.Context, filter models.ContactFilter) ([]*models.ContactMessage, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ContactMessage
	for _, msg := range m.sorted() {
		if filter.Status != "" && msg.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && msg.Priority != filter.Priority {
			continue
		}
		out = append(out, msg)
	}
	return page(out, filter.Page), len(out), nil
}

func (m *MockContactRepository) Stats(ctx context.Context) (*models.ContactStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.ContactStats{Total: len(m.Messages)}
	for _, msg := range m.Messages {
		switch msg.Status {
		case models.ContactNew:
			stats.New++
		case models.ContactRead:
			stats.Read++
		case models.ContactReplied:
			stats.Replied++
		case models.ContactArchived:
			stats.Archived++
		}
	}
	return stats, nil
}

func (m *MockContactRepository) Replies(ctx context.Context, messageID string) ([]models.ContactReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ContactReply{}, m.Replied[messageID]...), nil
}

func (m *MockContactRepository) AddReply(ctx context.Context, reply *models.ContactReply) (*models.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[reply.MessageID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	reply.ID = uuid.NewString()
	reply.CreatedAt = time.Now()
	m.Replied[reply.MessageID] = append(m.Replied[reply.MessageID], *reply)

	msg.Status = models.ContactReplied
	msg.IsRead = true
	msg.RepliedAt = &reply.CreatedAt
	msg.RepliedBy = reply.AdminID
	return msg, nil
}

func (m *MockContactRepository) MarkRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[id]
	if !ok {
		return repository.ErrNotFound
	}
	msg.IsRead = true
	if msg.Status == models.ContactNew {
		msg.Status = models.ContactRead
	}
	return nil
}

func (m *MockContactRepository) Update(ctx context.Context, id string, update *models.ContactUpdate) (*models.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Status != nil {
		msg.Status = *update.Status
	}
	if update.Priority != nil {
		msg.Priority = *update.Priority
	}
	if update.AssignedTo != nil {
		msg.AssignedTo = *update.AssignedTo
	}
	return msg, nil
}

func (m *MockContactRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Messages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Messages, id)
	delete(m.Replied, id)
	return nil
}

func (m *MockContactRepository) StreamAll(ctx context.Context, callback func(*models.ContactMessage) error) error {
	m.mu.Lock()
	all := m.sorted()
	m.mu.Unlock()
	for _, msg := range all {
		if err := callback(msg); err != nil {
			return err
		}
	}
	return nil
}

// MockAdminRepository is a mock implementation of AdminRepository
type MockAdminRepository struct {
	mu       sync.Mutex
	Activity []*models.ActivityLog
	Alerts   map[string]*models.AdminAlert
}

func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{Alerts: make(map[string]*models.AdminAlert)}
}

func (m *MockAdminRepository) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.Activity) + 1)
	entry.CreatedAt = time.Now()
	m.Activity = append(m.Activity, entry)
	return nil
}

// Actions returns the recorded "action resource_type" pairs in order
func (m *MockAdminRepository) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Activity))
	for i, a := range m.Activity {
		out[i] = a.Action + " " + a.ResourceType
	}
	return out
}

func (m *MockAdminRepository) ListActivity(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ActivityLog
	for i := len(m.Activity) - 1; i >= 0; i-- {
		a := m.Activity[i]
		if filter.Action != "" && a.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && a.ResourceType != filter.ResourceType {
			continue
		}
		out = append(out, a)
	}
	return page(out, filter.Page), len(out), nil
}

func (m *MockAdminRepository) GetActivity(ctx context.Context, id int64) (*models.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Activity {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (m *MockAdminRepository) ActivityStats(ctx context.Context) (*models.ActivityStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &models.ActivityStats{Total: len(m.Activity), LastDay: len(m.Activity)}, nil
}

func (m *MockAdminRepository) CreateAlert(ctx context.Context, alert *models.AdminAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert.ID = uuid.NewString()
	alert.CreatedAt = time.Now()
	m.Alerts[alert.ID] = alert
	return nil
}

func (m *MockAdminRepository) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.AdminAlert, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AdminAlert
	for _, a := range m.Alerts {
		if filter.Resolved != nil && a.IsResolved != *filter.Resolved {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		out = append(out, a)
	}
	return page(out, filter.Page), len(out), nil
}

func (m *MockAdminRepository) ResolveAlert(ctx context.Context, id, resolvedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Alerts[id]
	if !ok || a.IsResolved {
		return repository.ErrNotFound
	}
	now := time.Now()
	a.IsResolved = true
	a.ResolvedBy = resolvedBy
	a.ResolvedAt = &now
	return nil
}

// MockEmailRepository is a mock implementation of EmailRepository
type MockEmailRepository struct {
	mu     sync.Mutex
	Emails []*models.Email
}

func NewMockEmailRepository() *MockEmailRepository {
	return &MockEmailRepository{}
}

func (m *MockEmailRepository) Create(ctx context.Context, email *models.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email.ID = uuid.NewString()
	email.CreatedAt = time.Now()
	email.UpdatedAt = email.CreatedAt
	m.Emails = append(m.Emails, email)
	return nil
}

// ByType returns the queued emails of one template
func (m *MockEmailRepository) ByType(emailType string) []*models.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Email
	for _, e := range m.Emails {
		if e.Type == emailType {
			out = append(out, e)
		}
	}
	return out
}

// Status returns the current status of an email
func (m *MockEmailRepository) Status(id string) models.EmailStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Emails {
		if e.ID == id {
			return e.Status
		}
	}
	return ""
}

func claimable(e *models.Email, staleBefore time.Time) bool {
	return e.Status == models.EmailPending ||
		(e.Status == models.EmailSending && e.UpdatedAt.Before(staleBefore))
}

func (m *MockEmailRepository) GetPending(ctx context.Context, limit int, staleBefore time.Time) ([]*models.Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Email
	for _, e := range m.Emails {
		if claimable(e, staleBefore) && len(out) < limit {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockEmailRepository) find(id string) *models.Email {
	for _, e := range m.Emails {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (m *MockEmailRepository) MarkSending(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.find(id)
	if e == nil || !claimable(e, staleBefore) {
		return false, nil
	}
	e.Status = models.EmailSending
	e.UpdatedAt = time.Now()
	e.Attempts++
	return true, nil
}

func (m *MockEmailRepository) MarkSent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.find(id)
	if e == nil {
		return repository.ErrNotFound
	}
	now := time.Now()
	e.Status = models.EmailSent
	e.SentAt = &now
	e.UpdatedAt = now
	return nil
}

func (m *MockEmailRepository) MarkFailed(ctx context.Context, id string, cause string, retry bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.find(id)
	if e == nil {
		return repository.ErrNotFound
	}
	e.Error = cause
	e.Status = models.EmailFailed
	e.UpdatedAt = time.Now()
	if retry {
		e.Status = models.EmailPending
	}
	return nil
}
