package repository

import (
	"context"
	"time"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, update *models.ProfileUpdate) (*models.User, error)
	UpdateTeam(ctx context.Context, id string, update *models.TeamUpdate) (*models.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	ListTeam(ctx context.Context) ([]models.TeamMember, error)
	Count(ctx context.Context) (int, error)
}

// AuthRepository defines login auditing and password reset storage
type AuthRepository interface {
	RecordLoginAttempt(ctx context.Context, attempt *models.LoginAttempt) error
	CountRecentFailures(ctx context.Context, email string, window int) (int, error)
	CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error
	GetResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	// ConsumeResetToken marks the token used and sets the new password hash atomically
	ConsumeResetToken(ctx context.Context, tokenID, userID, passwordHash string) error
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error)
	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	RecentByAuthor(ctx context.Context, authorID string, limit int) ([]models.ArticleSummary, error)
}

// RubriqueRepository defines the interface for rubrique data operations
type RubriqueRepository interface {
	List(ctx context.Context) ([]*models.Rubrique, error)
	GetByID(ctx context.Context, id string) (*models.Rubrique, error)
	GetBySlug(ctx context.Context, slug string) (*models.Rubrique, error)
	Create(ctx context.Context, rubrique *models.Rubrique) error
	Update(ctx context.Context, rubrique *models.Rubrique) error
	Delete(ctx context.Context, id string) error
	CountArticles(ctx context.Context, id string) (int, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	ListByArticle(ctx context.Context, articleID string, includeUnapproved bool) ([]*models.Comment, error)
	ListPending(ctx context.Context, page models.Page) ([]*models.Comment, int, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	UpdateContent(ctx context.Context, id, content string) error
	Approve(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SettingRepository stores runtime key/value settings
type SettingRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// BlogRepository defines the interface for blog post data operations
type BlogRepository interface {
	List(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, int, error)
	GetByID(ctx context.Context, id string) (*models.BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	Create(ctx context.Context, post *models.BlogPost) error
	Update(ctx context.Context, post *models.BlogPost) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]models.NamedCount, error)
	Tags(ctx context.Context) ([]models.NamedCount, error)
	Stats(ctx context.Context) (*models.BlogStats, error)
}

// OfferRepository defines the interface for offer data operations
type OfferRepository interface {
	List(ctx context.Context, filter models.OfferFilter) ([]*models.Offer, int, error)
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	GetBySlug(ctx context.Context, slug string) (*models.Offer, error)
	Create(ctx context.Context, offer *models.Offer) error
	Update(ctx context.Context, offer *models.Offer) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.OfferStats, error)
}

// TestimonialRepository defines the interface for testimonial data operations
type TestimonialRepository interface {
	List(ctx context.Context, filter models.TestimonialFilter) ([]*models.Testimonial, int, error)
	GetByID(ctx context.Context, id string) (*models.Testimonial, error)
	Create(ctx context.Context, t *models.Testimonial) error
	Update(ctx context.Context, t *models.Testimonial) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.TestimonialStats, error)
}

// PortfolioRepository defines the interface for portfolio image records
type PortfolioRepository interface {
	List(ctx context.Context, filter models.PortfolioFilter) ([]*models.PortfolioImage, int, error)
	// CreateBatch inserts the images after the current last position, all or none
	CreateBatch(ctx context.Context, images []*models.PortfolioImage) error
	Update(ctx context.Context, id string, u *models.PortfolioImageUpdate) (*models.PortfolioImage, error)
	// Reorder sets display_order to each id's index. Unknown ids fail the whole call.
	Reorder(ctx context.Context, ids []string) error
	// Delete removes the row and returns it so the asset can be cleaned up
	Delete(ctx context.Context, id string) (*models.PortfolioImage, error)
}

// ProjectFileRepository defines the interface for files attached to client projects
type ProjectFileRepository interface {
	ListByProject(ctx context.Context, projectID string) ([]*models.ProjectFile, error)
	Get(ctx context.Context, projectID, fileID string) (*models.ProjectFile, error)
	CreateBatch(ctx context.Context, files []*models.ProjectFile) error
	Update(ctx context.Context, projectID, fileID string, u *models.ProjectFileUpdate) (*models.ProjectFile, error)
	Delete(ctx context.Context, projectID, fileID string) (*models.ProjectFile, error)
}

// NewsletterRepository defines the interface for subscriber data operations
type NewsletterRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	Create(ctx context.Context, sub *models.Subscriber) error
	Reactivate(ctx context.Context, sub *models.Subscriber) error
	Unsubscribe(ctx context.Context, email string) error
	List(ctx context.Context, filter models.SubscriberFilter) ([]*models.Subscriber, int, error)
	Stats(ctx context.Context) (*models.NewsletterStats, error)
	StreamAll(ctx context.Context, status string, callback func(*models.Subscriber) error) error
}

// ContactRepository defines the interface for contact message data operations
type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	GetByID(ctx context.Context, id string) (*models.ContactMessage, error)
	List(ctx context.Context, filter models.ContactFilter) ([]*models.ContactMessage, int, error)
	Stats(ctx context.Context) (*models.ContactStats, error)
	Replies(ctx context.Context, messageID string) ([]models.ContactReply, error)
	// AddReply inserts the reply and marks the message replied atomically
	AddReply(ctx context.Context, reply *models.ContactReply) (*models.ContactMessage, error)
	MarkRead(ctx context.Context, id string) error
	Update(ctx context.Context, id string, update *models.ContactUpdate) (*models.ContactMessage, error)
	Delete(ctx context.Context, id string) error
	StreamAll(ctx context.Context, callback func(*models.ContactMessage) error) error
}

// PaymentRepository defines the interface for payment log data operations
type PaymentRepository interface {
	Create(ctx context.Context, p *models.PaymentLog) error
	GetByID(ctx context.Context, id string) (*models.PaymentLog, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]*models.PaymentLog, int, error)
	Stats(ctx context.Context) (*models.PaymentStats, error)
	MarkRefunded(ctx context.Context, id, refundID string, amount int64, refundedBy string) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	StreamAll(ctx context.Context, callback func(*models.PaymentLog) error) error
}

// NotificationRepository defines the interface for user notification data operations
type NotificationRepository interface {
	ListByUser(ctx context.Context, userID string, unreadOnly bool, page models.Page) ([]*models.Notification, int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// AdminRepository defines the interface for activity logs and admin alerts
type AdminRepository interface {
	LogActivity(ctx context.Context, entry *models.ActivityLog) error
	ListActivity(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityLog, int, error)
	GetActivity(ctx context.Context, id int64) (*models.ActivityLog, error)
	ActivityStats(ctx context.Context) (*models.ActivityStats, error)
	CreateAlert(ctx context.Context, alert *models.AdminAlert) error
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.AdminAlert, int, error)
	ResolveAlert(ctx context.Context, id, resolvedBy string) error
}

// EmailRepository defines the outbound email queue
type EmailRepository interface {
	Create(ctx context.Context, email *models.Email) error
	// GetPending also returns emails stuck in sending since before staleBefore
	GetPending(ctx context.Context, limit int, staleBefore time.Time) ([]*models.Email, error)
	MarkSending(ctx context.Context, id string, staleBefore time.Time) (bool, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause string, retry bool) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	User         UserRepository
	Auth         AuthRepository
	Article      ArticleRepository
	Rubrique     RubriqueRepository
	Comment      CommentRepository
	Setting      SettingRepository
	Blog         BlogRepository
	Offer        OfferRepository
	Testimonial  TestimonialRepository
	Portfolio    PortfolioRepository
	ProjectFile  ProjectFileRepository
	Newsletter   NewsletterRepository
	Contact      ContactRepository
	Payment      PaymentRepository
	Webhook      WebhookRepository
	Notification NotificationRepository
	Admin        AdminRepository
	Email        EmailRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepo(db),
		Auth:         NewAuthRepo(db),
		Article:      NewArticleRepo(db),
		Rubrique:     NewRubriqueRepo(db),
		Comment:      NewCommentRepo(db),
		Setting:      NewSettingRepo(db),
		Blog:         NewBlogRepo(db),
		Offer:        NewOfferRepo(db),
		Testimonial:  NewTestimonialRepo(db),
		Portfolio:    NewPortfolioRepo(db),
		ProjectFile:  NewProjectFileRepo(db),
		Newsletter:   NewNewsletterRepo(db),
		Contact:      NewContactRepo(db),
		Payment:      NewPaymentRepo(db),
		Webhook:      NewWebhookRepo(db),
		Notification: NewNotificationRepo(db),
		Admin:        NewAdminRepo(db),
		Email:        NewEmailRepo(db),
	}
}
