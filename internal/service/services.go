package service

import (
	"context"
	"io"
	"net/http"

	"github.com/agency-cms-api/internal/auth"
	"github.com/agency-cms-api/internal/config"
	"github.com/agency-cms-api/internal/mailer"
	"github.com/agency-cms-api/internal/media"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/payment"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID string
	Email  string
	Role   string
}

// Is reports whether the actor holds one of the given roles
func (a Actor) Is(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the actor may moderate content
func (a Actor) IsStaff() bool {
	return a.Is(models.RoleEditor, models.RoleAdmin)
}

// RequestMeta carries client details recorded with public submissions
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuthService defines account and session operations
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest, meta RequestMeta) (*models.AuthResponse, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	Refresh(ctx context.Context, userID string) (*models.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
	CreateAdmin(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	// Authorize reloads the account behind a token and rejects it when it no longer exists or is disabled
	Authorize(ctx context.Context, userID string) (*models.User, error)
}

// ArticleService defines article and rubrique operations
type ArticleService interface {
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error)
	ListMine(ctx context.Context, actor Actor, page models.Page) ([]*models.Article, int, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	Create(ctx context.Context, actor Actor, in *models.ArticleInput) (*models.Article, error)
	Update(ctx context.Context, actor Actor, id string, in *models.ArticleInput) (*models.Article, error)
	Delete(ctx context.Context, actor Actor, id string) error

	ListRubriques(ctx context.Context) ([]*models.Rubrique, error)
	GetRubrique(ctx context.Context, slug string) (*models.Rubrique, error)
	CreateRubrique(ctx context.Context, actor Actor, in *models.RubriqueInput) (*models.Rubrique, error)
	UpdateRubrique(ctx context.Context, actor Actor, id string, in *models.RubriqueInput) (*models.Rubrique, error)
	DeleteRubrique(ctx context.Context, actor Actor, id string) error
}

// CommentService defines comment and moderation operations
type CommentService interface {
	ListByArticle(ctx context.Context, articleID string, viewer *Actor) ([]*models.Comment, error)
	Create(ctx context.Context, articleID string, viewer *Actor, in *models.CommentInput) (*models.Comment, error)
	Update(ctx context.Context, actor Actor, id, content string) error
	Delete(ctx context.Context, actor Actor, id string) error
	Approve(ctx context.Context, actor Actor, id string) error
	ListPending(ctx context.Context, page models.Page) ([]*models.Comment, int, error)
	SetModeration(ctx context.Context, actor Actor, enabled bool) error
}

// BlogService defines blog post operations
type BlogService interface {
	List(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, int, error)
	ListAll(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, int, error)
	GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	Categories(ctx context.Context) ([]models.NamedCount, error)
	Tags(ctx context.Context) ([]models.NamedCount, error)
	Stats(ctx context.Context) (*models.BlogStats, error)
	Create(ctx context.Context, actor Actor, in *models.BlogPostInput) (*models.BlogPost, error)
	Update(ctx context.Context, actor Actor, id string, in *models.BlogPostInput) (*models.BlogPost, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

// OfferService defines service offer operations
type OfferService interface {
	List(ctx context.Context, filter models.OfferFilter) ([]*models.Offer, int, error)
	GetBySlug(ctx context.Context, slug string) (*models.Offer, error)
	Stats(ctx context.Context) (*models.OfferStats, error)
	Create(ctx context.Context, actor Actor, in *models.OfferInput) (*models.Offer, error)
	Update(ctx context.Context, actor Actor, id string, in *models.OfferInput) (*models.Offer, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

// TestimonialService defines testimonial operations
type TestimonialService interface {
	List(ctx context.Context, filter models.TestimonialFilter) ([]*models.Testimonial, int, error)
	Get(ctx context.Context, id string) (*models.Testimonial, error)
	Create(ctx context.Context, actor Actor, in *models.TestimonialInput) (*models.Testimonial, error)
	Update(ctx context.Context, actor Actor, id string, in *models.TestimonialUpdate) (*models.Testimonial, error)
	Approve(ctx context.Context, actor Actor, id string) (*models.Testimonial, error)
	Delete(ctx context.Context, actor Actor, id string) error
	Stats(ctx context.Context) (*models.TestimonialStats, error)
}

// TeamService defines team and profile operations
type TeamService interface {
	List(ctx context.Context) ([]models.TeamMember, error)
	GetByUsername(ctx context.Context, username string) (*models.TeamMemberProfile, error)
	UpdateProfile(ctx context.Context, actor Actor, in *models.ProfileUpdate) (*models.User, error)
	UpdateMember(ctx context.Context, actor Actor, id string, in *models.TeamUpdate) (*models.User, error)
}

// NewsletterService defines subscription operations
type NewsletterService interface {
	Subscribe(ctx context.Context, req *models.SubscribeRequest, meta RequestMeta) (sub *models.Subscriber, created bool, err error)
	Unsubscribe(ctx context.Context, email string) error
	List(ctx context.Context, filter models.SubscriberFilter) ([]*models.Subscriber, int, error)
	Stats(ctx context.Context) (*models.NewsletterStats, error)
}

// ContactService defines the contact inbox
type ContactService interface {
	Submit(ctx context.Context, req *models.ContactRequest, meta RequestMeta) (*models.ContactMessage, error)
	List(ctx context.Context, filter models.ContactFilter) ([]*models.ContactMessage, int, error)
	Stats(ctx context.Context) (*models.ContactStats, error)
	Thread(ctx context.Context, id string) (*models.ContactThread, error)
	Reply(ctx context.Context, actor Actor, id string, req *models.ContactReplyRequest) (*models.ContactThread, error)
	Update(ctx context.Context, actor Actor, id string, u *models.ContactUpdate) (*models.ContactMessage, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

// MailService queues outbound emails and runs the delivery dispatcher
type MailService interface {
	// Enqueue stores an email for delivery. Failures are logged, never returned.
	Enqueue(ctx context.Context, email *models.Email)
	StartDispatcher(ctx context.Context)
	StopDispatcher()
}

// UploadFile is one file of a multipart upload
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadResult is the public view of an uploaded asset
type UploadResult struct {
	PublicID string            `json:"public_id"`
	URL      string            `json:"url"`
	Variants map[string]string `json:"urls,omitempty"`
	Format   string            `json:"format,omitempty"`
	Bytes    int               `json:"bytes"`
	Width    int               `json:"width,omitempty"`
	Height   int               `json:"height,omitempty"`
}

// MediaService defines CDN-backed uploads
type MediaService interface {
	UploadImage(ctx context.Context, folder media.Folder, file UploadFile) (*UploadResult, error)
	UploadAvatar(ctx context.Context, actor Actor, file UploadFile) (*UploadResult, error)
	UploadTeamPhoto(ctx context.Context, actor Actor, file UploadFile) (*UploadResult, error)
	UploadGallery(ctx context.Context, files []UploadFile) ([]*UploadResult, error)
	UploadFile(ctx context.Context, file UploadFile) (*UploadResult, error)
	Search(ctx context.Context, opts media.SearchOptions) (*media.SearchResult, error)
	Delete(ctx context.Context, actor Actor, publicID, resourceType string) error
}

// PortfolioService defines the showcase image gallery
type PortfolioService interface {
	List(ctx context.Context, filter models.PortfolioFilter) ([]*models.PortfolioImage, int, error)
	Upload(ctx context.Context, actor Actor, meta models.PortfolioImageMeta, files []UploadFile) ([]*models.PortfolioImage, error)
	Update(ctx context.Context, actor Actor, id string, u *models.PortfolioImageUpdate) (*models.PortfolioImage, error)
	Reorder(ctx context.Context, actor Actor, ids []string) error
	Delete(ctx context.Context, actor Actor, id string) error
}

// ProjectFileService defines the files shared on a client project
type ProjectFileService interface {
	List(ctx context.Context, actor Actor, projectID string) ([]*models.ProjectFile, error)
	Get(ctx context.Context, actor Actor, projectID, fileID string) (*models.ProjectFile, error)
	Download(ctx context.Context, actor Actor, projectID, fileID string) (*models.FileDownload, error)
	Upload(ctx context.Context, actor Actor, projectID, description string, files []UploadFile) ([]*models.ProjectFile, error)
	Update(ctx context.Context, actor Actor, projectID, fileID string, u *models.ProjectFileUpdate) (*models.ProjectFile, error)
	Delete(ctx context.Context, actor Actor, projectID, fileID string) error
}

// PaymentService defines locally initiated payment operations
type PaymentService interface {
	CreateIntent(ctx context.Context, actor Actor, req *models.PaymentIntentRequest) (*payment.Intent, *models.PaymentLog, error)
	CreateCheckout(ctx context.Context, actor Actor, req *models.CheckoutRequest) (*payment.CheckoutSession, error)
	CreateCustomer(ctx context.Context, actor Actor, req *models.CustomerRequest) (*payment.Customer, error)
	CreateInvoice(ctx context.Context, actor Actor, req *models.InvoiceRequest) (*payment.Invoice, *models.PaymentLog, error)
	Refund(ctx context.Context, actor Actor, id string, req *models.RefundRequest) (*payment.Refund, error)
	ListMine(ctx context.Context, actor Actor, filter models.PaymentFilter) ([]*models.PaymentLog, int, error)
	GetMine(ctx context.Context, actor Actor, id string) (*models.PaymentLog, error)
	ListAll(ctx context.Context, filter models.PaymentFilter) ([]*models.PaymentLog, int, error)
	Stats(ctx context.Context) (*models.PaymentStats, error)
}

// WebhookOutcome reports what happened to a delivered event
type WebhookOutcome string

const (
	WebhookApplied   WebhookOutcome = "applied"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookIgnored   WebhookOutcome = "ignored"
)

// WebhookService verifies and applies processor events
type WebhookService interface {
	Handle(ctx context.Context, payload []byte, signature string) (*payment.Event, WebhookOutcome, error)
}

// ExportService defines the streaming exports
type ExportService interface {
	StreamSubscribers(ctx context.Context, w http.ResponseWriter, format, status string) error
	StreamContacts(ctx context.Context, w http.ResponseWriter, format string) error
	StreamPayments(ctx context.Context, w http.ResponseWriter, format string) error
}

// AdminService defines audit logs, alerts and user notifications
type AdminService interface {
	ListActivity(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityLog, int, error)
	GetActivity(ctx context.Context, id int64) (*models.ActivityLog, error)
	ActivityStats(ctx context.Context) (*models.ActivityStats, error)
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.AdminAlert, int, error)
	CreateAlert(ctx context.Context, actor Actor, req *models.AlertRequest) (*models.AdminAlert, error)
	ResolveAlert(ctx context.Context, actor Actor, id string) error
	ListNotifications(ctx context.Context, actor Actor, unreadOnly bool, page models.Page) ([]*models.Notification, int, error)
	MarkNotificationRead(ctx context.Context, actor Actor, id string) error
	MarkAllNotificationsRead(ctx context.Context, actor Actor) (int, error)
}

// Infra holds the external collaborators services depend on
type Infra struct {
	Tokens    *auth.TokenManager
	Passwords *auth.PasswordHasher
	Sanitizer *validation.Sanitizer
	Media     media.Store
	Payments  payment.Processor
	Sender    mailer.Sender
	Templates *mailer.Templates
}

// Services holds all service interfaces
type Services struct {
	Auth        AuthService
	Article     ArticleService
	Comment     CommentService
	Blog        BlogService
	Offer       OfferService
	Testimonial TestimonialService
	Team        TeamService
	Newsletter  NewsletterService
	Contact     ContactService
	Mail        MailService
	Media       MediaService
	Portfolio   PortfolioService
	Files       ProjectFileService
	Payment     PaymentService
	Webhook     WebhookService
	Export      ExportService
	Admin       AdminService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, infra Infra, cfg *config.Config, log zerolog.Logger) *Services {
	mail := newMailService(repos.Email, infra.Sender, infra.Templates, cfg.Mail, log)
	audit := newAuditor(repos.Admin, log)
	uploads := newMediaService(repos.User, infra.Media, cfg.Upload, audit, log)

	return &Services{
		Auth:        newAuthService(repos, infra.Tokens, infra.Passwords, mail, cfg, log),
		Article:     newArticleService(repos, infra.Sanitizer, audit, log),
		Comment:     newCommentService(repos, infra.Sanitizer, audit, log),
		Blog:        newBlogService(repos.Blog, infra.Sanitizer, audit, log),
		Offer:       newOfferService(repos.Offer, audit, log),
		Testimonial: newTestimonialService(repos, infra.Sanitizer, audit, log),
		Team:        newTeamService(repos, audit, log),
		Newsletter:  newNewsletterService(repos.Newsletter, mail, log),
		Contact:     newContactService(repos, infra.Sanitizer, mail, audit, cfg.Mail.NotifyEmail, log),
		Mail:        mail,
		Media:       uploads,
		Portfolio:   newPortfolioService(repos, uploads, infra.Sanitizer, audit, log),
		Files:       newProjectFileService(repos, uploads, infra.Sanitizer, audit, log),
		Payment:     newPaymentService(repos, infra.Payments, cfg.Payment, audit, log),
		Webhook:     newWebhookService(repos, infra.Payments, mail, log),
		Export:      newExportService(repos, log),
		Admin:       newAdminService(repos, audit, log),
	}
}
