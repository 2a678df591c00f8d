package mocks

import (
	"time"

	"github.com/agency-cms-api/internal/auth"
	"github.com/agency-cms-api/internal/config"
	"github.com/agency-cms-api/internal/mailer"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/service"
	"github.com/agency-cms-api/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Fixture wires the real services to in-memory repositories and fake infrastructure
type Fixture struct {
	Users         *MockUserRepository
	Auth          *MockAuthRepository
	Articles      *MockArticleRepository
	Rubriques     *MockRubriqueRepository
	Comments      *MockCommentRepository
	Blog          *MockBlogRepository
	Offers        *MockOfferRepository
	Testimonials  *MockTestimonialRepository
	Settings      *MockSettingRepository
	Newsletter    *MockNewsletterRepository
	Contacts      *MockContactRepository
	Payments      *MockPaymentRepository
	Webhooks      *MockWebhookRepository
	Notifications *MockNotificationRepository
	Admin         *MockAdminRepository
	Emails        *MockEmailRepository
	Portfolio     *MockPortfolioRepository
	ProjectFiles  *MockProjectFileRepository

	Processor *MockProcessor
	Sender    *MockSender
	Store     *MockStore

	Config *config.Config
	Infra  service.Infra
}

// TestConfig returns a development configuration with fast password hashing
func TestConfig() *config.Config {
	return &config.Config{
		Env: "development",
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret",
			JWTIssuer:         "agency-cms-api",
			TokenTTL:          time.Hour,
			BcryptCost:        bcrypt.MinCost,
			MaxLoginAttempts:  3,
			LockoutWindow:     15 * time.Minute,
			ResetTokenTTL:     time.Hour,
			MinPasswordLength: 6,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Payment: config.PaymentConfig{
			SecretKey:     "sk_test_fixture",
			WebhookSecret: "whsec_fixture",
			FrontendURL:   "http://localhost:3000",
			Currency:      "eur",
		},
		Mail: config.MailConfig{
			From:         "no-reply@agency.test",
			FromName:     "Agency",
			NotifyEmail:  "team@agency.test",
			Workers:      2,
			PollInterval: 10 * time.Millisecond,
			BatchSize:    10,
			MaxAttempts:  2,
		},
		Upload: config.UploadConfig{
			MaxImageSize:   1 << 20,
			MaxFileSize:    4 << 20,
			MaxFiles:       3,
			RatePerMinute:  600,
			AdminRateBurst: 50,
		},
	}
}

// NewFixture creates an empty fixture with the test configuration
func NewFixture() *Fixture {
	payments := NewMockPaymentRepository()
	articles := NewMockArticleRepository()
	f := &Fixture{
		Users:         NewMockUserRepository(),
		Auth:          NewMockAuthRepository(),
		Articles:      articles,
		Rubriques:     NewMockRubriqueRepository(articles),
		Comments:      NewMockCommentRepository(),
		Blog:          NewMockBlogRepository(),
		Offers:        NewMockOfferRepository(),
		Testimonials:  NewMockTestimonialRepository(),
		Settings:      NewMockSettingRepository(),
		Newsletter:    NewMockNewsletterRepository(),
		Contacts:      NewMockContactRepository(),
		Payments:      payments,
		Webhooks:      NewMockWebhookRepository(payments),
		Notifications: NewMockNotificationRepository(payments),
		Admin:         NewMockAdminRepository(),
		Emails:        NewMockEmailRepository(),
		Portfolio:     NewMockPortfolioRepository(),
		ProjectFiles:  NewMockProjectFileRepository(),
		Processor:     NewMockProcessor(),
		Sender:        NewMockSender(),
		Store:         NewMockStore(),
		Config:        TestConfig(),
	}

	templates, err := mailer.LoadTemplates("Agency", f.Config.Payment.FrontendURL)
	if err != nil {
		panic(err)
	}
	f.Infra = service.Infra{
		Tokens:    auth.NewTokenManager(f.Config.Auth),
		Passwords: auth.NewPasswordHasher(f.Config.Auth.BcryptCost, f.Config.Auth.MinPasswordLength),
		Sanitizer: validation.NewSanitizer(),
		Media:     f.Store,
		Payments:  f.Processor,
		Sender:    f.Sender,
		Templates: templates,
	}
	return f
}

// Repositories returns the repository set backed by the fixture's mocks
func (f *Fixture) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:         f.Users,
		Auth:         f.Auth,
		Article:      f.Articles,
		Rubrique:     f.Rubriques,
		Comment:      f.Comments,
		Blog:         f.Blog,
		Offer:        f.Offers,
		Testimonial:  f.Testimonials,
		Notification: f.Notifications,
		Setting:      f.Settings,
		Newsletter:   f.Newsletter,
		Contact:      f.Contacts,
		Payment:      f.Payments,
		Webhook:      f.Webhooks,
		Admin:        f.Admin,
		Email:        f.Emails,
		Portfolio:    f.Portfolio,
		ProjectFile:  f.ProjectFiles,
	}
}

// Services builds the real service layer on top of the fixture
func (f *Fixture) Services() *service.Services {
	return service.NewServices(f.Repositories(), f.Infra, f.Config, zerolog.Nop())
}
