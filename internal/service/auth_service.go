package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/agency-cms-api/internal/auth"
	"github.com/agency-cms-api/internal/config"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var usernameUnsafe = regexp.MustCompile(`[^a-z0-9]`)

// authService is the concrete implementation of AuthService
type authService struct {
	users       repository.UserRepository
	authRepo    repository.AuthRepository
	tokens      *auth.TokenManager
	passwords   *auth.PasswordHasher
	mail        MailService
	cfg         config.AuthConfig
	frontendURL string
	log         zerolog.Logger
}

func newAuthService(repos *repository.Repositories, tokens *auth.TokenManager, passwords *auth.PasswordHasher, mail MailService, cfg *config.Config, log zerolog.Logger) *authService {
	return &authService{
		users:       repos.User,
		authRepo:    repos.Auth,
		tokens:      tokens,
		passwords:   passwords,
		mail:        mail,
		cfg:         cfg.Auth,
		frontendURL: strings.TrimRight(cfg.Payment.FrontendURL, "/"),
		log:         log.With().Str("service", "auth").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	user, err := s.createUser(ctx, req, models.RoleMember)
	if err != nil {
		return nil, err
	}

	s.mail.Enqueue(ctx, newEmail(models.EmailWelcome, user.Email, user.FullName(), map[string]any{
		"firstname": user.Firstname,
	}))

	s.log.Info().Str("user_id", user.ID).Msg("User registered")
	return s.respond(user)
}

// CreateAdmin creates an active administrator account without sending email
func (s *authService) CreateAdmin(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	user, err := s.createUser(ctx, req, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("Administrator created")
	return user, nil
}

func (s *authService) createUser(ctx context.Context, req *models.RegisterRequest, role string) (*models.User, error) {
	email := validation.NormalizeEmail(req.Email)
	if !validation.IsValidEmail(email) {
		return nil, newError(ErrBadRequest, "invalid email address")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, newError(ErrConflict, "email already in use")
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, newError(ErrBadRequest, "password must be at least %d characters", s.cfg.MinPasswordLength)
		}
		return nil, err
	}

	username, err := s.uniqueUsername(ctx, email)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Firstname:    strings.TrimSpace(req.Firstname),
		Lastname:     strings.TrimSpace(req.Lastname),
		Role:         role,
		IsActive:     true,
		Phone:        strings.TrimSpace(req.Phone),
		CompanyName:  strings.TrimSpace(req.CompanyName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// baseUsername derives a username from the local part of an email
func baseUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	base := usernameUnsafe.ReplaceAllString(strings.ToLower(local), "_")
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" {
		base = "user"
	}
	return base
}

func (s *authService) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := baseUsername(email)
	candidate := base
	for i := 0; i < 100; i++ {
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	}
	return "", newError(ErrConflict, "could not allocate a username")
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest, meta RequestMeta) (*models.AuthResponse, error) {
	email := validation.NormalizeEmail(req.Email)

	failures, err := s.authRepo.CountRecentFailures(ctx, email, int(s.cfg.LockoutWindow.Seconds()))
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxLoginAttempts > 0 && failures >= s.cfg.MaxLoginAttempts {
		return nil, newError(ErrAccountLocked, "account temporarily locked, try again in %d minutes",
			int(s.cfg.LockoutWindow.Minutes()))
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.recordAttempt(ctx, email, meta, false)
		return nil, newError(ErrInvalidCredentials, "invalid email or password")
	}
	if !user.IsActive {
		return nil, newError(ErrAccountDisabled, "account disabled")
	}
	if !s.passwords.Compare(user.PasswordHash, req.Password) {
		s.recordAttempt(ctx, email, meta, false)
		return nil, newError(ErrInvalidCredentials, "invalid email or password")
	}

	s.recordAttempt(ctx, email, meta, true)
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to update last login")
	}

	s.log.Info().Str("user_id", user.ID).Msg("User logged in")
	return s.respond(user)
}

func (s *authService) recordAttempt(ctx context.Context, email string, meta RequestMeta, success bool) {
	err := s.authRepo.RecordLoginAttempt(ctx, &models.LoginAttempt{
		Email:     email,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Success:   success,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to record login attempt")
	}
}

func (s *authService) respond(user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user")
	}
	return user, nil
}

func (s *authService) Authorize(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newError(ErrUnauthorized, "account no longer exists")
	}
	if !user.IsActive {
		return nil, newError(ErrAccountDisabled, "account disabled")
	}
	return user, nil
}

func (s *authService) Refresh(ctx context.Context, userID string) (*models.AuthResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, notFound("user")
	}
	return s.respond(user)
}

// ForgotPassword never reveals whether the address exists
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		return nil
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	ttl := s.cfg.ResetTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	reset := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.authRepo.CreateResetToken(ctx, reset); err != nil {
		return err
	}

	s.mail.Enqueue(ctx, newEmail(models.EmailPasswordReset, user.Email, user.FullName(), map[string]any{
		"firstname":  user.Firstname,
		"reset_link": s.frontendURL + "/reset-password?token=" + token,
		"expires_in": humanDuration(ttl),
	}))
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	reset, err := s.authRepo.GetResetToken(ctx, req.Token)
	if err != nil {
		return err
	}
	if reset == nil || reset.Used || time.Now().After(reset.ExpiresAt) {
		return newError(ErrInvalidToken, "invalid or expired reset token")
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return newError(ErrBadRequest, "password must be at least %d characters", s.cfg.MinPasswordLength)
		}
		return err
	}

	if err := s.authRepo.ConsumeResetToken(ctx, reset.ID, reset.UserID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrInvalidToken, "invalid or expired reset token")
		}
		return err
	}

	s.log.Info().Str("user_id", reset.UserID).Msg("Password reset")
	return nil
}

// randomToken returns 32 random bytes hex encoded
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 heure"
		}
		return fmt.Sprintf("%d heures", h)
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
