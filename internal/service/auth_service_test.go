package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, svc *service.Services, email string) *models.AuthResponse {
	t.Helper()
	resp, err := svc.Auth.Register(context.Background(), &models.RegisterRequest{
		Email:     email,
		Password:  "s3cret-pass",
		Firstname: "Jo",
		Lastname:  "Doe",
	})
	require.NoError(t, err)
	return resp
}

func TestAuth_Register(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()

	resp := register(t, svc, "  Jo.Doe@Example.com ")
	assert.NotEmpty(t, resp.Token)
	assert.False(t, resp.ExpiresAt.IsZero())
	assert.Equal(t, "jo.doe@example.com", resp.User.Email)
	assert.Equal(t, "jo_doe", resp.User.Username)
	assert.Equal(t, models.RoleMember, resp.User.Role)
	assert.True(t, resp.User.IsActive)
	assert.NotEqual(t, "s3cret-pass", resp.User.PasswordHash)

	welcome := f.Emails.ByType(models.EmailWelcome)
	require.Len(t, welcome, 1)
	assert.Equal(t, "jo.doe@example.com", welcome[0].RecipientEmail)
}

func TestAuth_RegisterRejects(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	register(t, svc, "jo@example.com")

	tests := []struct {
		name string
		req  models.RegisterRequest
		kind error
	}{
		{"duplicate email", models.RegisterRequest{Email: "JO@example.com", Password: "s3cret-pass", Firstname: "A", Lastname: "B"}, service.ErrConflict},
		{"short password", models.RegisterRequest{Email: "new@example.com", Password: "abc", Firstname: "A", Lastname: "B"}, service.ErrBadRequest},
		{"invalid email", models.RegisterRequest{Email: "not-an-email", Password: "s3cret-pass", Firstname: "A", Lastname: "B"}, service.ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Auth.Register(context.Background(), &tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
	assert.Len(t, f.Emails.ByType(models.EmailWelcome), 1)
}

func TestAuth_UsernameCollision(t *testing.T) {
	f := mocks.NewFixture()
	f.Users.Add(&models.User{Email: "other@example.com", Username: "jo", IsActive: true})
	svc := f.Services()

	resp := register(t, svc, "jo@example.com")
	assert.True(t, strings.HasPrefix(resp.User.Username, "jo_"))
	assert.Len(t, resp.User.Username, len("jo_")+6)
}

func TestAuth_LoginAndLockout(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	register(t, svc, "jo@example.com")
	meta := service.RequestMeta{IPAddress: "10.0.0.1", UserAgent: "test"}

	resp, err := svc.Auth.Login(context.Background(), &models.LoginRequest{Email: "jo@example.com", Password: "s3cret-pass"}, meta)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	for i := 0; i < f.Config.Auth.MaxLoginAttempts; i++ {
		_, err := svc.Auth.Login(context.Background(), &models.LoginRequest{Email: "jo@example.com", Password: "wrong"}, meta)
		assert.True(t, errors.Is(err, service.ErrInvalidCredentials))
	}

	_, err = svc.Auth.Login(context.Background(), &models.LoginRequest{Email: "jo@example.com", Password: "s3cret-pass"}, meta)
	assert.True(t, errors.Is(err, service.ErrAccountLocked))

	require.NotEmpty(t, f.Auth.Attempts)
	assert.Equal(t, "10.0.0.1", f.Auth.Attempts[0].IPAddress)
	assert.True(t, f.Auth.Attempts[0].Success)
}

func TestAuth_LoginUnknownAndDisabled(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	resp := register(t, svc, "jo@example.com")

	_, err := svc.Auth.Login(context.Background(), &models.LoginRequest{Email: "nobody@example.com", Password: "x"}, service.RequestMeta{})
	assert.True(t, errors.Is(err, service.ErrInvalidCredentials))

	f.Users.Users[resp.User.ID].IsActive = false
	_, err = svc.Auth.Login(context.Background(), &models.LoginRequest{Email: "jo@example.com", Password: "s3cret-pass"}, service.RequestMeta{})
	assert.True(t, errors.Is(err, service.ErrAccountDisabled))
}

func TestAuth_Authorize(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	resp := register(t, svc, "jo@example.com")
	ctx := context.Background()

	user, err := svc.Auth.Authorize(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.User.Email, user.Email)

	f.Users.Users[resp.User.ID].IsActive = false
	_, err = svc.Auth.Authorize(ctx, resp.User.ID)
	assert.True(t, errors.Is(err, service.ErrAccountDisabled), "got %v", err)

	_, err = svc.Auth.Authorize(ctx, "550e8400-e29b-41d4-a716-446655440000")
	assert.True(t, errors.Is(err, service.ErrUnauthorized), "got %v", err)
}

func TestAuth_PasswordReset(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	resp := register(t, svc, "jo@example.com")

	require.NoError(t, svc.Auth.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, f.Emails.ByType(models.EmailPasswordReset))

	require.NoError(t, svc.Auth.ForgotPassword(context.Background(), "JO@example.com"))
	emails := f.Emails.ByType(models.EmailPasswordReset)
	require.Len(t, emails, 1)
	link, _ := emailData(t, emails[0])["reset_link"].(string)
	require.True(t, strings.HasPrefix(link, "http://localhost:3000/reset-password?token="))
	token := strings.TrimPrefix(link, "http://localhost:3000/reset-password?token=")
	assert.Len(t, token, 64)

	err := svc.Auth.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "brand-new-pass"})
	require.NoError(t, err)
	assert.True(t, f.Infra.Passwords.Compare(f.Auth.Passwords[resp.User.ID], "brand-new-pass"))

	err = svc.Auth.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: token, Password: "another-pass"})
	assert.True(t, errors.Is(err, service.ErrInvalidToken))

	err = svc.Auth.ResetPassword(context.Background(), &models.ResetPasswordRequest{Token: "unknown", Password: "another-pass"})
	assert.True(t, errors.Is(err, service.ErrInvalidToken))
}

func TestAuth_CreateAdmin(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()

	user, err := svc.Auth.CreateAdmin(context.Background(), &models.RegisterRequest{
		Email: "boss@agency.test", Password: "s3cret-pass", Firstname: "Ada", Lastname: "Admin",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Empty(t, f.Emails.ByType(models.EmailWelcome))
}
