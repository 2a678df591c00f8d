package api_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agency-cms-api/internal/api"
	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/payment"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	f      *mocks.Fixture
	router *gin.Engine
}

func setupTestRouter(t *testing.T, configure ...func(f *mocks.Fixture)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := mocks.NewFixture()
	for _, fn := range configure {
		fn(f)
	}
	router := api.NewRouter(f.Services(), f.Infra.Tokens, f.Config, zerolog.Nop())
	return &testServer{f: f, router: router}
}

func (s *testServer) tokenFor(t *testing.T, role string) (string, *models.User) {
	t.Helper()
	user := s.f.Users.Add(&models.User{
		Email:     role + "@agency.test",
		Username:  role,
		Firstname: "Test",
		Lastname:  strings.ToUpper(role[:1]) + role[1:],
		Role:      role,
		IsActive:  true,
	})
	token, _, err := s.f.Infra.Tokens.Issue(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return token, user
}

func (s *testServer) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "agency-cms-api", body["service"])
}

func TestHealthEndpoint_DependencyDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := mocks.NewFixture()
	router := api.NewRouter(f.Services(), f.Infra.Tokens, f.Config, zerolog.Nop(), api.HealthCheck{
		Name:  "database",
		Check: func(ctx context.Context) error { return fmt.Errorf("connection refused") },
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestRouter(t)
	s.do(http.MethodGet, "/health", "", nil)

	w := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agency_http_requests_total")
}

func TestNoRoute(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "route not found", body["error"])
	assert.Equal(t, "/api/nope", body["path"])
	assert.Equal(t, "GET", body["method"])
}

func TestCORS(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(http.MethodOptions, "/api/contact", "", nil, "Origin", "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = s.do(http.MethodOptions, "/api/contact", "", nil, "Origin", "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestContactSubmit(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(http.MethodPost, "/api/contact", "", map[string]string{
		"name": "Jo", "email": "jo@x.com", "message": "Hello there",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.NotEmpty(t, body["id"])
	assert.Len(t, s.f.Contacts.Messages, 1)

	w = s.do(http.MethodPost, "/api/contact", "", map[string]string{"name": "Jo", "email": "not-an-email", "message": "hi"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	details := decode(t, w)["details"].([]any)
	assert.Equal(t, "email", details[0].(map[string]any)["field"])
}

func TestContactAdminPaginationAndReply(t *testing.T) {
	s := setupTestRouter(t)
	admin, _ := s.tokenFor(t, models.RoleAdmin)

	for _, name := range []string{"Jo", "Lou"} {
		w := s.do(http.MethodPost, "/api/contact", "", map[string]string{
			"name": name, "email": strings.ToLower(name) + "@x.com", "message": "Hello there",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := s.do(http.MethodGet, "/api/contact/admin/messages?limit=1", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["messages"], 1)
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 2, pagination["total"])
	assert.Equal(t, true, pagination["has_more"])

	id := body["messages"].([]any)[0].(map[string]any)["id"].(string)
	w = s.do(http.MethodPost, "/api/contact/admin/messages/"+id+"/reply", admin, map[string]string{"reply_text": "Merci"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.ContactReplied, s.f.Contacts.Messages[id].Status)
	assert.NotNil(t, s.f.Contacts.Messages[id].RepliedAt)

	w = s.do(http.MethodPost, "/api/contact/admin/messages/550e8400-e29b-41d4-a716-446655440000/reply", admin,
		map[string]string{"reply_text": "Merci"})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	s := setupTestRouter(t)
	member, _ := s.tokenFor(t, models.RoleMember)

	w := s.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/auth/me", member, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/admin/logs", member, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "insufficient permissions", decode(t, w)["error"])

	w = s.do(http.MethodGet, "/api/auth/check", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["authenticated"])
}

func TestPrivilegedRoutesRecheckAccount(t *testing.T) {
	s := setupTestRouter(t)
	admin, adminUser := s.tokenFor(t, models.RoleAdmin)
	editor, editorUser := s.tokenFor(t, models.RoleEditor)

	w := s.do(http.MethodGet, "/api/admin/logs", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	s.f.Users.Users[adminUser.ID].IsActive = false
	w = s.do(http.MethodGet, "/api/admin/logs", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "account disabled", decode(t, w)["error"])

	// a demoted editor keeps a valid token but loses moderation rights
	s.f.Users.Users[editorUser.ID].Role = models.RoleMember
	w = s.do(http.MethodGet, "/api/comments/pending", editor, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "insufficient permissions", decode(t, w)["error"])

	delete(s.f.Users.Users, editorUser.ID)
	w = s.do(http.MethodGet, "/api/comments/pending", editor, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMalformedIDRejected(t *testing.T) {
	s := setupTestRouter(t)
	admin, _ := s.tokenFor(t, models.RoleAdmin)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/contact/admin/messages/abc"},
		{http.MethodPost, "/api/contact/admin/messages/abc/reply"},
		{http.MethodGet, "/api/payments/abc"},
		{http.MethodPut, "/api/comments/1"},
		{http.MethodGet, "/api/comments/article/not-a-uuid"},
		{http.MethodPatch, "/api/notifications/xyz/read"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := s.do(tt.method, tt.path, admin, map[string]string{"reply_text": "x", "content": "x"})
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "invalid id", decode(t, w)["error"])
		})
	}

	// well-formed but unknown ids still reach the handler
	w := s.do(http.MethodGet, "/api/contact/admin/messages/550e8400-e29b-41d4-a716-446655440000", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// activity log ids are numeric
	w = s.do(http.MethodGet, "/api/admin/logs/42", admin, nil)
	assert.NotEqual(t, http.StatusBadRequest, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "s3cret-pass", "firstname": "New", "lastname": "User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "s3cret-pass", "firstname": "New", "lastname": "User",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "new@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "new@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)

	w = s.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "new@example.com", user["email"])
}

func TestArticleDuplicateSlugConflict(t *testing.T) {
	s := setupTestRouter(t)
	author, _ := s.tokenFor(t, models.RoleAuthor)
	member, _ := s.tokenFor(t, models.RoleMember)

	input := map[string]string{"title": "Launch Day", "content": "<p>We are live</p>"}

	w := s.do(http.MethodPost, "/api/articles", member, input)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/articles", author, input)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/articles", author, input)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode(t, w), "error")
	assert.Len(t, s.f.Articles.Articles, 1)
}

func TestNewsletterSubscribeStatuses(t *testing.T) {
	s := setupTestRouter(t)
	req := map[string]string{"email": "reader@example.com"}

	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/newsletter/subscribe", "", req).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/newsletter/subscribe", "", req).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/newsletter/unsubscribe", "", req).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/newsletter/unsubscribe", "", req).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/newsletter/subscribe", "", req).Code)
}

func TestUploadRateLimit(t *testing.T) {
	s := setupTestRouter(t, func(f *mocks.Fixture) {
		f.Config.Upload.RatePerMinute = 1
	})
	member, _ := s.tokenFor(t, models.RoleMember)

	w := s.do(http.MethodPost, "/api/media/avatar", member, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "no file attached")

	w = s.do(http.MethodPost, "/api/media/avatar", member, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestPaymentsDisabled(t *testing.T) {
	s := setupTestRouter(t, func(f *mocks.Fixture) {
		f.Processor.Disabled = true
	})
	member, _ := s.tokenFor(t, models.RoleMember)

	w := s.do(http.MethodPost, "/api/payments/intent", member, map[string]any{"amount": 10})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func sign(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeWebhook(t *testing.T) {
	s := setupTestRouter(t, func(f *mocks.Fixture) {
		f.Infra.Payments = payment.New(f.Config.Payment, zerolog.Nop())
	})
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":"customer.created","created":%d,"data":{"object":{"id":"cus_1","object":"customer"}}}`,
		time.Now().Unix()))

	w := s.do(http.MethodPost, "/webhooks/stripe", "", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing signature", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/webhooks/stripe", "", payload, "Stripe-Signature", sign(payload, "whsec_wrong"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.f.Webhooks.Events, "rejected deliveries touch nothing")

	w = s.do(http.MethodPost, "/webhooks/stripe", "", payload, "Stripe-Signature", sign(payload, "whsec_fixture"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ignored", decode(t, w)["outcome"])

	w = s.do(http.MethodPost, "/webhooks/stripe", "", payload, "Stripe-Signature", sign(payload, "whsec_fixture"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "duplicate", decode(t, w)["outcome"])
}

func TestStripeWebhookBodyLimit(t *testing.T) {
	s := setupTestRouter(t)
	big := bytes.Repeat([]byte("x"), 1<<20+1)

	w := s.do(http.MethodPost, "/webhooks/stripe", "", big, "Stripe-Signature", "t=1,v1=00")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
