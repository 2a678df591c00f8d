package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/agency-cms-api/internal/auth"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/payment"
	"github.com/agency-cms-api/internal/service"
	"github.com/agency-cms-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const claimsKey = "claims"

// errorStatus maps an error to its HTTP status and client message.
// Unknown errors become a generic 500.
func errorStatus(err error) (int, string) {
	var domain *service.Error
	msg := "Internal server error"
	if errors.As(err, &domain) {
		msg = domain.Msg
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, msg
	case errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest, msg
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, msg
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, msg
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, msg
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, service.ErrAccountLocked):
		return http.StatusTooManyRequests, "too many failed login attempts, try again later"
	case errors.Is(err, service.ErrAccountDisabled):
		return http.StatusForbidden, "account disabled"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusBadRequest, "invalid or expired token"
	case errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, service.ErrPaymentsDisabled):
		return http.StatusServiceUnavailable, "payments are not configured"
	case errors.Is(err, service.ErrMediaDisabled):
		return http.StatusServiceUnavailable, "media storage is not configured"
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge, "request body too large"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return http.StatusConflict, "resource already exists"
		case "23503":
			return http.StatusBadRequest, "referenced resource does not exist"
		case "23502":
			return http.StatusBadRequest, "missing required field"
		case "22P02":
			return http.StatusBadRequest, "invalid identifier format"
		}
	}

	if m, ok := payment.IsProcessorError(err); ok {
		return http.StatusPaymentRequired, m
	}

	return http.StatusInternalServerError, "Internal server error"
}

// respondError writes the error body and logs server-side failures
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// respondBindError reports a malformed or invalid request body
func respondBindError(c *gin.Context, log zerolog.Logger, err error) {
	if isTooLarge(err) {
		respondError(c, log, err)
		return
	}
	body := gin.H{"error": "invalid request body"}
	if fields := validation.FieldErrors(err); fields != nil {
		body["details"] = fields
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

func isTooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.As(err, &maxBytes)
}

func respondList[T any](c *gin.Context, key string, items []T, page models.Page, total int) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{
		key:          items,
		"pagination": models.NewPagination(page, total),
	})
}

// parsePage reads limit/offset, falling back to page numbers when offset is absent
func parsePage(c *gin.Context, defaultLimit int) models.Page {
	p := models.Page{
		Limit:  queryInt(c, "limit", defaultLimit),
		Offset: queryInt(c, "offset", 0),
	}
	if _, ok := c.GetQuery("offset"); !ok {
		if n := queryInt(c, "page", 1); n > 1 {
			p = p.Normalize(defaultLimit)
			p.Offset = (n - 1) * p.Limit
		}
	}
	return p.Normalize(defaultLimit)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func queryBool(c *gin.Context, key string) *bool {
	v, err := strconv.ParseBool(c.Query(key))
	if err != nil {
		return nil
	}
	return &v
}

// currentActor returns the caller set by RequireAuth
func currentActor(c *gin.Context) service.Actor {
	if a := optionalActor(c); a != nil {
		return *a
	}
	return service.Actor{}
}

// optionalActor returns the caller when a valid token was presented
func optionalActor(c *gin.Context) *service.Actor {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return nil
	}
	return &service.Actor{UserID: claims.UserID(), Email: claims.Email, Role: claims.Role}
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
