package api

import (
	"net/http"
	"strconv"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminHandler handles audit logs, alerts and notifications
type AdminHandler struct {
	admin service.AdminService
	log   zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		admin: services.Admin,
		log:   log.With().Str("handler", "admin").Logger(),
	}
}

// ListActivity handles GET /api/admin/logs?admin_user_id=&action=&resource_type=
func (h *AdminHandler) ListActivity(c *gin.Context) {
	filter := models.ActivityFilter{
		AdminUserID:  c.Query("admin_user_id"),
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		Page:         parsePage(c, 50),
	}
	logs, total, err := h.admin.ListActivity(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "logs", logs, filter.Page, total)
}

// GetActivity handles GET /api/admin/logs/:id
func (h *AdminHandler) GetActivity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid log id"})
		return
	}
	entry, err := h.admin.GetActivity(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": entry})
}

// ActivityStats handles GET /api/admin/logs/stats
func (h *AdminHandler) ActivityStats(c *gin.Context) {
	stats, err := h.admin.ActivityStats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ListAlerts handles GET /api/admin/alerts?resolved=&severity=
func (h *AdminHandler) ListAlerts(c *gin.Context) {
	filter := models.AlertFilter{
		Resolved: queryBool(c, "resolved"),
		Severity: c.Query("severity"),
		Page:     parsePage(c, 50),
	}
	alerts, total, err := h.admin.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "alerts", alerts, filter.Page, total)
}

// CreateAlert handles POST /api/admin/alerts
func (h *AdminHandler) CreateAlert(c *gin.Context) {
	var req models.AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	alert, err := h.admin.CreateAlert(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"alert": alert})
}

// ResolveAlert handles PATCH /api/admin/alerts/:id/resolve
func (h *AdminHandler) ResolveAlert(c *gin.Context) {
	if err := h.admin.ResolveAlert(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "alert resolved"})
}

// ListNotifications handles GET /api/notifications?unread=true
func (h *AdminHandler) ListNotifications(c *gin.Context) {
	page := parsePage(c, 20)
	unread := c.Query("unread") == "true"
	items, total, err := h.admin.ListNotifications(c.Request.Context(), currentActor(c), unread, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, "notifications", items, page, total)
}

// MarkNotificationRead handles PATCH /api/notifications/:id/read
func (h *AdminHandler) MarkNotificationRead(c *gin.Context) {
	if err := h.admin.MarkNotificationRead(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

// MarkAllNotificationsRead handles PATCH /api/notifications/read-all
func (h *AdminHandler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.admin.MarkAllNotificationsRead(c.Request.Context(), currentActor(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
