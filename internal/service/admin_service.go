package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/rs/zerolog"
)

// auditor writes the admin activity trail. Failures never block the audited change.
type auditor struct {
	repo repository.AdminRepository
	log  zerolog.Logger
}

func newAuditor(repo repository.AdminRepository, log zerolog.Logger) *auditor {
	return &auditor{repo: repo, log: log.With().Str("component", "audit").Logger()}
}

// record logs action on a resource. details is marshalled as JSON when non-nil.
func (a *auditor) record(ctx context.Context, actor Actor, action, resourceType, resourceID string, details any) {
	entry := &models.ActivityLog{
		AdminUserID:  actor.UserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = raw
		}
	}
	if err := a.repo.LogActivity(ctx, entry); err != nil {
		a.log.Error().Err(err).
			Str("action", action).
			Str("resource_type", resourceType).
			Str("resource_id", resourceID).
			Msg("Failed to record activity")
	}
}

// adminService is the concrete implementation of AdminService
type adminService struct {
	admin         repository.AdminRepository
	notifications repository.NotificationRepository
	audit         *auditor
	log           zerolog.Logger
}

func newAdminService(repos *repository.Repositories, audit *auditor, log zerolog.Logger) *adminService {
	return &adminService{
		admin:         repos.Admin,
		notifications: repos.Notification,
		audit:         audit,
		log:           log.With().Str("service", "admin").Logger(),
	}
}

func (s *adminService) ListActivity(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityLog, int, error) {
	filter.Page = filter.Page.Normalize(50)
	return s.admin.ListActivity(ctx, filter)
}

func (s *adminService) GetActivity(ctx context.Context, id int64) (*models.ActivityLog, error) {
	entry, err := s.admin.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, notFound("activity log")
	}
	return entry, nil
}

func (s *adminService) ActivityStats(ctx context.Context) (*models.ActivityStats, error) {
	return s.admin.ActivityStats(ctx)
}

func (s *adminService) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.AdminAlert, int, error) {
	filter.Page = filter.Page.Normalize(50)
	return s.admin.ListAlerts(ctx, filter)
}

func (s *adminService) CreateAlert(ctx context.Context, actor Actor, req *models.AlertRequest) (*models.AdminAlert, error) {
	alert := &models.AdminAlert{
		AlertType: req.AlertType,
		Title:     req.Title,
		Message:   req.Message,
		Severity:  req.Severity,
	}
	if alert.Severity == "" {
		alert.Severity = models.SeverityInfo
	}
	if err := s.admin.CreateAlert(ctx, alert); err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, "create", "alert", alert.ID, map[string]string{"alert_type": alert.AlertType})
	return alert, nil
}

func (s *adminService) ResolveAlert(ctx context.Context, actor Actor, id string) error {
	if err := s.admin.ResolveAlert(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "alert not found or already resolved")
		}
		return err
	}
	s.audit.record(ctx, actor, "resolve", "alert", id, nil)
	return nil
}

func (s *adminService) ListNotifications(ctx context.Context, actor Actor, unreadOnly bool, page models.Page) ([]*models.Notification, int, error) {
	return s.notifications.ListByUser(ctx, actor.UserID, unreadOnly, page.Normalize(20))
}

func (s *adminService) MarkNotificationRead(ctx context.Context, actor Actor, id string) error {
	return notFoundIf(s.notifications.MarkRead(ctx, actor.UserID, id), "notification")
}

func (s *adminService) MarkAllNotificationsRead(ctx context.Context, actor Actor) (int, error) {
	return s.notifications.MarkAllRead(ctx, actor.UserID)
}
