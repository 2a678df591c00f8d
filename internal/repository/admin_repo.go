package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const activitySelect = `
	SELECT l.id, l.admin_user_id, COALESCE(u.firstname || ' ' || u.lastname, ''), l.action, l.resource_type,
		l.resource_id, l.details, l.created_at
	FROM admin_activity_logs l
	LEFT JOIN users u ON u.id = l.admin_user_id`

const alertColumns = `id, alert_type, title, message, severity, related_id, is_resolved, resolved_by, resolved_at, created_at`

type adminRepo struct {
	db *database.DB
}

// NewAdminRepo creates a new admin repository
func NewAdminRepo(db *database.DB) AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) LogActivity(ctx context.Context, e *models.ActivityLog) error {
	details := []byte(e.Details)
	if len(details) == 0 {
		details = []byte("{}")
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO admin_activity_logs (admin_user_id, action, resource_type, resource_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, nullString(e.AdminUserID), e.Action, e.ResourceType, nullString(e.ResourceID), details,
	).Scan(&e.ID, &e.CreatedAt)
}

func scanActivity(row rowScanner) (*models.ActivityLog, error) {
	var e models.ActivityLog
	var adminID, resourceID sql.NullString
	var details []byte
	if err := row.Scan(&e.ID, &adminID, &e.AdminName, &e.Action, &e.ResourceType, &resourceID, &details, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.AdminUserID = adminID.String
	e.ResourceID = resourceID.String
	e.Details = details
	return &e, nil
}

func (r *adminRepo) ListActivity(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityLog, int, error) {
	w := &whereBuilder{}
	if filter.AdminUserID != "" {
		w.add("l.admin_user_id = ?", filter.AdminUserID)
	}
	if filter.Action != "" {
		w.add("l.action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		w.add("l.resource_type = ?", filter.ResourceType)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_activity_logs l"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := activitySelect + w.String() +
		" ORDER BY l.created_at DESC LIMIT " + w.arg(filter.Limit) + " OFFSET " + w.arg(filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*models.ActivityLog, 0)
	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *adminRepo) GetActivity(ctx context.Context, id int64) (*models.ActivityLog, error) {
	e, err := scanActivity(r.db.QueryRowContext(ctx, activitySelect+" WHERE l.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *adminRepo) ActivityStats(ctx context.Context) (*models.ActivityStats, error) {
	var s models.ActivityStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '24 hours') FROM admin_activity_logs
	`).Scan(&s.Total, &s.LastDay)
	if err != nil {
		return nil, err
	}

	if s.ByAction, err = r.namedCounts(ctx, "action"); err != nil {
		return nil, err
	}
	if s.ByResource, err = r.namedCounts(ctx, "resource_type"); err != nil {
		return nil, err
	}
	return &s, nil
}

// namedCounts groups activity by a fixed column name
func (r *adminRepo) namedCounts(ctx context.Context, column string) ([]models.NamedCount, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM admin_activity_logs GROUP BY 1 ORDER BY 2 DESC LIMIT 20")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.NamedCount, 0)
	for rows.Next() {
		var nc models.NamedCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

func scanAlert(row rowScanner) (*models.AdminAlert, error) {
	var a models.AdminAlert
	var resolvedBy sql.NullString
	var resolvedAt sql.NullTime
	if err := row.Scan(&a.ID, &a.AlertType, &a.Title, &a.Message, &a.Severity, &a.RelatedID, &a.IsResolved,
		&resolvedBy, &resolvedAt, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ResolvedBy = resolvedBy.String
	a.ResolvedAt = timePtr(resolvedAt)
	return &a, nil
}

// CreateAlert inserts a manual alert. Manual alerts get a unique related id so they never collide.
func (r *adminRepo) CreateAlert(ctx context.Context, a *models.AdminAlert) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO admin_alerts (alert_type, title, message, severity, related_id)
		VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, ''), gen_random_uuid()::text))
		RETURNING id, related_id, created_at
	`, a.AlertType, a.Title, a.Message, a.Severity, a.RelatedID).Scan(&a.ID, &a.RelatedID, &a.CreatedAt)
}

func (r *adminRepo) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.AdminAlert, int, error) {
	w := &whereBuilder{}
	if filter.Resolved != nil {
		w.add("is_resolved = ?", *filter.Resolved)
	}
	if filter.Severity != "" {
		w.add("severity = ?", filter.Severity)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_alerts"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + alertColumns + " FROM admin_alerts" + w.String() +
		" ORDER BY created_at DESC LIMIT " + w.arg(filter.Limit) + " OFFSET " + w.arg(filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*models.AdminAlert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *adminRepo) ResolveAlert(ctx context.Context, id, resolvedBy string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admin_alerts SET is_resolved = TRUE, resolved_by = $1, resolved_at = $2
		WHERE id = $3 AND is_resolved = FALSE
	`, nullString(resolvedBy), time.Now(), id)
	return affectedOrNotFound(res, err)
}
