package repository

import (
	"context"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

type notificationRepo struct {
	db *database.DB
}

// NewNotificationRepo creates a new notification repository
func NewNotificationRepo(db *database.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, page models.Page) ([]*models.Notification, int, error) {
	w := &whereBuilder{}
	w.add("user_id = ?", userID)
	if unreadOnly {
		w.add("is_read = FALSE")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_notifications"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_id, title, message, type, related_type, related_id, is_read, created_at
		FROM user_notifications` + w.String() +
		" ORDER BY created_at DESC LIMIT " + w.arg(page.Limit) + " OFFSET " + w.arg(page.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.RelatedType, &n.RelatedID,
			&n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &n)
	}
	return out, total, rows.Err()
}

func (r *notificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE user_notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2", id, userID)
	return affectedOrNotFound(res, err)
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE user_notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE", userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
