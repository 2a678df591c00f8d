package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

// emailRepo is the concrete implementation of EmailRepository
type emailRepo struct {
	db *database.DB
}

// NewEmailRepo creates a new email queue repository
func NewEmailRepo(db *database.DB) EmailRepository {
	return &emailRepo{db: db}
}

// Create queues an email in pending status
func (r *emailRepo) Create(ctx context.Context, e *models.Email) error {
	payload := []byte(e.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO email_logs (recipient_email, recipient_name, email_type, subject, payload, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING id, status, created_at
	`, e.RecipientEmail, nullString(e.RecipientName), e.Type, e.Subject, payload,
	).Scan(&e.ID, &e.Status, &e.CreatedAt)
}

// GetPending retrieves pending emails, skipping rows another dispatcher holds.
// Emails left in sending since before staleBefore are returned as well.
func (r *emailRepo) GetPending(ctx context.Context, limit int, staleBefore time.Time) ([]*models.Email, error) {
	query := `
		SELECT id, recipient_email, recipient_name, email_type, subject, payload, attempts, created_at
		FROM email_logs
		WHERE status = 'pending' OR (status = 'sending' AND updated_at < $2)
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := r.db.QueryContext(ctx, query, limit, staleBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []*models.Email
	for rows.Next() {
		var e models.Email
		var name sql.NullString
		var payload []byte
		if err := rows.Scan(&e.ID, &e.RecipientEmail, &name, &e.Type, &e.Subject, &payload, &e.Attempts, &e.CreatedAt); err != nil {
			continue
		}
		e.RecipientName = name.String
		e.Payload = payload
		e.Status = models.EmailPending
		emails = append(emails, &e)
	}

	return emails, rows.Err()
}

// MarkSending atomically claims a pending or stale sending email
func (r *emailRepo) MarkSending(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE email_logs SET status = 'sending', attempts = attempts + 1, updated_at = $1
		WHERE id = $2 AND (status = 'pending' OR (status = 'sending' AND updated_at < $3))
	`, time.Now(), id, staleBefore)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *emailRepo) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_logs SET status = 'sent', sent_at = $1, error = NULL, updated_at = $1 WHERE id = $2
	`, time.Now(), id)
	return err
}

// MarkFailed records a delivery error. With retry the email goes back to pending.
func (r *emailRepo) MarkFailed(ctx context.Context, id string, cause string, retry bool) error {
	status := models.EmailFailed
	if retry {
		status = models.EmailPending
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_logs SET status = $1, error = $2, updated_at = $3 WHERE id = $4
	`, status, cause, time.Now(), id)
	return err
}
