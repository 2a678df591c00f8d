package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

type authRepo struct {
	db *database.DB
}

// NewAuthRepo creates a new auth repository
func NewAuthRepo(db *database.DB) AuthRepository {
	return &authRepo{db: db}
}

// RecordLoginAttempt appends to the login audit trail
func (r *authRepo) RecordLoginAttempt(ctx context.Context, a *models.LoginAttempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_attempts (email, ip_address, user_agent, success) VALUES ($1, $2, $3, $4)`,
		a.Email, nullString(a.IPAddress), nullString(a.UserAgent), a.Success,
	)
	return err
}

// CountRecentFailures counts failed attempts for email in the last window seconds
func (r *authRepo) CountRecentFailures(ctx context.Context, email string, window int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE email = $1 AND success = FALSE
		AND attempted_at > NOW() - make_interval(secs => $2)
	`, email, window).Scan(&count)
	return count, err
}

// CreateResetToken stores a new password reset token
func (r *authRepo) CreateResetToken(ctx context.Context, t *models.PasswordResetToken) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES ($1, $2, $3) RETURNING id`,
		t.UserID, t.Token, t.ExpiresAt,
	).Scan(&t.ID)
}

// GetResetToken looks up a reset token by its value
func (r *authRepo) GetResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, used FROM password_reset_tokens WHERE token = $1`, token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ConsumeResetToken marks the token used and updates the password in one transaction
func (r *authRepo) ConsumeResetToken(ctx context.Context, tokenID, userID, passwordHash string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE password_reset_tokens SET used = TRUE WHERE id = $1 AND used = FALSE AND expires_at > NOW()`, tokenID)
		if err := affectedOrNotFound(res, err); err != nil {
			return fmt.Errorf("consume reset token: %w", err)
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, userID)
		return affectedOrNotFound(res, err)
	})
}
