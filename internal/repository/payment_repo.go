package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const paymentColumns = `p.id, p.user_id, p.project_id, p.payment_intent_id, p.checkout_session_id, p.invoice_id,
	p.stripe_charge_id, p.customer_id, p.amount, p.currency, p.payment_type, p.status, p.description,
	p.error_message, p.refund_id, p.refund_amount, p.refunded_by, p.paid_at, p.failed_at, p.canceled_at,
	p.refunded_at, p.created_at, p.updated_at`

const paymentSelect = `SELECT ` + paymentColumns + `, COALESCE(cp.title, ''), COALESCE(u.email, '')
	FROM payment_logs p
	LEFT JOIN client_projects cp ON cp.id = p.project_id
	LEFT JOIN users u ON u.id = p.user_id`

type paymentRepo struct {
	db *database.DB
}

// NewPaymentRepo creates a new payment repository
func NewPaymentRepo(db *database.DB) PaymentRepository {
	return &paymentRepo{db: db}
}

// scanPaymentRow scans paymentColumns followed by any extra destinations
func scanPaymentRow(row rowScanner, extra ...any) (*models.PaymentLog, error) {
	var p models.PaymentLog
	var userID, projectID, intentID, sessionID, invoiceID, chargeID, customerID sql.NullString
	var desc, errMsg, refundID, refundedBy sql.NullString
	var refundAmount sql.NullInt64
	var paidAt, failedAt, canceledAt, refundedAt sql.NullTime

	dest := []any{
		&p.ID, &userID, &projectID, &intentID, &sessionID, &invoiceID,
		&chargeID, &customerID, &p.Amount, &p.Currency, &p.PaymentType, &p.Status, &desc,
		&errMsg, &refundID, &refundAmount, &refundedBy, &paidAt, &failedAt, &canceledAt,
		&refundedAt, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	p.UserID = userID.String
	p.ProjectID = projectID.String
	p.PaymentIntentID = intentID.String
	p.CheckoutSessionID = sessionID.String
	p.InvoiceID = invoiceID.String
	p.ChargeID = chargeID.String
	p.CustomerID = customerID.String
	p.Description = desc.String
	p.ErrorMessage = errMsg.String
	p.RefundID = refundID.String
	p.RefundedBy = refundedBy.String
	if refundAmount.Valid {
		p.RefundAmount = &refundAmount.Int64
	}
	p.PaidAt = timePtr(paidAt)
	p.FailedAt = timePtr(failedAt)
	p.CanceledAt = timePtr(canceledAt)
	p.RefundedAt = timePtr(refundedAt)
	return &p, nil
}

func scanPayment(row rowScanner) (*models.PaymentLog, error) {
	var project, email string
	p, err := scanPaymentRow(row, &project, &email)
	if err != nil {
		return nil, err
	}
	p.ProjectTitle = project
	p.UserEmail = email
	return p, nil
}

// Create inserts a locally initiated payment, normally in pending status
func (r *paymentRepo) Create(ctx context.Context, p *models.PaymentLog) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO payment_logs (id, user_id, project_id, payment_intent_id, checkout_session_id, invoice_id,
			customer_id, amount, currency, payment_type, status, description)
		VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, nullString(p.ID), nullString(p.UserID), nullString(p.ProjectID), nullString(p.PaymentIntentID), nullString(p.CheckoutSessionID),
		nullString(p.InvoiceID), nullString(p.CustomerID), p.Amount, p.Currency, p.PaymentType, p.Status,
		nullString(p.Description),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *paymentRepo) GetByID(ctx context.Context, id string) (*models.PaymentLog, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, paymentSelect+" WHERE p.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *paymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]*models.PaymentLog, int, error) {
	w := &whereBuilder{}
	if filter.UserID != "" {
		w.add("p.user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		w.add("p.status = ?", filter.Status)
	}
	if filter.PaymentType != "" {
		w.add("p.payment_type = ?", filter.PaymentType)
	}
	if filter.ProjectID != "" {
		w.add("p.project_id = ?", filter.ProjectID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payment_logs p"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := paymentSelect + w.String() +
		" ORDER BY p.created_at DESC LIMIT " + w.arg(filter.Limit) + " OFFSET " + w.arg(filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*models.PaymentLog, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *paymentRepo) Stats(ctx context.Context) (*models.PaymentStats, error) {
	var s models.PaymentStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'succeeded'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status IN ('pending', 'requires_action')),
			COUNT(*) FILTER (WHERE status = 'refunded'),
			COALESCE(SUM(amount) FILTER (WHERE status IN ('succeeded', 'refunded')), 0),
			COALESCE(SUM(refund_amount) FILTER (WHERE status = 'refunded'), 0)
		FROM payment_logs
	`).Scan(&s.Total, &s.Succeeded, &s.Failed, &s.Pending, &s.Refunded, &s.TotalRevenue, &s.TotalRefunded)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MarkRefunded records an admin-initiated refund
func (r *paymentRepo) MarkRefunded(ctx context.Context, id, refundID string, amount int64, refundedBy string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_logs SET status = 'refunded', refund_id = $1, refund_amount = $2, refunded_by = $3,
			refunded_at = $4, updated_at = NOW()
		WHERE id = $5
	`, refundID, amount, nullString(refundedBy), time.Now(), id)
	return affectedOrNotFound(res, err)
}

func (r *paymentRepo) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	var assigned sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, assigned_to, title, status, deposit_paid, final_paid, created_at
		FROM client_projects WHERE id = $1
	`, id).Scan(&p.ID, &p.UserID, &assigned, &p.Title, &p.Status, &p.DepositPaid, &p.FinalPaid, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.AssignedTo = assigned.String
	return &p, nil
}

func (r *paymentRepo) StreamAll(ctx context.Context, callback func(*models.PaymentLog) error) error {
	rows, err := r.db.QueryContext(ctx, paymentSelect+" ORDER BY p.created_at")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return err
		}
		if err := callback(p); err != nil {
			return err
		}
	}
	return rows.Err()
}
