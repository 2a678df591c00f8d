package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

// PaymentKey names the external id a payment row is matched on
type PaymentKey string

const (
	KeyPaymentIntent   PaymentKey = "payment_intent_id"
	KeyCheckoutSession PaymentKey = "checkout_session_id"
	KeyInvoice         PaymentKey = "invoice_id"
	KeyCharge          PaymentKey = "stripe_charge_id"
)

func (k PaymentKey) valid() bool {
	switch k {
	case KeyPaymentIntent, KeyCheckoutSession, KeyInvoice, KeyCharge:
		return true
	}
	return false
}

// PaymentTx is the set of writes a webhook handler performs inside the event transaction
type PaymentTx interface {
	// UpdatePayment applies u to the row matched by key and returns it, or nil when no row matches
	UpdatePayment(ctx context.Context, key PaymentKey, u *models.PaymentUpdate) (*models.PaymentLog, error)
	// UpsertPayment inserts or updates the row matched by key. KeyCharge is not accepted.
	UpsertPayment(ctx context.Context, key PaymentKey, u *models.PaymentUpdate) (*models.PaymentLog, error)
	// RecordRefund marks the payment owning chargeID (or intentID) refunded with the cumulative amount
	RecordRefund(ctx context.Context, chargeID, intentID string, refunded int64) (*models.PaymentLog, error)
	MarkProjectPaid(ctx context.Context, projectID, paymentType string) error
	// AddNotification inserts unless an identical notification exists; reports whether a row was written
	AddNotification(ctx context.Context, n *models.Notification) (bool, error)
	// AddAlert inserts unless an alert of the same type exists for the same object
	AddAlert(ctx context.Context, a *models.AdminAlert) (bool, error)
}

// WebhookRepository persists processor events and applies them transactionally
type WebhookRepository interface {
	// Apply records the event and runs fn in one transaction. The event row is locked
	// for the duration, so concurrent deliveries of one event id serialize. When the
	// event was already applied successfully fn is not called and applied is false.
	Apply(ctx context.Context, evt *models.StripeEvent, fn func(tx PaymentTx) error) (applied bool, err error)
	// RecordFailure stores the handler error on the event row outside any transaction
	RecordFailure(ctx context.Context, evt *models.StripeEvent, cause error) error
	GetEvent(ctx context.Context, eventID string) (*models.StripeEvent, error)
}

type webhookRepo struct {
	db *database.DB
}

// NewWebhookRepo creates a new webhook repository
func NewWebhookRepo(db *database.DB) WebhookRepository {
	return &webhookRepo{db: db}
}

func (r *webhookRepo) Apply(ctx context.Context, evt *models.StripeEvent, fn func(tx PaymentTx) error) (bool, error) {
	applied := false
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var processedAt sql.NullTime
		var prevErr sql.NullString
		err := tx.QueryRowContext(ctx, `
			INSERT INTO stripe_events (event_id, event_type, data)
			VALUES ($1, $2, $3)
			ON CONFLICT (event_id) DO UPDATE SET attempts = stripe_events.attempts + 1
			RETURNING processed_at, error
		`, evt.EventID, evt.EventType, []byte(evt.Data)).Scan(&processedAt, &prevErr)
		if err != nil {
			return fmt.Errorf("record event: %w", err)
		}

		if processedAt.Valid && !prevErr.Valid {
			return nil
		}

		if err := fn(&paymentTx{tx: tx}); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE stripe_events SET processed_at = NOW(), error = NULL WHERE event_id = $1`, evt.EventID)
		if err != nil {
			return fmt.Errorf("mark event processed: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *webhookRepo) RecordFailure(ctx context.Context, evt *models.StripeEvent, cause error) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stripe_events (event_id, event_type, data, error)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO UPDATE SET error = EXCLUDED.error
	`, evt.EventID, evt.EventType, []byte(evt.Data), cause.Error())
	return err
}

func (r *webhookRepo) GetEvent(ctx context.Context, eventID string) (*models.StripeEvent, error) {
	var e models.StripeEvent
	var errMsg sql.NullString
	var processedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT event_id, event_type, data, error, attempts, processed_at, created_at
		FROM stripe_events WHERE event_id = $1
	`, eventID).Scan(&e.EventID, &e.EventType, &e.Data, &errMsg, &e.Attempts, &processedAt, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Error = errMsg.String
	e.ProcessedAt = timePtr(processedAt)
	return &e, nil
}

// paymentTx implements PaymentTx on an open transaction
type paymentTx struct {
	tx database.DBTX
}

// statusTimes picks which lifecycle timestamp a status transition sets
func statusTimes(u *models.PaymentUpdate) (paid, failed, canceled sql.NullTime) {
	at := sql.NullTime{Time: u.OccurredAt, Valid: !u.OccurredAt.IsZero()}
	switch u.Status {
	case models.PaymentSucceeded:
		paid = at
	case models.PaymentFailed:
		failed = at
	case models.PaymentCanceled:
		canceled = at
	}
	return
}

func (p *paymentTx) UpdatePayment(ctx context.Context, key PaymentKey, u *models.PaymentUpdate) (*models.PaymentLog, error) {
	if !key.valid() {
		return nil, fmt.Errorf("invalid payment key %q", key)
	}

	paid, failed, canceled := statusTimes(u)
	row := p.tx.QueryRowContext(ctx, `
		UPDATE payment_logs p SET status = $1,
			stripe_charge_id = COALESCE($2, p.stripe_charge_id),
			error_message = $3,
			paid_at = COALESCE(p.paid_at, $4),
			failed_at = COALESCE($5, p.failed_at),
			canceled_at = COALESCE($6, p.canceled_at),
			updated_at = NOW()
		WHERE p.`+string(key)+` = $7
		RETURNING `+paymentColumns,
		u.Status, nullString(u.ChargeID), nullString(u.ErrorMessage), paid, failed, canceled, keyValue(key, u))

	log, err := scanPaymentRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return log, err
}

// matchPayment locks the row an update belongs to. The keyed id wins, then
// our own row id from metadata, then any other external id the update carries,
// so events for one payment converge on one row whatever order they arrive in.
func (p *paymentTx) matchPayment(ctx context.Context, key PaymentKey, u *models.PaymentUpdate) (string, error) {
	var id string
	err := p.tx.QueryRowContext(ctx, `
		SELECT id FROM payment_logs
		WHERE ($1::text <> '' AND `+string(key)+` = $1::text)
			OR ($2::text <> '' AND id::text = $2::text)
			OR ($3 <> '' AND payment_intent_id = $3)
			OR ($4 <> '' AND checkout_session_id = $4)
			OR ($5 <> '' AND invoice_id = $5)
		ORDER BY CASE
			WHEN $1 <> '' AND `+string(key)+` = $1 THEN 0
			WHEN $2 <> '' AND id::text = $2 THEN 1
			ELSE 2 END, created_at
		LIMIT 1
		FOR UPDATE
	`, keyValue(key, u), u.PaymentID, u.PaymentIntentID, u.CheckoutSessionID, u.InvoiceID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

// absorbPlaceholder handles a pending row that was matched by session or invoice
// while another row already holds intentID, which happens when the intent event
// was applied first without our row reference. The placeholder is folded into the
// intent row and deleted; the surviving row id is returned.
func (p *paymentTx) absorbPlaceholder(ctx context.Context, id, intentID string) (string, error) {
	var other string
	err := p.tx.QueryRowContext(ctx,
		`SELECT id FROM payment_logs WHERE payment_intent_id = $1 AND id <> $2 FOR UPDATE`,
		intentID, id).Scan(&other)
	if err == sql.ErrNoRows {
		return id, nil
	}
	if err != nil {
		return "", err
	}

	var session, invoice, user, project, desc sql.NullString
	err = p.tx.QueryRowContext(ctx, `
		DELETE FROM payment_logs
		WHERE id = $1 AND payment_intent_id IS NULL AND status = 'pending'
		RETURNING checkout_session_id, invoice_id, user_id, project_id, description
	`, id).Scan(&session, &invoice, &user, &project, &desc)
	if err == sql.ErrNoRows {
		// not a placeholder: keep it and leave the intent id where it is
		return id, nil
	}
	if err != nil {
		return "", err
	}

	_, err = p.tx.ExecContext(ctx, `
		UPDATE payment_logs p SET
			checkout_session_id = COALESCE(p.checkout_session_id, $1),
			invoice_id = COALESCE(p.invoice_id, $2),
			user_id = COALESCE(p.user_id, $3),
			project_id = COALESCE(p.project_id, $4),
			description = COALESCE(p.description, $5),
			updated_at = NOW()
		WHERE p.id = $6
	`, session, invoice, user, project, desc, other)
	return other, err
}

func keyValue(key PaymentKey, u *models.PaymentUpdate) string {
	switch key {
	case KeyPaymentIntent:
		return u.PaymentIntentID
	case KeyCheckoutSession:
		return u.CheckoutSessionID
	case KeyInvoice:
		return u.InvoiceID
	case KeyCharge:
		return u.ChargeID
	}
	return ""
}

func (p *paymentTx) UpsertPayment(ctx context.Context, key PaymentKey, u *models.PaymentUpdate) (*models.PaymentLog, error) {
	if !key.valid() || key == KeyCharge {
		return nil, fmt.Errorf("invalid upsert key %q", key)
	}
	if keyValue(key, u) == "" {
		return nil, fmt.Errorf("upsert by %s without a value", key)
	}

	id, err := p.matchPayment(ctx, key, u)
	if err != nil {
		return nil, fmt.Errorf("match payment: %w", err)
	}

	if id != "" && u.PaymentIntentID != "" {
		if id, err = p.absorbPlaceholder(ctx, id, u.PaymentIntentID); err != nil {
			return nil, fmt.Errorf("merge payment rows: %w", err)
		}
	}

	paid, failed, canceled := statusTimes(u)
	if id == "" {
		return scanPaymentRow(p.tx.QueryRowContext(ctx, `
			INSERT INTO payment_logs AS p (payment_intent_id, checkout_session_id, invoice_id, stripe_charge_id,
				customer_id, user_id, project_id, amount, currency, payment_type, status, error_message,
				paid_at, failed_at, canceled_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING `+paymentColumns,
			nullString(u.PaymentIntentID), nullString(u.CheckoutSessionID), nullString(u.InvoiceID),
			nullString(u.ChargeID), nullString(u.CustomerID), nullString(u.UserID), nullString(u.ProjectID),
			u.Amount, u.Currency, u.PaymentType, u.Status, nullString(u.ErrorMessage), paid, failed, canceled))
	}

	// External ids are only filled in when no other row already holds them,
	// and a settled payment is never moved back to pending.
	return scanPaymentRow(p.tx.QueryRowContext(ctx, `
		UPDATE payment_logs p SET
			status = CASE WHEN $1::varchar = 'pending' AND p.status IN ('succeeded', 'refunded') THEN p.status ELSE $1::varchar END,
			payment_intent_id = COALESCE(p.payment_intent_id,
				(SELECT $2::varchar WHERE NOT EXISTS (SELECT 1 FROM payment_logs o WHERE o.payment_intent_id = $2))),
			checkout_session_id = COALESCE(p.checkout_session_id,
				(SELECT $3::varchar WHERE NOT EXISTS (SELECT 1 FROM payment_logs o WHERE o.checkout_session_id = $3))),
			invoice_id = COALESCE(p.invoice_id,
				(SELECT $4::varchar WHERE NOT EXISTS (SELECT 1 FROM payment_logs o WHERE o.invoice_id = $4))),
			stripe_charge_id = COALESCE($5, p.stripe_charge_id),
			customer_id = COALESCE($6, p.customer_id),
			user_id = COALESCE(p.user_id, $7),
			project_id = COALESCE(p.project_id, $8),
			amount = CASE WHEN $9::bigint > 0 THEN $9::bigint ELSE p.amount END,
			error_message = $10,
			paid_at = COALESCE(p.paid_at, $11),
			failed_at = COALESCE($12, p.failed_at),
			canceled_at = COALESCE($13, p.canceled_at),
			updated_at = NOW()
		WHERE p.id = $14
		RETURNING `+paymentColumns,
		u.Status, nullString(u.PaymentIntentID), nullString(u.CheckoutSessionID), nullString(u.InvoiceID),
		nullString(u.ChargeID), nullString(u.CustomerID), nullString(u.UserID), nullString(u.ProjectID),
		u.Amount, nullString(u.ErrorMessage), paid, failed, canceled, id))
}

func (p *paymentTx) RecordRefund(ctx context.Context, chargeID, intentID string, refunded int64) (*models.PaymentLog, error) {
	row := p.tx.QueryRowContext(ctx, `
		UPDATE payment_logs p SET status = 'refunded', refund_amount = $1,
			refunded_at = COALESCE(p.refunded_at, NOW()),
			stripe_charge_id = COALESCE(p.stripe_charge_id, $2),
			updated_at = NOW()
		WHERE p.id = (
			SELECT id FROM payment_logs
			WHERE stripe_charge_id = $2 OR ($3 <> '' AND payment_intent_id = $3)
			ORDER BY created_at LIMIT 1
		)
		RETURNING `+paymentColumns, refunded, chargeID, intentID)

	log, err := scanPaymentRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return log, err
}

func (p *paymentTx) MarkProjectPaid(ctx context.Context, projectID, paymentType string) error {
	var column string
	switch paymentType {
	case models.PaymentTypeDeposit:
		column = "deposit_paid"
	case models.PaymentTypeFinal:
		column = "final_paid"
	default:
		return nil
	}
	_, err := p.tx.ExecContext(ctx,
		`UPDATE client_projects SET `+column+` = TRUE, updated_at = NOW() WHERE id = $1`, projectID)
	return err
}

func (p *paymentTx) AddNotification(ctx context.Context, n *models.Notification) (bool, error) {
	res, err := p.tx.ExecContext(ctx, `
		INSERT INTO user_notifications (user_id, title, message, type, related_type, related_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, type, related_type, related_id) DO NOTHING
	`, n.UserID, n.Title, n.Message, n.Type, n.RelatedType, n.RelatedID)
	if err != nil {
		return false, err
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

func (p *paymentTx) AddAlert(ctx context.Context, a *models.AdminAlert) (bool, error) {
	res, err := p.tx.ExecContext(ctx, `
		INSERT INTO admin_alerts (alert_type, title, message, severity, related_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (alert_type, related_id) DO NOTHING
	`, a.AlertType, a.Title, a.Message, a.Severity, a.RelatedID)
	if err != nil {
		return false, err
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}
