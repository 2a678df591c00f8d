package repository

import (
	"context"
	"database/sql"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const subscriberColumns = `id, email, firstname, lastname, status, subscription_source, ip_address, user_agent,
	subscribed_at, unsubscribed_at, created_at, updated_at`

type newsletterRepo struct {
	db *database.DB
}

// NewNewsletterRepo creates a new newsletter repository
func NewNewsletterRepo(db *database.DB) NewsletterRepository {
	return &newsletterRepo{db: db}
}

func scanSubscriber(row rowScanner) (*models.Subscriber, error) {
	var s models.Subscriber
	var first, last, source, ip, ua sql.NullString
	var unsubscribedAt sql.NullTime
	err := row.Scan(&s.ID, &s.Email, &first, &last, &s.Status, &source, &ip, &ua,
		&s.SubscribedAt, &unsubscribedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Firstname = first.String
	s.Lastname = last.String
	s.SubscriptionSource = source.String
	s.IPAddress = ip.String
	s.UserAgent = ua.String
	s.UnsubscribedAt = timePtr(unsubscribedAt)
	return &s, nil
}

func (r *newsletterRepo) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx,
		"SELECT "+subscriberColumns+" FROM newsletter_subscribers WHERE email = $1", email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *newsletterRepo) Create(ctx context.Context, s *models.Subscriber) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO newsletter_subscribers (email, firstname, lastname, status, subscription_source, ip_address, user_agent)
		VALUES ($1, $2, $3, 'active', $4, $5, $6)
		RETURNING id, status, subscribed_at, created_at, updated_at
	`, s.Email, nullString(s.Firstname), nullString(s.Lastname), nullString(s.SubscriptionSource),
		nullString(s.IPAddress), nullString(s.UserAgent),
	).Scan(&s.ID, &s.Status, &s.SubscribedAt, &s.CreatedAt, &s.UpdatedAt)
}

// Reactivate flips an unsubscribed address back to active
func (r *newsletterRepo) Reactivate(ctx context.Context, s *models.Subscriber) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE newsletter_subscribers SET status = 'active', unsubscribed_at = NULL, subscribed_at = NOW(),
			firstname = COALESCE($1, firstname), lastname = COALESCE($2, lastname),
			subscription_source = COALESCE($3, subscription_source), updated_at = NOW()
		WHERE email = $4
		RETURNING id, status, subscribed_at, created_at, updated_at
	`, nullString(s.Firstname), nullString(s.Lastname), nullString(s.SubscriptionSource), s.Email,
	).Scan(&s.ID, &s.Status, &s.SubscribedAt, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

// Unsubscribe marks an active address unsubscribed. ErrNotFound when not active.
func (r *newsletterRepo) Unsubscribe(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE newsletter_subscribers SET status = 'unsubscribed', unsubscribed_at = NOW(), updated_at = NOW()
		WHERE email = $1 AND status = 'active'
	`, email)
	return affectedOrNotFound(res, err)
}

func subscriberWhere(filter models.SubscriberFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		w.add("(email ILIKE ? OR firstname ILIKE ? OR lastname ILIKE ?)", p, p, p)
	}
	return w
}

func (r *newsletterRepo) List(ctx context.Context, filter models.SubscriberFilter) ([]*models.Subscriber, int, error) {
	w := subscriberWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM newsletter_subscribers"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + subscriberColumns + " FROM newsletter_subscribers" + w.String() +
		" ORDER BY subscribed_at DESC LIMIT " + w.arg(filter.Limit) + " OFFSET " + w.arg(filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*models.Subscriber, 0)
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *newsletterRepo) Stats(ctx context.Context) (*models.NewsletterStats, error) {
	var s models.NewsletterStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'unsubscribed'),
			COUNT(*) FILTER (WHERE status = 'active' AND subscribed_at > NOW() - INTERVAL '30 days')
		FROM newsletter_subscribers
	`).Scan(&s.Total, &s.Active, &s.Unsubscribed, &s.LastThirtyDays)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(subscription_source, 'unknown'), COUNT(*) FROM newsletter_subscribers
		WHERE status = 'active' GROUP BY 1 ORDER BY 2 DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s.BySource = make([]models.NamedCount, 0)
	for rows.Next() {
		var nc models.NamedCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		s.BySource = append(s.BySource, nc)
	}
	return &s, rows.Err()
}

// StreamAll streams subscribers for export, optionally limited to one status
func (r *newsletterRepo) StreamAll(ctx context.Context, status string, callback func(*models.Subscriber) error) error {
	w := subscriberWhere(models.SubscriberFilter{Status: status})
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+subscriberColumns+" FROM newsletter_subscribers"+w.String()+" ORDER BY subscribed_at", w.args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return err
		}
		if err := callback(s); err != nil {
			return err
		}
	}
	return rows.Err()
}
