package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const contactColumns = `id, name, email, phone, subject, message, ip_address, user_agent, is_read, status,
	priority, assigned_to, replied_at, replied_by, created_at, updated_at`

type contactRepo struct {
	db *database.DB
}

// NewContactRepo creates a new contact repository
func NewContactRepo(db *database.DB) ContactRepository {
	return &contactRepo{db: db}
}

func scanContact(row rowScanner) (*models.ContactMessage, error) {
	var m models.ContactMessage
	var phone, subject, ip, ua, assigned, repliedBy sql.NullString
	var repliedAt sql.NullTime
	err := row.Scan(&m.ID, &m.Name, &m.Email, &phone, &subject, &m.Message, &ip, &ua, &m.IsRead, &m.Status,
		&m.Priority, &assigned, &repliedAt, &repliedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Phone = phone.String
	m.Subject = subject.String
	m.IPAddress = ip.String
	m.UserAgent = ua.String
	m.AssignedTo = assigned.String
	m.RepliedBy = repliedBy.String
	m.RepliedAt = timePtr(repliedAt)
	return &m, nil
}

func (r *contactRepo) Create(ctx context.Context, m *models.ContactMessage) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO contact_messages (name, email, phone, subject, message, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, priority, created_at, updated_at
	`, m.Name, m.Email, nullString(m.Phone), nullString(m.Subject), m.Message, nullString(m.IPAddress),
		nullString(m.UserAgent),
	).Scan(&m.ID, &m.Status, &m.Priority, &m.CreatedAt, &m.UpdatedAt)
}

func (r *contactRepo) GetByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	m, err := scanContact(r.db.QueryRowContext(ctx, "SELECT "+contactColumns+" FROM contact_messages WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *contactRepo) List(ctx context.Context, filter models.ContactFilter) ([]*models.ContactMessage, int, error) {
	w := &whereBuilder{}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		w.add("priority = ?", filter.Priority)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		w.add("(name ILIKE ? OR email ILIKE ? OR subject ILIKE ? OR message ILIKE ?)", p, p, p, p)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contact_messages"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + contactColumns + " FROM contact_messages" + w.String() +
		" ORDER BY created_at DESC LIMIT " + w.arg(filter.Limit) + " OFFSET " + w.arg(filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*models.ContactMessage, 0)
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *contactRepo) Stats(ctx context.Context) (*models.ContactStats, error) {
	var s models.ContactStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'new'),
			COUNT(*) FILTER (WHERE status = 'read'),
			COUNT(*) FILTER (WHERE status = 'replied'),
			COUNT(*) FILTER (WHERE status = 'archived'),
			COUNT(*) FILTER (WHERE priority = 'urgent' AND status <> 'archived'),
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '7 days')
		FROM contact_messages
	`).Scan(&s.Total, &s.New, &s.Read, &s.Replied, &s.Archived, &s.Urgent, &s.LastSevenDays)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *contactRepo) Replies(ctx context.Context, messageID string) ([]models.ContactReply, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cr.id, cr.message_id, cr.admin_id, COALESCE(u.firstname || ' ' || u.lastname, ''), cr.reply_text, cr.created_at
		FROM contact_message_replies cr
		LEFT JOIN users u ON u.id = cr.admin_id
		WHERE cr.message_id = $1
		ORDER BY cr.created_at
	`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ContactReply, 0)
	for rows.Next() {
		var reply models.ContactReply
		var adminID sql.NullString
		if err := rows.Scan(&reply.ID, &reply.MessageID, &adminID, &reply.AdminName, &reply.ReplyText, &reply.CreatedAt); err != nil {
			return nil, err
		}
		reply.AdminID = adminID.String
		out = append(out, reply)
	}
	return out, rows.Err()
}

// AddReply moves the message to replied and records the reply in one
// transaction. The message row is touched first so a missing message
// surfaces as ErrNotFound rather than a foreign key violation.
func (r *contactRepo) AddReply(ctx context.Context, reply *models.ContactReply) (*models.ContactMessage, error) {
	var msg *models.ContactMessage
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		msg, err = scanContact(tx.QueryRowContext(ctx, `
			UPDATE contact_messages SET status = 'replied', is_read = TRUE, replied_at = $1, replied_by = $2,
				updated_at = NOW()
			WHERE id = $3
			RETURNING `+contactColumns, time.Now(), nullString(reply.AdminID), reply.MessageID))
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO contact_message_replies (message_id, admin_id, reply_text)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, reply.MessageID, nullString(reply.AdminID), reply.ReplyText).Scan(&reply.ID, &reply.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *contactRepo) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE contact_messages SET is_read = TRUE,
			status = CASE WHEN status = 'new' THEN 'read' ELSE status END, updated_at = NOW()
		WHERE id = $1 AND is_read = FALSE
	`, id)
	return err
}

func (r *contactRepo) Update(ctx context.Context, id string, u *models.ContactUpdate) (*models.ContactMessage, error) {
	m, err := scanContact(r.db.QueryRowContext(ctx, `
		UPDATE contact_messages SET status = COALESCE($1, status), priority = COALESCE($2, priority),
			assigned_to = COALESCE($3::uuid, assigned_to), updated_at = NOW()
		WHERE id = $4
		RETURNING `+contactColumns, u.Status, u.Priority, u.AssignedTo, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *contactRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM contact_messages WHERE id = $1", id)
	return affectedOrNotFound(res, err)
}

func (r *contactRepo) StreamAll(ctx context.Context, callback func(*models.ContactMessage) error) error {
	rows, err := r.db.QueryContext(ctx, "SELECT "+contactColumns+" FROM contact_messages ORDER BY created_at")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return err
		}
		if err := callback(m); err != nil {
			return err
		}
	}
	return rows.Err()
}
