package repository

import (
	"context"
	"database/sql"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const commentSelect = `
	SELECT c.id, c.article_id, c.user_id, c.author_name, c.author_email, c.content, c.parent_comment_id,
		c.is_approved, c.created_at, c.updated_at, u.username, u.avatar_url, a.title
	FROM comments c
	LEFT JOIN users u ON u.id = c.user_id
	JOIN articles a ON a.id = c.article_id`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	var userID, authorName, authorEmail, parentID, username, avatar sql.NullString
	err := row.Scan(&c.ID, &c.ArticleID, &userID, &authorName, &authorEmail, &c.Content, &parentID,
		&c.IsApproved, &c.CreatedAt, &c.UpdatedAt, &username, &avatar, &c.ArticleTitle)
	if err != nil {
		return nil, err
	}
	c.UserID = userID.String
	c.AuthorName = authorName.String
	c.AuthorEmail = authorEmail.String
	c.ParentCommentID = parentID.String
	c.Username = username.String
	c.UserAvatar = avatar.String
	return &c, nil
}

func collectComments(rows *sql.Rows) ([]*models.Comment, error) {
	defer rows.Close()
	out := make([]*models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByArticle returns an article's comments in chronological order
func (r *commentRepo) ListByArticle(ctx context.Context, articleID string, includeUnapproved bool) ([]*models.Comment, error) {
	query := commentSelect + " WHERE c.article_id = $1"
	if !includeUnapproved {
		query += " AND c.is_approved = TRUE"
	}
	rows, err := r.db.QueryContext(ctx, query+" ORDER BY c.created_at", articleID)
	if err != nil {
		return nil, err
	}
	return collectComments(rows)
}

// ListPending returns comments awaiting moderation
func (r *commentRepo) ListPending(ctx context.Context, page models.Page) ([]*models.Comment, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments WHERE is_approved = FALSE").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		commentSelect+" WHERE c.is_approved = FALSE ORDER BY c.created_at DESC LIMIT $1 OFFSET $2",
		page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	comments, err := collectComments(rows)
	return comments, total, err
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+" WHERE c.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, c *models.Comment) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO comments (article_id, user_id, author_name, author_email, content, parent_comment_id, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, c.ArticleID, nullString(c.UserID), nullString(c.AuthorName), nullString(c.AuthorEmail), c.Content,
		nullString(c.ParentCommentID), c.IsApproved,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// UpdateContent replaces a comment's text
func (r *commentRepo) UpdateContent(ctx context.Context, id, content string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE comments SET content = $1, updated_at = NOW() WHERE id = $2", content, id)
	return affectedOrNotFound(res, err)
}

// Approve publishes a pending comment
func (r *commentRepo) Approve(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE comments SET is_approved = TRUE, updated_at = NOW() WHERE id = $1", id)
	return affectedOrNotFound(res, err)
}

// Delete removes a comment and its replies
func (r *commentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	return affectedOrNotFound(res, err)
}

// settingRepo stores runtime settings such as comment moderation
type settingRepo struct {
	db *database.DB
}

// NewSettingRepo creates a new setting repository
func NewSettingRepo(db *database.DB) SettingRepository {
	return &settingRepo{db: db}
}

func (r *settingRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT setting_value FROM settings WHERE setting_key = $1", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *settingRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (setting_key, setting_value) VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = NOW()
	`, key, value)
	return err
}
