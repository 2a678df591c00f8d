package repository

import (
	"context"
	"database/sql"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const articleSelect = `
	SELECT a.id, a.title, a.slug, a.excerpt, a.content, a.featured_image_url, a.author_id, a.rubrique_id,
		a.status, a.is_featured, a.views_count, a.published_at, a.created_at, a.updated_at,
		u.username, u.firstname, u.lastname, u.avatar_url, r.name, r.slug,
		(SELECT COUNT(*) FROM comments c WHERE c.article_id = a.id AND c.is_approved = TRUE)
	FROM articles a
	JOIN users u ON u.id = a.author_id
	LEFT JOIN rubriques r ON r.id = a.rubrique_id`

const articleFrom = `
	FROM articles a
	JOIN users u ON u.id = a.author_id
	LEFT JOIN rubriques r ON r.id = a.rubrique_id`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var a models.Article
	var excerpt, image, rubriqueID, avatar, rubriqueName, rubriqueSlug sql.NullString
	var firstname, lastname string
	var publishedAt sql.NullTime

	err := row.Scan(
		&a.ID, &a.Title, &a.Slug, &excerpt, &a.Content, &image, &a.AuthorID, &rubriqueID,
		&a.Status, &a.IsFeatured, &a.ViewsCount, &publishedAt, &a.CreatedAt, &a.UpdatedAt,
		&a.AuthorUsername, &firstname, &lastname, &avatar, &rubriqueName, &rubriqueSlug,
		&a.CommentsCount,
	)
	if err != nil {
		return nil, err
	}

	a.Excerpt = excerpt.String
	a.FeaturedImageURL = image.String
	a.RubriqueID = rubriqueID.String
	a.PublishedAt = timePtr(publishedAt)
	a.AuthorName = (&models.User{Firstname: firstname, Lastname: lastname}).FullName()
	a.AuthorAvatar = avatar.String
	a.RubriqueName = rubriqueName.String
	a.RubriqueSlug = rubriqueSlug.String
	return &a, nil
}

func articleWhere(filter models.ArticleFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != "" {
		w.add("a.status = ?", filter.Status)
	}
	if filter.RubriqueSlug != "" {
		w.add("r.slug = ?", filter.RubriqueSlug)
	}
	if filter.AuthorUsername != "" {
		w.add("u.username = ?", filter.AuthorUsername)
	}
	if filter.AuthorID != "" {
		w.add("a.author_id = ?", filter.AuthorID)
	}
	if filter.Featured != nil {
		w.add("a.is_featured = ?", *filter.Featured)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		w.add("(a.title ILIKE ? OR a.excerpt ILIKE ? OR a.content ILIKE ?)", pattern, pattern, pattern)
	}
	return w
}

// List returns a page of articles matching filter and the total match count
func (r *articleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	w := articleWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+articleFrom+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := articleSelect + w.String() +
		" ORDER BY a.published_at DESC NULLS LAST, a.created_at DESC" +
		" LIMIT " + w.arg(filter.Limit) + " OFFSET " + w.arg(filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles := make([]*models.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, a)
	}
	return articles, total, rows.Err()
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx, articleSelect+" WHERE a.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// GetBySlug retrieves an article by slug
func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx, articleSelect+" WHERE a.slug = $1", slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// Create inserts a new article. A duplicate slug surfaces as a unique violation.
func (r *articleRepo) Create(ctx context.Context, a *models.Article) error {
	query := `
		INSERT INTO articles (title, slug, excerpt, content, featured_image_url, author_id, rubrique_id,
			status, is_featured, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		a.Title, a.Slug, nullString(a.Excerpt), a.Content, nullString(a.FeaturedImageURL), a.AuthorID,
		nullString(a.RubriqueID), a.Status, a.IsFeatured, nullTime(a.PublishedAt),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Update overwrites the editable columns of an article
func (r *articleRepo) Update(ctx context.Context, a *models.Article) error {
	query := `
		UPDATE articles SET title = $1, slug = $2, excerpt = $3, content = $4, featured_image_url = $5,
			rubrique_id = $6, status = $7, is_featured = $8, published_at = $9, updated_at = NOW()
		WHERE id = $10
	`
	res, err := r.db.ExecContext(ctx, query,
		a.Title, a.Slug, nullString(a.Excerpt), a.Content, nullString(a.FeaturedImageURL),
		nullString(a.RubriqueID), a.Status, a.IsFeatured, nullTime(a.PublishedAt), a.ID,
	)
	return affectedOrNotFound(res, err)
}

// Delete removes an article and, by cascade, its comments
func (r *articleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	return affectedOrNotFound(res, err)
}

// IncrementViews bumps the view counter
func (r *articleRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE articles SET views_count = views_count + 1 WHERE id = $1", id)
	return err
}

// RecentByAuthor lists an author's latest published articles
func (r *articleRepo) RecentByAuthor(ctx context.Context, authorID string, limit int) ([]models.ArticleSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, slug, excerpt, featured_image_url, published_at, views_count
		FROM articles
		WHERE author_id = $1 AND status = 'published'
		ORDER BY published_at DESC
		LIMIT $2
	`, authorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ArticleSummary, 0)
	for rows.Next() {
		var s models.ArticleSummary
		var excerpt, image sql.NullString
		var publishedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.Title, &s.Slug, &excerpt, &image, &publishedAt, &s.ViewsCount); err != nil {
			return nil, err
		}
		s.Excerpt = excerpt.String
		s.FeaturedImageURL = image.String
		s.PublishedAt = timePtr(publishedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}
