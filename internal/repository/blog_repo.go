package repository

import (
	"context"
	"database/sql"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
	"github.com/lib/pq"
)

const blogSelect = `
	SELECT b.id, b.title, b.slug, b.excerpt, b.content, b.featured_image_url, b.author_id, b.category,
		b.tags, b.status, b.is_featured, b.views_count, b.published_at, b.created_at, b.updated_at,
		COALESCE(u.firstname || ' ' || u.lastname, '')
	FROM blog_posts b
	LEFT JOIN users u ON u.id = b.author_id`

type blogRepo struct {
	db *database.DB
}

// NewBlogRepo creates a new blog repository
func NewBlogRepo(db *database.DB) BlogRepository {
	return &blogRepo{db: db}
}

func scanBlogPost(row rowScanner) (*models.BlogPost, error) {
	var p models.BlogPost
	var excerpt, image, authorID, category sql.NullString
	var publishedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &excerpt, &p.Content, &image, &authorID, &category,
		pq.Array(&p.Tags), &p.Status, &p.IsFeatured, &p.ViewsCount, &publishedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.AuthorName)
	if err != nil {
		return nil, err
	}
	p.Excerpt = excerpt.String
	p.FeaturedImageURL = image.String
	p.AuthorID = authorID.String
	p.Category = category.String
	p.PublishedAt = timePtr(publishedAt)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

func (r *blogRepo) List(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, int, error) {
	w := &whereBuilder{}
	if filter.Status != "" {
		w.add("b.status = ?", filter.Status)
	}
	if filter.Category != "" {
		w.add("b.category = ?", filter.Category)
	}
	if filter.Tag != "" {
		w.add("? = ANY(b.tags)", filter.Tag)
	}
	if filter.Featured != nil {
		w.add("b.is_featured = ?", *filter.Featured)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blog_posts b"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := blogSelect + w.String() +
		" ORDER BY b.published_at DESC NULLS LAST, b.created_at DESC" +
		" LIMIT " + w.arg(filter.Limit) + " OFFSET " + w.arg(filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := make([]*models.BlogPost, 0)
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}

func (r *blogRepo) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	p, err := scanBlogPost(r.db.QueryRowContext(ctx, blogSelect+" WHERE b.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *blogRepo) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	p, err := scanBlogPost(r.db.QueryRowContext(ctx, blogSelect+" WHERE b.slug = $1", slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *blogRepo) Create(ctx context.Context, p *models.BlogPost) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO blog_posts (title, slug, excerpt, content, featured_image_url, author_id, category, tags,
			status, is_featured, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, p.Title, p.Slug, nullString(p.Excerpt), p.Content, nullString(p.FeaturedImageURL), nullString(p.AuthorID),
		nullString(p.Category), pq.Array(p.Tags), p.Status, p.IsFeatured, nullTime(p.PublishedAt),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *blogRepo) Update(ctx context.Context, p *models.BlogPost) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE blog_posts SET title = $1, slug = $2, excerpt = $3, content = $4, featured_image_url = $5,
			category = $6, tags = $7, status = $8, is_featured = $9, published_at = $10, updated_at = NOW()
		WHERE id = $11
	`, p.Title, p.Slug, nullString(p.Excerpt), p.Content, nullString(p.FeaturedImageURL), nullString(p.Category),
		pq.Array(p.Tags), p.Status, p.IsFeatured, nullTime(p.PublishedAt), p.ID)
	return affectedOrNotFound(res, err)
}

func (r *blogRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM blog_posts WHERE id = $1", id)
	return affectedOrNotFound(res, err)
}

func (r *blogRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE blog_posts SET views_count = views_count + 1 WHERE id = $1", id)
	return err
}

func (r *blogRepo) namedCounts(ctx context.Context, query string) ([]models.NamedCount, error) {
	rows, err := r.db.QueryContext(ctx, query)
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

// Categories counts published posts per category
func (r *blogRepo) Categories(ctx context.Context) ([]models.NamedCount, error) {
	return r.namedCounts(ctx, `
		SELECT category, COUNT(*) FROM blog_posts
		WHERE status = 'published' AND category IS NOT NULL AND category <> ''
		GROUP BY category ORDER BY COUNT(*) DESC, category
	`)
}

// Tags counts published posts per tag
func (r *blogRepo) Tags(ctx context.Context) ([]models.NamedCount, error) {
	return r.namedCounts(ctx, `
		SELECT tag, COUNT(*) FROM blog_posts, UNNEST(tags) AS tag
		WHERE status = 'published'
		GROUP BY tag ORDER BY COUNT(*) DESC, tag
	`)
}

func (r *blogRepo) Stats(ctx context.Context) (*models.BlogStats, error) {
	var s models.BlogStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'published'),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'archived'),
			COUNT(*) FILTER (WHERE is_featured),
			COALESCE(SUM(views_count), 0)
		FROM blog_posts
	`).Scan(&s.Total, &s.Published, &s.Drafts, &s.Archived, &s.Featured, &s.TotalViews)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
