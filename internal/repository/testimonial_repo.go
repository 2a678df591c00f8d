package repository

import (
	"context"
	"database/sql"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const testimonialColumns = `id, user_id, author_name, author_company, author_position, author_avatar_url,
	content, rating, is_approved, is_featured, created_at, updated_at`

type testimonialRepo struct {
	db *database.DB
}

// NewTestimonialRepo creates a new testimonial repository
func NewTestimonialRepo(db *database.DB) TestimonialRepository {
	return &testimonialRepo{db: db}
}

func scanTestimonial(row rowScanner) (*models.Testimonial, error) {
	var t models.Testimonial
	var userID, company, position, avatar sql.NullString
	var rating sql.NullInt32
	err := row.Scan(&t.ID, &userID, &t.AuthorName, &company, &position, &avatar,
		&t.Content, &rating, &t.IsApproved, &t.IsFeatured, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.UserID = userID.String
	t.AuthorCompany = company.String
	t.AuthorPosition = position.String
	t.AuthorAvatarURL = avatar.String
	t.Rating = int(rating.Int32)
	return &t, nil
}

func (r *testimonialRepo) List(ctx context.Context, filter models.TestimonialFilter) ([]*models.Testimonial, int, error) {
	w := &whereBuilder{}
	if filter.Approved != nil {
		w.add("is_approved = ?", *filter.Approved)
	}
	if filter.Featured != nil {
		w.add("is_featured = ?", *filter.Featured)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM testimonials"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + testimonialColumns + " FROM testimonials" + w.String() +
		" ORDER BY is_featured DESC, created_at DESC LIMIT " + w.arg(filter.Limit) + " OFFSET " + w.arg(filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*models.Testimonial, 0)
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *testimonialRepo) GetByID(ctx context.Context, id string) (*models.Testimonial, error) {
	t, err := scanTestimonial(r.db.QueryRowContext(ctx, "SELECT "+testimonialColumns+" FROM testimonials WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *testimonialRepo) Create(ctx context.Context, t *models.Testimonial) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO testimonials (user_id, author_name, author_company, author_position, author_avatar_url,
			content, rating, is_approved, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, nullString(t.UserID), t.AuthorName, nullString(t.AuthorCompany), nullString(t.AuthorPosition),
		nullString(t.AuthorAvatarURL), t.Content, nullInt(t.Rating), t.IsApproved, t.IsFeatured,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *testimonialRepo) Update(ctx context.Context, t *models.Testimonial) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE testimonials SET author_name = $1, author_company = $2, author_position = $3,
			author_avatar_url = $4, content = $5, rating = $6, is_approved = $7, is_featured = $8,
			updated_at = NOW()
		WHERE id = $9
	`, t.AuthorName, nullString(t.AuthorCompany), nullString(t.AuthorPosition), nullString(t.AuthorAvatarURL),
		t.Content, nullInt(t.Rating), t.IsApproved, t.IsFeatured, t.ID)
	return affectedOrNotFound(res, err)
}

func (r *testimonialRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM testimonials WHERE id = $1", id)
	return affectedOrNotFound(res, err)
}

func (r *testimonialRepo) Stats(ctx context.Context) (*models.TestimonialStats, error) {
	var s models.TestimonialStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_approved),
			COUNT(*) FILTER (WHERE NOT is_approved),
			COUNT(*) FILTER (WHERE is_featured),
			COALESCE(AVG(rating) FILTER (WHERE is_approved), 0)
		FROM testimonials
	`).Scan(&s.Total, &s.Approved, &s.Pending, &s.Featured, &s.AverageRating)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
