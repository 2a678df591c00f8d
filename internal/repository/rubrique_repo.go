package repository

import (
	"context"
	"database/sql"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const rubriqueSelect = `
	SELECT r.id, r.name, r.slug, r.description, r.image_url, r.color_theme, r.display_order,
		r.created_at, r.updated_at,
		(SELECT COUNT(*) FROM articles a WHERE a.rubrique_id = r.id AND a.status = 'published')
	FROM rubriques r`

type rubriqueRepo struct {
	db *database.DB
}

// NewRubriqueRepo creates a new rubrique repository
func NewRubriqueRepo(db *database.DB) RubriqueRepository {
	return &rubriqueRepo{db: db}
}

func scanRubrique(row rowScanner) (*models.Rubrique, error) {
	var rb models.Rubrique
	var desc, image, color sql.NullString
	err := row.Scan(&rb.ID, &rb.Name, &rb.Slug, &desc, &image, &color, &rb.DisplayOrder,
		&rb.CreatedAt, &rb.UpdatedAt, &rb.ArticlesCount)
	if err != nil {
		return nil, err
	}
	rb.Description = desc.String
	rb.ImageURL = image.String
	rb.ColorTheme = color.String
	return &rb, nil
}

func (r *rubriqueRepo) List(ctx context.Context) ([]*models.Rubrique, error) {
	rows, err := r.db.QueryContext(ctx, rubriqueSelect+" ORDER BY r.display_order, r.name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Rubrique, 0)
	for rows.Next() {
		rb, err := scanRubrique(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rb)
	}
	return out, rows.Err()
}

func (r *rubriqueRepo) GetByID(ctx context.Context, id string) (*models.Rubrique, error) {
	rb, err := scanRubrique(r.db.QueryRowContext(ctx, rubriqueSelect+" WHERE r.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rb, err
}

func (r *rubriqueRepo) GetBySlug(ctx context.Context, slug string) (*models.Rubrique, error) {
	rb, err := scanRubrique(r.db.QueryRowContext(ctx, rubriqueSelect+" WHERE r.slug = $1", slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rb, err
}

func (r *rubriqueRepo) Create(ctx context.Context, rb *models.Rubrique) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO rubriques (name, slug, description, image_url, color_theme, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, rb.Name, rb.Slug, nullString(rb.Description), nullString(rb.ImageURL), nullString(rb.ColorTheme), rb.DisplayOrder,
	).Scan(&rb.ID, &rb.CreatedAt, &rb.UpdatedAt)
}

func (r *rubriqueRepo) Update(ctx context.Context, rb *models.Rubrique) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rubriques SET name = $1, slug = $2, description = $3, image_url = $4, color_theme = $5,
			display_order = $6, updated_at = NOW()
		WHERE id = $7
	`, rb.Name, rb.Slug, nullString(rb.Description), nullString(rb.ImageURL), nullString(rb.ColorTheme),
		rb.DisplayOrder, rb.ID)
	return affectedOrNotFound(res, err)
}

func (r *rubriqueRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM rubriques WHERE id = $1", id)
	return affectedOrNotFound(res, err)
}

// CountArticles counts articles of any status filed under the rubrique
func (r *rubriqueRepo) CountArticles(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE rubrique_id = $1", id).Scan(&n)
	return n, err
}
