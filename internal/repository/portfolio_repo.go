package repository

import (
	"context"
	"database/sql"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const portfolioColumns = `id, title, description, alt_text, category, public_id, image_url, thumbnail_url,
	medium_url, width, height, display_order, is_featured, uploaded_by, created_at, updated_at`

type portfolioRepo struct {
	db *database.DB
}

// NewPortfolioRepo creates a new portfolio image repository
func NewPortfolioRepo(db *database.DB) PortfolioRepository {
	return &portfolioRepo{db: db}
}

func scanPortfolioImage(row rowScanner) (*models.PortfolioImage, error) {
	var img models.PortfolioImage
	var title, desc, alt, category, thumb, medium, uploadedBy sql.NullString
	var width, height sql.NullInt32
	err := row.Scan(&img.ID, &title, &desc, &alt, &category, &img.PublicID, &img.ImageURL, &thumb,
		&medium, &width, &height, &img.DisplayOrder, &img.IsFeatured, &uploadedBy, &img.CreatedAt, &img.UpdatedAt)
	if err != nil {
		return nil, err
	}
	img.Title = title.String
	img.Description = desc.String
	img.AltText = alt.String
	img.Category = category.String
	img.ThumbnailURL = thumb.String
	img.MediumURL = medium.String
	img.Width = int(width.Int32)
	img.Height = int(height.Int32)
	img.UploadedBy = uploadedBy.String
	return &img, nil
}

func (r *portfolioRepo) List(ctx context.Context, filter models.PortfolioFilter) ([]*models.PortfolioImage, int, error) {
	w := &whereBuilder{}
	if filter.Category != "" {
		w.add("category = ?", filter.Category)
	}
	if filter.Featured != nil {
		w.add("is_featured = ?", *filter.Featured)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM portfolio_images"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + portfolioColumns + " FROM portfolio_images" + w.String() +
		" ORDER BY display_order, created_at LIMIT " + w.arg(filter.Limit) + " OFFSET " + w.arg(filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*models.PortfolioImage, 0)
	for rows.Next() {
		img, err := scanPortfolioImage(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, img)
	}
	return out, total, rows.Err()
}

func (r *portfolioRepo) CreateBatch(ctx context.Context, images []*models.PortfolioImage) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		// serialize concurrent batches so positions stay unique
		if _, err := tx.ExecContext(ctx, "LOCK TABLE portfolio_images IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return err
		}
		var last int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(display_order), -1) FROM portfolio_images").Scan(&last); err != nil {
			return err
		}

		for _, img := range images {
			last++
			img.DisplayOrder = last
			err := tx.QueryRowContext(ctx, `
				INSERT INTO portfolio_images (title, description, category, public_id, image_url, thumbnail_url,
					medium_url, width, height, display_order, uploaded_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				RETURNING id, created_at, updated_at
			`, nullString(img.Title), nullString(img.Description), nullString(img.Category), img.PublicID, img.ImageURL,
				nullString(img.ThumbnailURL), nullString(img.MediumURL), nullInt(img.Width), nullInt(img.Height),
				img.DisplayOrder, nullString(img.UploadedBy),
			).Scan(&img.ID, &img.CreatedAt, &img.UpdatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *portfolioRepo) Update(ctx context.Context, id string, u *models.PortfolioImageUpdate) (*models.PortfolioImage, error) {
	img, err := scanPortfolioImage(r.db.QueryRowContext(ctx, `
		UPDATE portfolio_images SET title = COALESCE($1, title), description = COALESCE($2, description),
			alt_text = COALESCE($3, alt_text), category = COALESCE($4, category),
			is_featured = COALESCE($5, is_featured), updated_at = NOW()
		WHERE id = $6
		RETURNING `+portfolioColumns, u.Title, u.Description, u.AltText, u.Category, u.IsFeatured, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return img, err
}

func (r *portfolioRepo) Reorder(ctx context.Context, ids []string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			res, err := tx.ExecContext(ctx,
				"UPDATE portfolio_images SET display_order = $1, updated_at = NOW() WHERE id = $2", i, id)
			if err := affectedOrNotFound(res, err); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *portfolioRepo) Delete(ctx context.Context, id string) (*models.PortfolioImage, error) {
	img, err := scanPortfolioImage(r.db.QueryRowContext(ctx,
		"DELETE FROM portfolio_images WHERE id = $1 RETURNING "+portfolioColumns, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return img, err
}
