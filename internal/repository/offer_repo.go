package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const offerColumns = `id, name, slug, description, features, price_starting_at, currency, duration_weeks,
	category, is_active, display_order, icon_name, color_theme, created_at, updated_at`

type offerRepo struct {
	db *database.DB
}

// NewOfferRepo creates a new offer repository
func NewOfferRepo(db *database.DB) OfferRepository {
	return &offerRepo{db: db}
}

func scanOffer(row rowScanner) (*models.Offer, error) {
	var o models.Offer
	var desc, category, icon, color sql.NullString
	var price sql.NullInt64
	var duration sql.NullInt32
	var features []byte
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &desc, &features, &price, &o.Currency, &duration,
		&category, &o.IsActive, &o.DisplayOrder, &icon, &color, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Description = desc.String
	o.Category = category.String
	o.IconName = icon.String
	o.ColorTheme = color.String
	if price.Valid {
		o.PriceStartingAt = &price.Int64
	}
	if duration.Valid {
		d := int(duration.Int32)
		o.DurationWeeks = &d
	}
	if err := json.Unmarshal(features, &o.Features); err != nil || o.Features == nil {
		o.Features = []string{}
	}
	return &o, nil
}

func featuresJSON(features []string) []byte {
	if features == nil {
		return []byte("[]")
	}
	data, _ := json.Marshal(features)
	return data
}

func (r *offerRepo) List(ctx context.Context, filter models.OfferFilter) ([]*models.Offer, int, error) {
	w := &whereBuilder{}
	if filter.ActiveOnly {
		w.add("is_active = TRUE")
	}
	if filter.Category != "" {
		w.add("category = ?", filter.Category)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM offers"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + offerColumns + " FROM offers" + w.String() +
		" ORDER BY display_order, name LIMIT " + w.arg(filter.Limit) + " OFFSET " + w.arg(filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	offers := make([]*models.Offer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, 0, err
		}
		offers = append(offers, o)
	}
	return offers, total, rows.Err()
}

func (r *offerRepo) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	o, err := scanOffer(r.db.QueryRowContext(ctx, "SELECT "+offerColumns+" FROM offers WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *offerRepo) GetBySlug(ctx context.Context, slug string) (*models.Offer, error) {
	o, err := scanOffer(r.db.QueryRowContext(ctx, "SELECT "+offerColumns+" FROM offers WHERE slug = $1", slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *offerRepo) Create(ctx context.Context, o *models.Offer) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO offers (name, slug, description, features, price_starting_at, currency, duration_weeks,
			category, is_active, display_order, icon_name, color_theme)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, o.Name, o.Slug, nullString(o.Description), featuresJSON(o.Features), o.PriceStartingAt, o.Currency,
		o.DurationWeeks, nullString(o.Category), o.IsActive, o.DisplayOrder, nullString(o.IconName),
		nullString(o.ColorTheme),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *offerRepo) Update(ctx context.Context, o *models.Offer) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE offers SET name = $1, slug = $2, description = $3, features = $4, price_starting_at = $5,
			currency = $6, duration_weeks = $7, category = $8, is_active = $9, display_order = $10,
			icon_name = $11, color_theme = $12, updated_at = NOW()
		WHERE id = $13
	`, o.Name, o.Slug, nullString(o.Description), featuresJSON(o.Features), o.PriceStartingAt, o.Currency,
		o.DurationWeeks, nullString(o.Category), o.IsActive, o.DisplayOrder, nullString(o.IconName),
		nullString(o.ColorTheme), o.ID)
	return affectedOrNotFound(res, err)
}

func (r *offerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM offers WHERE id = $1", id)
	return affectedOrNotFound(res, err)
}

func (r *offerRepo) Stats(ctx context.Context) (*models.OfferStats, error) {
	var s models.OfferStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active), COUNT(*) FILTER (WHERE NOT is_active) FROM offers
	`).Scan(&s.Total, &s.Active, &s.Inactive)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(category, 'uncategorized'), COUNT(*) FROM offers GROUP BY 1 ORDER BY 2 DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s.ByCategory = make([]models.NamedCount, 0)
	for rows.Next() {
		var nc models.NamedCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		s.ByCategory = append(s.ByCategory, nc)
	}
	return &s, rows.Err()
}
