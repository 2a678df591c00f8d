package repository

import (
	"context"
	"database/sql"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const projectFileColumns = `f.id, f.project_id, f.uploaded_by, f.file_name, f.mime_type, f.size, f.public_id,
	f.resource_type, f.file_url, f.description, f.created_at, f.updated_at`

const projectFileSelect = "SELECT " + projectFileColumns + `, COALESCE(TRIM(u.firstname || ' ' || u.lastname), '')
	FROM project_files f LEFT JOIN users u ON u.id = f.uploaded_by`

type projectFileRepo struct {
	db *database.DB
}

// NewProjectFileRepo creates a new project file repository
func NewProjectFileRepo(db *database.DB) ProjectFileRepository {
	return &projectFileRepo{db: db}
}

func scanProjectFile(row rowScanner, withName bool) (*models.ProjectFile, error) {
	var f models.ProjectFile
	var uploadedBy, desc sql.NullString
	dest := []any{&f.ID, &f.ProjectID, &uploadedBy, &f.FileName, &f.MimeType, &f.Size, &f.PublicID,
		&f.ResourceType, &f.FileURL, &desc, &f.CreatedAt, &f.UpdatedAt}
	if withName {
		dest = append(dest, &f.UploadedByName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	f.UploadedBy = uploadedBy.String
	f.Description = desc.String
	return &f, nil
}

func (r *projectFileRepo) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectFile, error) {
	rows, err := r.db.QueryContext(ctx, projectFileSelect+" WHERE f.project_id = $1 ORDER BY f.created_at DESC", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.ProjectFile, 0)
	for rows.Next() {
		f, err := scanProjectFile(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *projectFileRepo) Get(ctx context.Context, projectID, fileID string) (*models.ProjectFile, error) {
	f, err := scanProjectFile(r.db.QueryRowContext(ctx,
		projectFileSelect+" WHERE f.id = $1 AND f.project_id = $2", fileID, projectID), true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func (r *projectFileRepo) CreateBatch(ctx context.Context, files []*models.ProjectFile) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, f := range files {
			err := tx.QueryRowContext(ctx, `
				INSERT INTO project_files (project_id, uploaded_by, file_name, mime_type, size, public_id,
					resource_type, file_url, description)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id, created_at, updated_at
			`, f.ProjectID, nullString(f.UploadedBy), f.FileName, f.MimeType, f.Size, f.PublicID,
				f.ResourceType, f.FileURL, nullString(f.Description),
			).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *projectFileRepo) Update(ctx context.Context, projectID, fileID string, u *models.ProjectFileUpdate) (*models.ProjectFile, error) {
	f, err := scanProjectFile(r.db.QueryRowContext(ctx, `
		UPDATE project_files f SET file_name = COALESCE($1, f.file_name),
			description = COALESCE($2, f.description), updated_at = NOW()
		WHERE f.id = $3 AND f.project_id = $4
		RETURNING `+projectFileColumns, u.FileName, u.Description, fileID, projectID), false)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return f, err
}

func (r *projectFileRepo) Delete(ctx context.Context, projectID, fileID string) (*models.ProjectFile, error) {
	f, err := scanProjectFile(r.db.QueryRowContext(ctx,
		"DELETE FROM project_files f WHERE f.id = $1 AND f.project_id = $2 RETURNING "+projectFileColumns,
		fileID, projectID), false)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return f, err
}
