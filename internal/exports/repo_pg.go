package exports

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts export metadata.
func (r *PGRepo) Create(ctx context.Context, exp Export) error {
	const query = `
INSERT INTO cv_exports (
    id, user_id, cv_id, format, template_id, file_name, content_type, size_bytes, storage_key, doc_version, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	var cvID sql.NullString
	if exp.CVID != "" {
		cvID = sql.NullString{String: exp.CVID, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		exp.ID,
		exp.UserID,
		cvID,
		string(exp.Format),
		exp.TemplateID,
		exp.FileName,
		exp.ContentType,
		exp.SizeBytes,
		exp.StorageKey,
		int64(exp.DocVersion),
		exp.CreatedAt,
	)
	return err
}

// GetByID returns an export by ID. Exports of other users yield ErrForbidden.
func (r *PGRepo) GetByID(ctx context.Context, userID, exportID string) (Export, error) {
	const query = `
SELECT id, user_id, cv_id, format, template_id, file_name, content_type, size_bytes, storage_key, doc_version, created_at
FROM cv_exports
WHERE id = $1
LIMIT 1`
	var (
		exp     Export
		cvID    sql.NullString
		format  string
		version int64
	)
	err := r.DB.QueryRowContext(ctx, query, exportID).Scan(
		&exp.ID,
		&exp.UserID,
		&cvID,
		&format,
		&exp.TemplateID,
		&exp.FileName,
		&exp.ContentType,
		&exp.SizeBytes,
		&exp.StorageKey,
		&version,
		&exp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Export{}, ErrNotFound
		}
		return Export{}, err
	}
	if exp.UserID != userID {
		return Export{}, ErrForbidden
	}
	exp.Format = Format(format)
	if cvID.Valid {
		exp.CVID = cvID.String
	}
	if version > 0 {
		exp.DocVersion = uint64(version)
	}
	return exp, nil
}

var _ Repo = (*PGRepo)(nil)
