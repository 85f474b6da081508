package cvs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. Documents are stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a saved CV.
func (r *PGRepo) Create(ctx context.Context, cv SavedCV) error {
	const query = `
INSERT INTO saved_cvs (
    id, user_id, title, template_id, document, version, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	doc, err := json.Marshal(cv.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		cv.ID,
		cv.UserID,
		cv.Title,
		cv.TemplateID,
		string(doc),
		int64(cv.Version),
		cv.CreatedAt,
		cv.UpdatedAt,
	)
	return err
}

// Update overwrites a live CV owned by cv.UserID.
func (r *PGRepo) Update(ctx context.Context, cv SavedCV) error {
	const query = `
UPDATE saved_cvs
SET title = $1, template_id = $2, document = $3, version = $4, updated_at = $5
WHERE id = $6 AND user_id = $7 AND deleted_at IS NULL`

	doc, err := json.Marshal(cv.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, query,
		cv.Title,
		cv.TemplateID,
		string(doc),
		int64(cv.Version),
		cv.UpdatedAt,
		cv.ID,
		cv.UserID,
	)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a live CV by ID. CVs of other users yield ErrForbidden.
func (r *PGRepo) GetByID(ctx context.Context, userID, cvID string) (SavedCV, error) {
	const query = `
SELECT id, user_id, title, template_id, document, version, created_at, updated_at
FROM saved_cvs
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`

	cv, err := scanCV(r.DB.QueryRowContext(ctx, query, cvID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SavedCV{}, ErrNotFound
		}
		return SavedCV{}, err
	}
	if cv.UserID != userID {
		return SavedCV{}, ErrForbidden
	}
	return cv, nil
}

// ListByUser lists live CVs, most recently updated first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]SavedCV, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, title, template_id, document, version, created_at, updated_at
FROM saved_cvs
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY updated_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SavedCV{}
	for rows.Next() {
		cv, err := scanCV(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, rows.Err()
}

// SoftDelete marks a live CV as deleted.
func (r *PGRepo) SoftDelete(ctx context.Context, userID, cvID string, at time.Time) error {
	const query = `
UPDATE saved_cvs
SET deleted_at = $1
WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, at, cvID, userID)
	if err != nil {
		return err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimGuest reassigns CVs owned by a guest user to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	const query = `
UPDATE saved_cvs
SET user_id = $1
WHERE user_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	updated, _ := res.RowsAffected()
	return int(updated), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCV(row rowScanner) (SavedCV, error) {
	var (
		cv      SavedCV
		raw     []byte
		version int64
	)
	if err := row.Scan(
		&cv.ID,
		&cv.UserID,
		&cv.Title,
		&cv.TemplateID,
		&raw,
		&version,
		&cv.CreatedAt,
		&cv.UpdatedAt,
	); err != nil {
		return SavedCV{}, err
	}
	if err := json.Unmarshal(raw, &cv.Document); err != nil {
		return SavedCV{}, fmt.Errorf("decode document %s: %w", cv.ID, err)
	}
	cv.Document = cv.Document.Normalize()
	if version > 0 {
		cv.Version = uint64(version)
	}
	return cv, nil
}

var _ Repo = (*PGRepo)(nil)
