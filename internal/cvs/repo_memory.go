package cvs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]SavedCV // id -> cv
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]SavedCV)}
}

// Create stores a new saved CV.
func (r *MemoryRepo) Create(ctx context.Context, cv SavedCV) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[cv.ID]; exists {
		return ErrInvalidInput
	}
	cv.Document = cv.Document.Clone()
	r.data[cv.ID] = cv
	return nil
}

// Update replaces the title, template, document and version of a live CV.
func (r *MemoryRepo) Update(ctx context.Context, cv SavedCV) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.data[cv.ID]
	if !ok || current.DeletedAt != nil || current.UserID != cv.UserID {
		return ErrNotFound
	}
	current.Title = cv.Title
	current.TemplateID = cv.TemplateID
	current.Document = cv.Document.Clone()
	current.Version = cv.Version
	current.UpdatedAt = cv.UpdatedAt
	r.data[cv.ID] = current
	return nil
}

// GetByID returns a live CV. CVs of other users yield ErrForbidden.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, cvID string) (SavedCV, error) {
	if err := ctx.Err(); err != nil {
		return SavedCV{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cv, ok := r.data[cvID]
	if !ok || cv.DeletedAt != nil {
		return SavedCV{}, ErrNotFound
	}
	if cv.UserID != userID {
		return SavedCV{}, ErrForbidden
	}
	cv.Document = cv.Document.Clone()
	return cv, nil
}

// ListByUser returns live CVs for a user, most recently updated first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]SavedCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	var out []SavedCV
	for _, cv := range r.data {
		if cv.UserID == userID && cv.DeletedAt == nil {
			cv.Document = cv.Document.Clone()
			out = append(out, cv)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if offset >= len(out) {
		return []SavedCV{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// SoftDelete marks a live CV as deleted.
func (r *MemoryRepo) SoftDelete(ctx context.Context, userID, cvID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cv, ok := r.data[cvID]
	if !ok || cv.DeletedAt != nil || cv.UserID != userID {
		return ErrNotFound
	}
	cv.DeletedAt = &at
	r.data[cvID] = cv
	return nil
}

// ClaimGuest reassigns CVs owned by a guest user to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for id, cv := range r.data {
		if cv.UserID == guestUserID && cv.DeletedAt == nil {
			cv.UserID = authedUserID
			r.data[id] = cv
			moved++
		}
	}
	return moved, nil
}

var _ Repo = (*MemoryRepo)(nil)
