package exports

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Export
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Export)}
}

// Create stores export metadata.
func (r *MemoryRepo) Create(ctx context.Context, exp Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[exp.ID] = exp
	return nil
}

// GetByID returns an export. Exports of other users yield ErrForbidden.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, exportID string) (Export, error) {
	if err := ctx.Err(); err != nil {
		return Export{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.data[exportID]
	if !ok {
		return Export{}, ErrNotFound
	}
	if exp.UserID != userID {
		return Export{}, ErrForbidden
	}
	return exp, nil
}

var _ Repo = (*MemoryRepo)(nil)
