package cvs

import (
	"context"
	"time"
)

// Repo defines persistence operations for saved CVs.
type Repo interface {
	Create(ctx context.Context, cv SavedCV) error
	Update(ctx context.Context, cv SavedCV) error
	GetByID(ctx context.Context, userID, cvID string) (SavedCV, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]SavedCV, error)
	SoftDelete(ctx context.Context, userID, cvID string, at time.Time) error
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}
