package exports

import "context"

// Repo defines persistence operations for export metadata.
type Repo interface {
	Create(ctx context.Context, exp Export) error
	GetByID(ctx context.Context, userID, exportID string) (Export, error)
}
