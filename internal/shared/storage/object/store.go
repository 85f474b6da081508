package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cv-builder/internal/shared/util"
)

// ErrNotFound is returned by Open for keys that were never written or were deleted.
var ErrNotFound = errors.New("object not found")

// ObjectStore saves and retrieves binary objects by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Key builds "<namespace>/<hashed user>/<id>/<file name>". The user id is hashed so
// raw identities never appear in paths.
func Key(namespace, userID, id, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	if id == "" {
		return "", errors.New("object id is required")
	}
	return path.Join(namespace, util.HashUserKey(userID), id, name), nil
}
