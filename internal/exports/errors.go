package exports

import "errors"

var (
	// ErrNotFound indicates an export does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the export belongs to someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrUnsupported is returned for formats the server is not set up to produce.
	ErrUnsupported = errors.New("export format not available")
)
