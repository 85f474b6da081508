package cvs

import "errors"

var (
	// ErrNotFound indicates a saved CV does not exist or was deleted.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the CV belongs to someone else.
	ErrForbidden = errors.New("forbidden")
)
