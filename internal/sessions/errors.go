package sessions

import "errors"

var (
	// ErrNotFound covers unknown, expired and foreign sessions alike.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")
)
