package store

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces entity identifiers that are unique within a session.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUIDv4 strings.
type UUIDGenerator struct{}

// NewID returns a fresh UUID.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator issues prefix-1, prefix-2, ... and is mostly useful in tests and demos.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Uint64
}

// NewID returns the next identifier in the sequence.
func (g *SequenceGenerator) NewID() string {
	return g.Prefix + strconv.FormatUint(g.n.Add(1), 10)
}
