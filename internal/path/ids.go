package path

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator mints identifiers for paths and modifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDs generates random version 4 UUIDs.
type UUIDs struct{}

func (UUIDs) NewID() string {
	return uuid.NewString()
}

// SequenceIDs generates "<prefix>-1", "<prefix>-2", ... It is meant for
// tests and deterministic fixtures.
type SequenceIDs struct {
	Prefix string
	n      int
}

func (s *SequenceIDs) NewID() string {
	s.n++
	prefix := s.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, s.n)
}
