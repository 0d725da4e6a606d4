package ports

import (
	"context"

	"github.com/holidaze/venue-auth/internal/core/domain"
)

// SessionStore is durable key-value storage for the persisted session slots.
type SessionStore interface {
	// Read returns the slot value and whether it was present.
	Read(ctx context.Context, slot domain.Slot) (string, bool, error)
	// Write replaces the persisted session in one atomic step: the given
	// slots are set and every other slot in domain.AllSlots is removed.
	Write(ctx context.Context, values map[domain.Slot]string) error
	// Delete removes the given slots. Missing slots are not an error.
	Delete(ctx context.Context, slots ...domain.Slot) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
