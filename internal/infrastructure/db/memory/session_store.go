// Package memory holds a process-local SessionStore, used when no durable
// backend is configured and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/holidaze/venue-auth/internal/core/domain"
)

// SessionStore keeps session slots in a map.
type SessionStore struct {
	mu    sync.RWMutex
	slots map[domain.Slot]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{slots: make(map[domain.Slot]string)}
}

func (s *SessionStore) Read(_ context.Context, slot domain.Slot) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[slot]
	return v, ok, nil
}

func (s *SessionStore) Write(_ context.Context, values map[domain.Slot]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range domain.AllSlots {
		delete(s.slots, k)
	}
	for k, v := range values {
		s.slots[k] = v
	}
	return nil
}

func (s *SessionStore) Delete(_ context.Context, slots ...domain.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range slots {
		delete(s.slots, k)
	}
	return nil
}

func (s *SessionStore) Ping(context.Context) error {
	return nil
}
