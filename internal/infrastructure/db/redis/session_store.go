package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/holidaze/venue-auth/internal/core/domain"
)

const DefaultKeyPrefix = "holidaze:session"

// SessionStore persists session slots as plain string keys.
// Key format: <prefix>:<slot>
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore wraps client. An empty prefix uses DefaultKeyPrefix.
func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) Read(ctx context.Context, slot domain.Slot) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(slot)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", slot, err)
	}
	return v, true, nil
}

// Write sets the given slots and deletes the others inside one MULTI/EXEC,
// so a token is never stored without its API key or next to a stale one.
func (s *SessionStore) Write(ctx context.Context, values map[domain.Slot]string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, slot := range domain.AllSlots {
			if v, ok := values[slot]; ok {
				pipe.Set(ctx, s.key(slot), v, 0)
			} else {
				pipe.Del(ctx, s.key(slot))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, slots ...domain.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	keys := make([]string, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, s.key(slot))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) key(slot domain.Slot) string {
	return fmt.Sprintf("%s:%s", s.prefix, slot)
}
