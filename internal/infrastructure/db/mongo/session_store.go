package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/holidaze/venue-auth/internal/core/domain"
)

const (
	sessionCollection = "sessions"
	sessionID         = "session"
)

// SessionStore keeps the whole session in one document so that the token
// and API key are always replaced together.
type SessionStore struct {
	coll *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{coll: db.Collection(sessionCollection)}
}

// sessionDocument field names match the slot names.
type sessionDocument struct {
	ID        string `bson:"_id"`
	Token     string `bson:"token,omitempty"`
	APIKey    string `bson:"apiKey,omitempty"`
	UpdatedAt int64  `bson:"updated_at"`
}

func newSessionDocument(values map[domain.Slot]string, now time.Time) sessionDocument {
	return sessionDocument{
		ID:        sessionID,
		Token:     values[domain.SlotToken],
		APIKey:    values[domain.SlotAPIKey],
		UpdatedAt: now.UTC().Unix(),
	}
}

func (d sessionDocument) slot(slot domain.Slot) (string, bool) {
	var v string
	switch slot {
	case domain.SlotToken:
		v = d.Token
	case domain.SlotAPIKey:
		v = d.APIKey
	}
	return v, v != ""
}

// unsetSlots builds the $unset update removing the given slots.
func unsetSlots(slots []domain.Slot) bson.M {
	fields := bson.M{}
	for _, slot := range slots {
		fields[string(slot)] = ""
	}
	return bson.M{"$unset": fields}
}

func (s *SessionStore) Read(ctx context.Context, slot domain.Slot) (string, bool, error) {
	var doc sessionDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find session: %w", err)
	}
	v, ok := doc.slot(slot)
	return v, ok, nil
}

// Write replaces the session document with a single upsert. Single-document
// writes are atomic, so the pair is never half applied.
func (s *SessionStore) Write(ctx context.Context, values map[domain.Slot]string) error {
	doc := newSessionDocument(values, time.Now())
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sessionID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, slots ...domain.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": sessionID}, unsetSlots(slots)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}
