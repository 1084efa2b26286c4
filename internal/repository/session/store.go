package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/toolsage/internal/db"
	"github.com/kailas-cloud/toolsage/internal/domain"
	domsession "github.com/kailas-cloud/toolsage/internal/domain/session"
)

// store is the consumer interface for sessions (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store keeps sessions as JSON values that expire after ttl without writes.
type Store struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// New creates a session store.
func New(s store, keyPrefix string, ttl time.Duration) *Store {
	return &Store{store: s, keyPrefix: keyPrefix + "session:", ttl: ttl}
}

// Get loads a session. Expired or unknown ids yield domain.ErrSessionNotFound.
func (s *Store) Get(ctx context.Context, id string) (domsession.Session, error) {
	data, err := s.store.Get(ctx, s.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsession.Session{}, domain.ErrSessionNotFound
		}
		return domsession.Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	var sess domsession.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domsession.Session{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return sess, nil
}

// Save writes a session and restarts its TTL.
func (s *Store) Save(ctx context.Context, sess *domsession.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.store.SetWithTTL(ctx, s.key(sess.ID), data, s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.store.Del(ctx, s.key(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (s *Store) key(id string) string {
	return s.keyPrefix + id
}
