package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/domain"
	domsession "github.com/kailas-cloud/toolsage/internal/domain/session"
)

// DefaultMaxMessages caps the transcript when no limit is configured.
const DefaultMaxMessages = 50

// Store persists sessions with a sliding TTL.
type Store interface {
	Get(ctx context.Context, id string) (domsession.Session, error)
	Save(ctx context.Context, s *domsession.Session) error
	Delete(ctx context.Context, id string) error
}

// Service manages conversation transcripts used as retrieval context.
type Service struct {
	store       Store
	maxMessages int
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a session service.
func New(store Store, maxMessages int, logger *zap.Logger) *Service {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Service{store: store, maxMessages: maxMessages, logger: logger, now: time.Now}
}

// Append adds a message, creating the session when it does not exist or has expired.
func (s *Service) Append(ctx context.Context, id, role, content string) (domsession.Session, error) {
	if err := domsession.ValidateMessage(role, content); err != nil {
		return domsession.Session{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	sess, err := s.load(ctx, id)
	if err != nil {
		return domsession.Session{}, err
	}

	sess.Append(role, content, s.now(), s.maxMessages)
	if err := s.store.Save(ctx, &sess); err != nil {
		return domsession.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// SetTopic records the current conversation topic.
func (s *Service) SetTopic(ctx context.Context, id, topic string) error {
	sess, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	sess.CurrentTopic = strings.TrimSpace(topic)
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, &sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Context returns the session transcript as retrieval context.
// Unknown or expired sessions yield an empty context.
func (s *Service) Context(ctx context.Context, id string) (domain.KnowledgeContext, error) {
	if id == "" {
		return domain.KnowledgeContext{}, nil
	}
	sess, err := s.store.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		s.logger.Debug("Session not found, using empty context", zap.String("session_id", id))
		return domain.KnowledgeContext{}, nil
	}
	if err != nil {
		return domain.KnowledgeContext{}, fmt.Errorf("get session: %w", err)
	}
	return sess.KnowledgeContext(), nil
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (domsession.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		sess, err = domsession.New(id, s.now())
		if err != nil {
			return domsession.Session{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
		return sess, nil
	}
	if err != nil {
		return domsession.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}
