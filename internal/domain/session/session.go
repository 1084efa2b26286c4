package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/toolsage/internal/domain"
)

// Conversation roles accepted in a session transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// MaxMessageLength is the maximum length of a single message in bytes.
const MaxMessageLength = 16384

// Session is a bounded conversation transcript used to build a KnowledgeContext.
type Session struct {
	ID           string           `json:"id"`
	Messages     []domain.Message `json:"messages"`
	CurrentTopic string           `json:"current_topic,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// New creates an empty session.
func New(id string, now time.Time) (Session, error) {
	if strings.TrimSpace(id) == "" {
		return Session{}, fmt.Errorf("session ID is required")
	}
	return Session{ID: id, Messages: []domain.Message{}, UpdatedAt: now}, nil
}

// ValidateMessage checks a message before it joins the transcript.
func ValidateMessage(role, content string) error {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message content is required")
	}
	if len(content) > MaxMessageLength {
		return fmt.Errorf("message too long (max %d bytes)", MaxMessageLength)
	}
	return nil
}

// Append adds a message and keeps only the newest maxMessages entries.
func (s *Session) Append(role, content string, at time.Time, maxMessages int) {
	s.Messages = append(s.Messages, domain.Message{Role: role, Content: content, At: at})
	if maxMessages > 0 && len(s.Messages) > maxMessages {
		s.Messages = append([]domain.Message(nil), s.Messages[len(s.Messages)-maxMessages:]...)
	}
	s.UpdatedAt = at
}

// KnowledgeContext returns the transcript as retrieval context.
func (s *Session) KnowledgeContext() domain.KnowledgeContext {
	return domain.KnowledgeContext{RecentMessages: s.Messages, CurrentTopic: s.CurrentTopic}
}
