package session

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNew_RequiresID(t *testing.T) {
	if _, err := New("  ", time.Now()); err == nil {
		t.Fatal("expected error for blank id")
	}
}

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		role, content string
		wantErr       bool
	}{
		{RoleUser, "hello", false},
		{RoleAssistant, "hi", false},
		{"robot", "hello", true},
		{RoleUser, "   ", true},
		{RoleUser, strings.Repeat("x", MaxMessageLength+1), true},
	}
	for _, tc := range tests {
		err := ValidateMessage(tc.role, tc.content)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateMessage(%q, len=%d) error = %v, wantErr %v", tc.role, len(tc.content), err, tc.wantErr)
		}
	}
}

func TestAppend_TrimsToMax(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s, _ := New("s1", now)

	for i := range 5 {
		s.Append(RoleUser, fmt.Sprintf("m%d", i), now.Add(time.Duration(i)*time.Second), 3)
	}

	if len(s.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(s.Messages))
	}
	if s.Messages[0].Content != "m2" || s.Messages[2].Content != "m4" {
		t.Errorf("expected newest messages m2..m4, got %v", s.Messages)
	}
	if !s.UpdatedAt.Equal(now.Add(4 * time.Second)) {
		t.Errorf("UpdatedAt not refreshed: %v", s.UpdatedAt)
	}
}

func TestKnowledgeContext(t *testing.T) {
	s, _ := New("s1", time.Now())
	s.CurrentTopic = "survey tools"
	s.Append(RoleUser, "a", time.Now(), 0)
	s.Append(RoleAssistant, "b", time.Now(), 0)
	s.Append(RoleUser, "c", time.Now(), 0)

	kctx := s.KnowledgeContext()
	if kctx.CurrentTopic != "survey tools" {
		t.Errorf("unexpected topic: %q", kctx.CurrentTopic)
	}
	last := kctx.LastMessages(2)
	if len(last) != 2 || last[0].Content != "b" {
		t.Errorf("unexpected last messages: %v", last)
	}
}
