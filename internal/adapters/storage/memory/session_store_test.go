package memory

import (
	"errors"
	"testing"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	session := &domain.Session{ID: "s1", Phase: domain.PhaseIdle}

	if err := store.CreateSession(session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := store.CreateSession(session); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	got, err := store.GetSession("s1")
	if err != nil || got.ID != "s1" {
		t.Fatalf("GetSession = %v, %v", got, err)
	}

	session.Phase = domain.PhaseChatting
	if err := store.UpdateSession(session); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	if err := store.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := store.GetSession("s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := store.UpdateSession(session); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on update, got %v", err)
	}
}
