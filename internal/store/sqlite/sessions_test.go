package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tagnestapp/tagnest-server/internal/domain"
	"github.com/tagnestapp/tagnest-server/internal/store"
)

// makeTestSession creates a domain.Session with sensible defaults for testing.
func makeTestSession(id, clientID string) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:         id,
		ClientID:   clientID,
		ExpiresAt:  now.Add(24 * time.Hour),
		CreatedAt:  now,
		LastSeenAt: now,
		IPAddress:  "192.0.2.1",
		UserAgent:  "test-agent/1.0",
	}
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")

	sess := makeTestSession("sess-1", "client-1")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ClientID != "client-1" {
		t.Errorf("ClientID: got %q, want client-1", got.ClientID)
	}
	if got.IPAddress != "192.0.2.1" {
		t.Errorf("IPAddress: got %q", got.IPAddress)
	}
	if got.UserAgent != "test-agent/1.0" {
		t.Errorf("UserAgent: got %q", got.UserAgent)
	}
	if got.ExpiresAt.Unix() != sess.ExpiresAt.Unix() {
		t.Errorf("ExpiresAt: got %v, want %v", got.ExpiresAt, sess.ExpiresAt)
	}
}

func TestTouchSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")

	sess := makeTestSession("sess-1", "client-1")
	sess.LastSeenAt = time.Now().Add(-time.Hour)
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := s.TouchSession(ctx, "sess-1"); err != nil {
		t.Fatalf("TouchSession: %v", err)
	}

	got, err := s.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !got.LastSeenAt.After(sess.LastSeenAt) {
		t.Errorf("LastSeenAt not advanced: %v", got.LastSeenAt)
	}

	if err := s.TouchSession(ctx, "sess-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")

	sess := makeTestSession("sess-1", "client-1")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := s.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteClientSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")
	seedClient(t, s, "client-2", "bob")

	if err := s.CreateSession(ctx, makeTestSession("sess-1", "client-1")); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.CreateSession(ctx, makeTestSession("sess-2", "client-1")); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.CreateSession(ctx, makeTestSession("sess-3", "client-2")); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := s.DeleteClientSessions(ctx, "client-1"); err != nil {
		t.Fatalf("DeleteClientSessions: %v", err)
	}

	if _, err := s.GetSession(ctx, "sess-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("sess-1 survived: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("sess-2 survived: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-3"); err != nil {
		t.Errorf("sess-3 should survive: %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")

	expired := makeTestSession("sess-old", "client-1")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	live := makeTestSession("sess-live", "client-1")

	if err := s.CreateSession(ctx, expired); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.CreateSession(ctx, live); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	n, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}

	if _, err := s.GetSession(ctx, "sess-old"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired session survived: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-live"); err != nil {
		t.Errorf("live session deleted: %v", err)
	}
}
