package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tagnestapp/tagnest-server/internal/auth"
	"github.com/tagnestapp/tagnest-server/internal/domain"
	domainerrors "github.com/tagnestapp/tagnest-server/internal/errors"
	"github.com/tagnestapp/tagnest-server/internal/store"
)

// SessionService manages browser cookie sessions. The session ID is an
// opaque random value; expiry is enforced both at resolution time and by
// the periodic cleanup sweep.
type SessionService struct {
	store        store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewSessionService creates a new session management service.
func NewSessionService(
	store store.Store,
	tokenService *auth.TokenService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// CreateSession creates a new cookie session for a client.
func (s *SessionService) CreateSession(ctx context.Context, client *domain.Client, ipAddress, userAgent string) (*domain.Session, error) {
	sessionID, err := s.tokenService.GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:         sessionID,
		ClientID:   client.ID,
		ExpiresAt:  now.Add(s.tokenService.SessionDuration()),
		CreatedAt:  now,
		LastSeenAt: now,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

// ResolveSession looks up a session by its cookie value and verifies it has
// not expired. The last-seen timestamp is updated best-effort.
func (s *SessionService) ResolveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, domainerrors.InvalidCredentials("invalid or expired session").WithCause(err)
	}

	if session.IsExpired() {
		// Expired sessions are dead; remove eagerly rather than waiting
		// for the sweep.
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, domainerrors.InvalidCredentials("invalid or expired session")
	}

	if err := s.store.TouchSession(ctx, session.ID); err != nil {
		if s.logger != nil {
			s.logger.Warn("Failed to touch session", "error", err)
		}
	}

	return session, nil
}

// DeleteSession ends a session (logout).
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Session deleted")
	}

	return nil
}

// DeleteClientSessions revokes every session belonging to a client.
// Called on password reset and account deletion.
func (s *SessionService) DeleteClientSessions(ctx context.Context, clientID string) error {
	if err := s.store.DeleteClientSessions(ctx, clientID); err != nil {
		return fmt.Errorf("delete client sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
// This should be run periodically as a cleanup job.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	if s.logger != nil && count > 0 {
		s.logger.Info("Deleted expired sessions", "count", count)
	}

	return count, nil
}
