// Package store defines the persistence interface for the TagNest server.
package store

import (
	"context"

	"github.com/tagnestapp/tagnest-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Clients
	CreateClient(ctx context.Context, client *domain.Client) error
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	GetClientByName(ctx context.Context, name string) (*domain.Client, error)
	GetClientByEmail(ctx context.Context, email string) (*domain.Client, error)
	GetClientByGoogleID(ctx context.Context, googleID string) (*domain.Client, error)
	GetClientByResetToken(ctx context.Context, token string) (*domain.Client, error)
	GetClientByVerifyToken(ctx context.Context, token string) (*domain.Client, error)
	ListClients(ctx context.Context) ([]*domain.Client, error)
	UpdateClient(ctx context.Context, client *domain.Client) error
	DeleteClient(ctx context.Context, id string) error

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	GetTagBySlug(ctx context.Context, slug string) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	ListTagsByClient(ctx context.Context, clientID string) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, tag *domain.Tag) error
	DeleteTag(ctx context.Context, id string) error
	IncrementTagScans(ctx context.Context, id string) error

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	TouchSession(ctx context.Context, id string) error
	DeleteSession(ctx context.Context, id string) error
	DeleteClientSessions(ctx context.Context, clientID string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)
}
