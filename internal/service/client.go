package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tagnestapp/tagnest-server/internal/auth"
	"github.com/tagnestapp/tagnest-server/internal/domain"
	domainerrors "github.com/tagnestapp/tagnest-server/internal/errors"
	"github.com/tagnestapp/tagnest-server/internal/media/images"
	"github.com/tagnestapp/tagnest-server/internal/store"
	"github.com/tagnestapp/tagnest-server/internal/validation"
)

// ClientService handles self-service account management for an already
// authenticated client.
type ClientService struct {
	store        store.Store
	sessions     *SessionService
	mailer       Mailer
	imageStorage *images.Storage
	baseURL      string
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewClientService creates a new client account service.
func NewClientService(
	store store.Store,
	sessions *SessionService,
	mailer Mailer,
	imageStorage *images.Storage,
	baseURL string,
	logger *slog.Logger,
) *ClientService {
	return &ClientService{
		store:        store,
		sessions:     sessions,
		mailer:       mailer,
		imageStorage: imageStorage,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		validator:    validation.New(),
		logger:       logger,
	}
}

// UpdateClientRequest carries a partial account update. Nil fields are
// left unchanged.
type UpdateClientRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=64"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// ChangePasswordRequest sets a new password. CurrentPassword is required
// only when the account already has one; a Google-only account sets its
// first password without it.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,max=1024"`
}

// ExportData is everything the server stores about one client, suitable
// for handing back to its owner.
type ExportData struct {
	Client *domain.Client `json:"client"`
	Tags   []*domain.Tag  `json:"tags"`
}

// Get returns the client with its tags.
func (s *ClientService) Get(ctx context.Context, clientID string) (*domain.Client, []*domain.Tag, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.NotFound("client not found")
		}
		return nil, nil, fmt.Errorf("get client: %w", err)
	}

	tags, err := s.store.ListTagsByClient(ctx, clientID)
	if err != nil {
		return nil, nil, fmt.Errorf("list tags: %w", err)
	}

	return client, tags, nil
}

// Update applies a partial account update. Changing the email address
// resets verification and triggers a fresh verification mail.
func (s *ClientService) Update(ctx context.Context, client *domain.Client, req UpdateClientRequest) (*domain.Client, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	changed := false
	emailChanged := false

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != client.Name {
			client.Name = name
			changed = true
		}
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != client.Email {
			client.Email = email
			client.EmailVerified = false
			client.VerifyToken = ""
			client.VerifyTokenExpiry = nil
			if email != "" {
				expiry := time.Now().Add(verifyTokenTTL)
				client.VerifyToken = uuid.NewString()
				client.VerifyTokenExpiry = &expiry
				emailChanged = true
			}
			changed = true
		}
	}

	if !changed {
		return client, nil
	}

	client.Touch()
	if err := s.store.UpdateClient(ctx, client); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("name or email already in use")
		}
		return nil, fmt.Errorf("update client: %w", err)
	}

	if emailChanged && s.mailer != nil {
		verifyURL := s.baseURL + "/verify-email?token=" + client.VerifyToken
		if err := s.mailer.SendVerification(ctx, client.Email, client.Name, verifyURL); err != nil {
			if s.logger != nil {
				s.logger.Warn("Failed to send verification mail", "client_id", client.ID, "error", err)
			}
		}
	}

	if s.logger != nil {
		s.logger.Info("Client updated", "client_id", client.ID)
	}

	return client, nil
}

// ChangePassword replaces the account password.
func (s *ClientService) ChangePassword(ctx context.Context, client *domain.Client, req ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	if client.HasPassword() {
		if req.CurrentPassword == "" {
			return domainerrors.Validation("current password is required")
		}
		valid, err := auth.VerifyPassword(client.PasswordHash, req.CurrentPassword)
		if err != nil {
			return fmt.Errorf("verify password: %w", err)
		}
		if !valid {
			return domainerrors.InvalidCredentials("current password is incorrect")
		}
	}

	if problems := auth.CheckPasswordPolicy(req.NewPassword); len(problems) > 0 {
		return domainerrors.Validation(auth.PolicyError(problems))
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	client.PasswordHash = passwordHash
	client.Touch()

	if err := s.store.UpdateClient(ctx, client); err != nil {
		return fmt.Errorf("update client: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Password changed", "client_id", client.ID)
	}

	return nil
}

// Export collects the client's stored data for download.
func (s *ClientService) Export(ctx context.Context, clientID string) (*ExportData, error) {
	client, tags, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &ExportData{Client: client, Tags: tags}, nil
}

// Delete removes the account with its tags and sessions. Tag image files
// are cleaned up best-effort; a stranded file is not worth failing the
// deletion over.
func (s *ClientService) Delete(ctx context.Context, client *domain.Client) error {
	tags, err := s.store.ListTagsByClient(ctx, client.ID)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}

	if err := s.store.DeleteClient(ctx, client.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("client not found")
		}
		return fmt.Errorf("delete client: %w", err)
	}

	if s.imageStorage != nil {
		for _, tag := range tags {
			if !tag.HasImage() {
				continue
			}
			if err := s.imageStorage.Delete(tag.ImageID); err != nil {
				if s.logger != nil {
					s.logger.Warn("Failed to delete tag image", "tag_id", tag.ID, "error", err)
				}
			}
		}
	}

	if s.logger != nil {
		s.logger.Info("Client deleted", "client_id", client.ID, "tags", len(tags))
	}

	return nil
}
