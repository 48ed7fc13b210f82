package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tagnestapp/tagnest-server/internal/auth"
	"github.com/tagnestapp/tagnest-server/internal/domain"
	domainerrors "github.com/tagnestapp/tagnest-server/internal/errors"
	"github.com/tagnestapp/tagnest-server/internal/id"
	"github.com/tagnestapp/tagnest-server/internal/media/images"
	"github.com/tagnestapp/tagnest-server/internal/store"
	"github.com/tagnestapp/tagnest-server/internal/util"
	"github.com/tagnestapp/tagnest-server/internal/validation"
)

// AdminService handles the operator surface: minting tags ahead of
// distribution and managing client accounts. The admin gate itself lives in
// the API layer; everything here assumes the caller is trusted.
type AdminService struct {
	store        store.Store
	mailer       Mailer
	imageStorage *images.Storage
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(store store.Store, mailer Mailer, imageStorage *images.Storage, logger *slog.Logger) *AdminService {
	return &AdminService{
		store:        store,
		mailer:       mailer,
		imageStorage: imageStorage,
		validator:    validation.New(),
		logger:       logger,
	}
}

// AdminCreateTagRequest mints a tag for a named owner. When no client with
// that name (or email) exists yet, one is created with a temporary password.
// Slug is optional; when set it is normalized and must be unique.
type AdminCreateTagRequest struct {
	Owner      string `json:"owner" validate:"required,min=2,max=64"`
	OwnerEmail string `json:"owner_email" validate:"omitempty,email"`
	Slug       string `json:"slug" validate:"omitempty,max=64"`

	Name         string `json:"name" validate:"required,min=1,max=100"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	Phone2       string `json:"phone2" validate:"omitempty,max=32"`
	Address      string `json:"address" validate:"omitempty,max=500"`
	URL          string `json:"url" validate:"omitempty,url,max=500"`
	Instructions string `json:"instructions" validate:"omitempty,max=2000"`
}

// AdminCreateTagResult is the minted tag plus, when the owner account was
// created on the fly, the one-time credentials to hand over.
type AdminCreateTagResult struct {
	Tag               *domain.Tag    `json:"tag"`
	Owner             *domain.Client `json:"owner"`
	OwnerCreated      bool           `json:"owner_created"`
	TemporaryPassword string         `json:"temporary_password,omitempty"`
}

// ListTags returns all tags, or only those of one owner when the filter is
// set. The filter accepts a client ID, display name or email.
func (s *AdminService) ListTags(ctx context.Context, owner string) ([]*domain.Tag, error) {
	if owner == "" {
		tags, err := s.store.ListTags(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		return tags, nil
	}

	client, err := s.resolveOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	tags, err := s.store.ListTagsByClient(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// CreateTag mints a tag assigned to an owner, creating the owner account
// with a temporary password when it does not exist yet.
func (s *AdminService) CreateTag(ctx context.Context, req AdminCreateTagRequest) (*AdminCreateTagResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	owner, tempPassword, created, err := s.findOrCreateOwner(ctx, req.Owner, req.OwnerEmail)
	if err != nil {
		return nil, err
	}

	slug := util.NormalizeTagSlug(req.Slug)
	if req.Slug != "" && slug == "" {
		return nil, domainerrors.Validation("slug contains no usable characters")
	}
	if slug == "" {
		slug, err = id.GenerateSlug()
		if err != nil {
			return nil, fmt.Errorf("generate slug: %w", err)
		}
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	tag := newTag(tagID, slug, owner.ID, CreateTagRequest{
		Name:         req.Name,
		Phone:        req.Phone,
		Phone2:       req.Phone2,
		Address:      req.Address,
		URL:          req.URL,
		Instructions: req.Instructions,
	})

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("slug %q is already taken", slug)
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	if created && tempPassword != "" && owner.Email != "" && s.mailer != nil {
		if err := s.mailer.SendTemporaryPassword(ctx, owner.Email, owner.Name, tempPassword); err != nil {
			if s.logger != nil {
				s.logger.Warn("Failed to send temporary password mail", "client_id", owner.ID, "error", err)
			}
		}
	}

	if s.logger != nil {
		s.logger.Info("Admin minted tag",
			"tag_id", tag.ID,
			"slug", tag.Slug,
			"client_id", owner.ID,
			"owner_created", created,
		)
	}

	return &AdminCreateTagResult{
		Tag:               tag,
		Owner:             owner,
		OwnerCreated:      created,
		TemporaryPassword: tempPassword,
	}, nil
}

// ListClients returns all client accounts.
func (s *AdminService) ListClients(ctx context.Context) ([]*domain.Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// UpdateClient applies a partial update to any client account.
func (s *AdminService) UpdateClient(ctx context.Context, clientID string, req UpdateClientRequest) (*domain.Client, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("client not found")
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	changed := false
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

	if s.logger != nil {
		s.logger.Info("Admin updated client", "client_id", client.ID)
	}

	return client, nil
}

// DeleteClient removes a client account with its tags and sessions.
func (s *AdminService) DeleteClient(ctx context.Context, clientID string) error {
	tags, err := s.store.ListTagsByClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}

	if err := s.store.DeleteClient(ctx, clientID); err != nil {
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
		s.logger.Info("Admin deleted client", "client_id", clientID, "tags", len(tags))
	}

	return nil
}

// resolveOwner finds a client by ID, email or display name.
func (s *AdminService) resolveOwner(ctx context.Context, owner string) (*domain.Client, error) {
	client, err := s.store.GetClient(ctx, owner)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get client: %w", err)
	}

	if strings.Contains(owner, "@") {
		client, err = s.store.GetClientByEmail(ctx, owner)
	} else {
		client, err = s.store.GetClientByName(ctx, owner)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("no client matching %q", owner)
		}
		return nil, fmt.Errorf("lookup client: %w", err)
	}
	return client, nil
}

// findOrCreateOwner resolves the named owner or creates the account with a
// temporary password that satisfies the password policy.
func (s *AdminService) findOrCreateOwner(ctx context.Context, name, email string) (*domain.Client, string, bool, error) {
	lookup := name
	if email != "" {
		lookup = email
	}
	client, err := s.resolveOwner(ctx, lookup)
	if err == nil {
		return client, "", false, nil
	}
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code != domainerrors.CodeNotFound {
		return nil, "", false, err
	}

	tempPassword, err := auth.GenerateTemporaryPassword()
	if err != nil {
		return nil, "", false, fmt.Errorf("generate temporary password: %w", err)
	}

	passwordHash, err := auth.HashPassword(tempPassword)
	if err != nil {
		return nil, "", false, fmt.Errorf("hash password: %w", err)
	}

	clientID, err := id.Generate("client")
	if err != nil {
		return nil, "", false, fmt.Errorf("generate client ID: %w", err)
	}

	now := time.Now()
	client = &domain.Client{
		ID:           clientID,
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateClient(ctx, client); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, "", false, domainerrors.Conflict("name or email already in use")
		}
		return nil, "", false, fmt.Errorf("create client: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Admin created client", "client_id", client.ID)
	}

	return client, tempPassword, true, nil
}
