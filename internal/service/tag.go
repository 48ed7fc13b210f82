package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tagnestapp/tagnest-server/internal/domain"
	domainerrors "github.com/tagnestapp/tagnest-server/internal/errors"
	"github.com/tagnestapp/tagnest-server/internal/id"
	"github.com/tagnestapp/tagnest-server/internal/media/images"
	"github.com/tagnestapp/tagnest-server/internal/store"
	"github.com/tagnestapp/tagnest-server/internal/validation"
)

// TagService handles tag CRUD for authenticated owners plus the public
// landing page view.
type TagService struct {
	store     store.Store
	processor *images.Processor
	storage   *images.Storage
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, processor *images.Processor, storage *images.Storage, logger *slog.Logger) *TagService {
	return &TagService{
		store:     store,
		processor: processor,
		storage:   storage,
		validator: validation.New(),
		logger:    logger,
	}
}

// CreateTagRequest contains the contact card for a new tag.
type CreateTagRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	Phone2       string `json:"phone2" validate:"omitempty,max=32"`
	Address      string `json:"address" validate:"omitempty,max=500"`
	URL          string `json:"url" validate:"omitempty,url,max=500"`
	Instructions string `json:"instructions" validate:"omitempty,max=2000"`
}

// UpdateTagRequest carries a partial tag update. Nil fields are left
// unchanged; the slug is immutable and not part of the request.
type UpdateTagRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Phone2       *string `json:"phone2,omitempty" validate:"omitempty,max=32"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=500"`
	URL          *string `json:"url,omitempty" validate:"omitempty,url,max=500"`
	Instructions *string `json:"instructions,omitempty" validate:"omitempty,max=2000"`
}

// PublicTag is the landing page view of a tag. It deliberately carries no
// internal id, owner reference or scan count.
type PublicTag struct {
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Phone2        string `json:"phone2,omitempty"`
	Address       string `json:"address,omitempty"`
	URL           string `json:"url,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
	HasImage      bool   `json:"has_image"`
	ImageBlurHash string `json:"image_blurhash,omitempty"`
}

// List returns all tags owned by a client.
func (s *TagService) List(ctx context.Context, clientID string) ([]*domain.Tag, error) {
	tags, err := s.store.ListTagsByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Create makes a new tag owned by the given client. The slug is generated
// server-side and never changes afterwards.
func (s *TagService) Create(ctx context.Context, client *domain.Client, req CreateTagRequest) (*domain.Tag, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	// Slugs are random and collisions vanishingly rare, but the unique
	// index is authoritative; retry on the off chance.
	for attempt := 0; ; attempt++ {
		slug, err := id.GenerateSlug()
		if err != nil {
			return nil, fmt.Errorf("generate slug: %w", err)
		}

		tag := newTag(tagID, slug, client.ID, req)
		err = s.store.CreateTag(ctx, tag)
		if err == nil {
			if s.logger != nil {
				s.logger.Info("Tag created", "tag_id", tag.ID, "client_id", client.ID)
			}
			return tag, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("create tag: %w", err)
		}
		if attempt >= 3 {
			return nil, fmt.Errorf("create tag: %w", err)
		}
	}
}

// Get returns a tag after verifying the caller owns it.
func (s *TagService) Get(ctx context.Context, client *domain.Client, tagID string) (*domain.Tag, error) {
	return s.getOwned(ctx, client, tagID)
}

// Update applies a partial update to an owned tag.
func (s *TagService) Update(ctx context.Context, client *domain.Client, tagID string, req UpdateTagRequest) (*domain.Tag, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tag, err := s.getOwned(ctx, client, tagID)
	if err != nil {
		return nil, err
	}

	applyTagUpdate(tag, req)
	tag.Touch()

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Tag updated", "tag_id", tag.ID)
	}

	return tag, nil
}

// Delete removes an owned tag. The image file goes best-effort.
func (s *TagService) Delete(ctx context.Context, client *domain.Client, tagID string) error {
	tag, err := s.getOwned(ctx, client, tagID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTag(ctx, tag.ID); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	s.deleteImageFile(tag)

	if s.logger != nil {
		s.logger.Info("Tag deleted", "tag_id", tag.ID)
	}

	return nil
}

// PublicView returns the landing page data for a slug and bumps the scan
// counter. The counter is informational; a failed bump never fails the view.
func (s *TagService) PublicView(ctx context.Context, slug string) (*PublicTag, error) {
	tag, err := s.store.GetTagBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	if err := s.store.IncrementTagScans(ctx, tag.ID); err != nil {
		if s.logger != nil {
			s.logger.Warn("Failed to bump scan count", "tag_id", tag.ID, "error", err)
		}
	}

	return &PublicTag{
		Slug:          tag.Slug,
		Name:          tag.Name,
		Phone:         tag.Phone,
		Phone2:        tag.Phone2,
		Address:       tag.Address,
		URL:           tag.URL,
		Instructions:  tag.Instructions,
		HasImage:      tag.HasImage(),
		ImageBlurHash: tag.ImageBlurHash,
	}, nil
}

// UploadImage processes and attaches an image to an owned tag, replacing
// any previous one. Each upload gets a fresh image ID so stale cached
// copies of the old URL cannot shadow the new file.
func (s *TagService) UploadImage(ctx context.Context, client *domain.Client, tagID string, data []byte) (*domain.Tag, error) {
	tag, err := s.getOwned(ctx, client, tagID)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, domainerrors.Validation("image data is empty")
	}

	imageID, err := id.Generate("img")
	if err != nil {
		return nil, fmt.Errorf("generate image ID: %w", err)
	}

	blurHash, err := s.processor.Process(imageID, data)
	if err != nil {
		if errors.Is(err, images.ErrInvalidImage) {
			return nil, domainerrors.Validation("uploaded data is not a supported image")
		}
		return nil, fmt.Errorf("process image: %w", err)
	}

	oldImageID := tag.ImageID
	tag.ImageID = imageID
	tag.ImageBlurHash = blurHash
	tag.Touch()

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		// Don't leave the freshly written file stranded.
		if delErr := s.storage.Delete(imageID); delErr != nil && s.logger != nil {
			s.logger.Warn("Failed to clean up image after store error", "image_id", imageID, "error", delErr)
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}

	if oldImageID != "" {
		if err := s.storage.Delete(oldImageID); err != nil && s.logger != nil {
			s.logger.Warn("Failed to delete replaced image", "image_id", oldImageID, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("Tag image updated", "tag_id", tag.ID, "image_id", imageID)
	}

	return tag, nil
}

// GetImageBySlug serves the public image for a tag's landing page.
func (s *TagService) GetImageBySlug(ctx context.Context, slug string) ([]byte, error) {
	tag, err := s.store.GetTagBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	if !tag.HasImage() {
		return nil, domainerrors.NotFound("tag has no image")
	}

	data, err := s.storage.Get(tag.ImageID)
	if err != nil {
		return nil, domainerrors.NotFound("tag has no image")
	}

	return data, nil
}

// getOwned fetches a tag and enforces ownership. A tag the caller does not
// own is FORBIDDEN, not NOT_FOUND: slugs are public anyway, so hiding
// existence buys nothing.
func (s *TagService) getOwned(ctx context.Context, client *domain.Client, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	if !tag.OwnedBy(client.ID) {
		return nil, domainerrors.Forbidden("you do not own this tag")
	}

	return tag, nil
}

func (s *TagService) deleteImageFile(tag *domain.Tag) {
	if s.storage == nil || !tag.HasImage() {
		return
	}
	if err := s.storage.Delete(tag.ImageID); err != nil && s.logger != nil {
		s.logger.Warn("Failed to delete tag image", "tag_id", tag.ID, "error", err)
	}
}

func newTag(tagID, slug, clientID string, req CreateTagRequest) *domain.Tag {
	now := time.Now()
	return &domain.Tag{
		ID:           tagID,
		Slug:         slug,
		ClientID:     clientID,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		Phone2:       req.Phone2,
		Address:      req.Address,
		URL:          req.URL,
		Instructions: req.Instructions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func applyTagUpdate(tag *domain.Tag, req UpdateTagRequest) {
	if req.Name != nil {
		tag.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		tag.Phone = *req.Phone
	}
	if req.Phone2 != nil {
		tag.Phone2 = *req.Phone2
	}
	if req.Address != nil {
		tag.Address = *req.Address
	}
	if req.URL != nil {
		tag.URL = *req.URL
	}
	if req.Instructions != nil {
		tag.Instructions = *req.Instructions
	}
}
