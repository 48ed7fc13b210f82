package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/tagnestapp/tagnest-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List own tags",
		Description: "Returns all tags owned by the authenticated client.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Description: "Creates a tag owned by the authenticated client. The slug is generated server-side.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Update tag",
		Description: "Partially updates an owned tag. The slug is immutable.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadTagImage",
		Method:       http.MethodPut,
		Path:         "/api/v1/tags/{id}/image",
		Summary:      "Upload tag image",
		Description:  "Attaches an image to an owned tag. The upload is re-encoded to JPEG and gets a BlurHash placeholder.",
		Tags:         []string{"Tags"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: MaxUploadSize,
	}, s.handleUploadTagImage)
}

// === DTOs ===

// ListTagsInput carries only credentials.
type ListTagsInput struct {
	CredentialInput
}

// TagListOutput wraps a tag list for Huma.
type TagListOutput struct {
	Body []TagResponse
}

// TagBody is the writable contact card of a tag.
type TagBody struct {
	Name         string `json:"name" validate:"required,min=1,max=100" doc:"Display name"`
	Phone        string `json:"phone,omitempty" validate:"omitempty,max=32" doc:"Primary phone number"`
	Phone2       string `json:"phone2,omitempty" validate:"omitempty,max=32" doc:"Secondary phone number"`
	Address      string `json:"address,omitempty" validate:"omitempty,max=500" doc:"Contact address"`
	URL          string `json:"url,omitempty" validate:"omitempty,url,max=500" doc:"Contact URL"`
	Instructions string `json:"instructions,omitempty" validate:"omitempty,max=2000" doc:"Finder instructions"`
}

// CreateTagInput wraps tag creation for Huma.
type CreateTagInput struct {
	CredentialInput
	Body TagBody
}

// TagOutput wraps a single tag for Huma.
type TagOutput struct {
	Body TagResponse
}

// TagByIDInput addresses one owned tag.
type TagByIDInput struct {
	CredentialInput
	ID string `path:"id" doc:"Tag ID"`
}

// UpdateTagInput wraps a partial tag update for Huma.
type UpdateTagInput struct {
	CredentialInput
	ID   string `path:"id" doc:"Tag ID"`
	Body struct {
		Name         *string `json:"name,omitempty" doc:"Display name"`
		Phone        *string `json:"phone,omitempty" doc:"Primary phone number"`
		Phone2       *string `json:"phone2,omitempty" doc:"Secondary phone number"`
		Address      *string `json:"address,omitempty" doc:"Contact address"`
		URL          *string `json:"url,omitempty" doc:"Contact URL"`
		Instructions *string `json:"instructions,omitempty" doc:"Finder instructions"`
	}
}

// UploadTagImageInput carries the raw image bytes.
type UploadTagImageInput struct {
	CredentialInput
	ID      string `path:"id" doc:"Tag ID"`
	RawBody []byte
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*TagListOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, true)
	if err != nil {
		return nil, err
	}

	return &TagListOutput{Body: s.mapTags(resolved.Tags)}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, false)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Create(ctx, resolved.Client, service.CreateTagRequest{
		Name:         input.Body.Name,
		Phone:        input.Body.Phone,
		Phone2:       input.Body.Phone2,
		Address:      input.Body.Address,
		URL:          input.Body.URL,
		Instructions: input.Body.Instructions,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: s.mapTag(tag)}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *TagByIDInput) (*TagOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, false)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Get(ctx, resolved.Client, input.ID)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: s.mapTag(tag)}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, false)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Update(ctx, resolved.Client, input.ID, service.UpdateTagRequest{
		Name:         input.Body.Name,
		Phone:        input.Body.Phone,
		Phone2:       input.Body.Phone2,
		Address:      input.Body.Address,
		URL:          input.Body.URL,
		Instructions: input.Body.Instructions,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: s.mapTag(tag)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagByIDInput) (*MessageOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, false)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.Delete(ctx, resolved.Client, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}

func (s *Server) handleUploadTagImage(ctx context.Context, input *UploadTagImageInput) (*TagOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, false)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.UploadImage(ctx, resolved.Client, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: s.mapTag(tag)}, nil
}
