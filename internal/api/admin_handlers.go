package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/tagnestapp/tagnest-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "adminListTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/tags",
		Summary:     "List all tags",
		Description: "Returns every tag, optionally filtered by owner (client ID, name or email).",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"adminToken": {}}},
	}, s.handleAdminListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminCreateTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/tags",
		Summary:     "Mint tag",
		Description: "Creates a tag for a named owner, creating the owner account with a temporary password when needed.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"adminToken": {}}},
	}, s.handleAdminCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminListClients",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/clients",
		Summary:     "List clients",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"adminToken": {}}},
	}, s.handleAdminListClients)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminUpdateClient",
		Method:      http.MethodPatch,
		Path:        "/api/v1/admin/clients/{id}",
		Summary:     "Update client",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"adminToken": {}}},
	}, s.handleAdminUpdateClient)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminDeleteClient",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/clients/{id}",
		Summary:     "Delete client",
		Description: "Deletes a client with all its tags and sessions.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"adminToken": {}}},
	}, s.handleAdminDeleteClient)
}

// === DTOs ===

// AdminListTagsInput filters the tag list by owner.
type AdminListTagsInput struct {
	XAdminToken string `header:"X-Admin-Token" doc:"Admin shared secret"`
	Owner       string `query:"owner" doc:"Owner filter: client ID, name or email"`
}

// AdminCreateTagInput wraps tag minting for Huma.
type AdminCreateTagInput struct {
	XAdminToken string `header:"X-Admin-Token" doc:"Admin shared secret"`
	Body        struct {
		Owner      string `json:"owner" validate:"required,min=2,max=64" doc:"Owner display name"`
		OwnerEmail string `json:"owner_email,omitempty" validate:"omitempty,email" doc:"Owner email, used when creating the account"`
		Slug       string `json:"slug,omitempty" validate:"omitempty,max=64" doc:"Custom slug; generated when empty"`
		TagBody
	}
}

// AdminTagResponse is the minted tag plus owner bookkeeping.
type AdminTagResponse struct {
	Tag               TagResponse    `json:"tag" doc:"Minted tag"`
	Owner             ClientResponse `json:"owner" doc:"Tag owner"`
	OwnerCreated      bool           `json:"owner_created" doc:"Whether the owner account was created"`
	TemporaryPassword string         `json:"temporary_password,omitempty" doc:"One-time password for a newly created owner"`
}

// AdminTagOutput wraps the minting result for Huma.
type AdminTagOutput struct {
	Body AdminTagResponse
}

// AdminTokenInput carries only the admin token.
type AdminTokenInput struct {
	XAdminToken string `header:"X-Admin-Token" doc:"Admin shared secret"`
}

// ClientListOutput wraps a client list for Huma.
type ClientListOutput struct {
	Body []ClientResponse
}

// AdminClientByIDInput addresses one client account.
type AdminClientByIDInput struct {
	XAdminToken string `header:"X-Admin-Token" doc:"Admin shared secret"`
	ID          string `path:"id" doc:"Client ID"`
}

// AdminUpdateClientInput wraps a client update for Huma.
type AdminUpdateClientInput struct {
	XAdminToken string `header:"X-Admin-Token" doc:"Admin shared secret"`
	ID          string `path:"id" doc:"Client ID"`
	Body        struct {
		Name  *string `json:"name,omitempty" doc:"New display name"`
		Email *string `json:"email,omitempty" doc:"New email address"`
	}
}

// === Handlers ===

func (s *Server) handleAdminListTags(ctx context.Context, input *AdminListTagsInput) (*TagListOutput, error) {
	if err := s.requireAdmin(input.XAdminToken); err != nil {
		return nil, err
	}

	tags, err := s.services.Admin.ListTags(ctx, input.Owner)
	if err != nil {
		return nil, err
	}

	return &TagListOutput{Body: s.mapTags(tags)}, nil
}

func (s *Server) handleAdminCreateTag(ctx context.Context, input *AdminCreateTagInput) (*AdminTagOutput, error) {
	if err := s.requireAdmin(input.XAdminToken); err != nil {
		return nil, err
	}

	result, err := s.services.Admin.CreateTag(ctx, service.AdminCreateTagRequest{
		Owner:        input.Body.Owner,
		OwnerEmail:   input.Body.OwnerEmail,
		Slug:         input.Body.Slug,
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

	return &AdminTagOutput{
		Body: AdminTagResponse{
			Tag:               s.mapTag(result.Tag),
			Owner:             mapClient(result.Owner),
			OwnerCreated:      result.OwnerCreated,
			TemporaryPassword: result.TemporaryPassword,
		},
	}, nil
}

func (s *Server) handleAdminListClients(ctx context.Context, input *AdminTokenInput) (*ClientListOutput, error) {
	if err := s.requireAdmin(input.XAdminToken); err != nil {
		return nil, err
	}

	clients, err := s.services.Admin.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, mapClient(c))
	}
	return &ClientListOutput{Body: out}, nil
}

func (s *Server) handleAdminUpdateClient(ctx context.Context, input *AdminUpdateClientInput) (*ClientOutput, error) {
	if err := s.requireAdmin(input.XAdminToken); err != nil {
		return nil, err
	}

	client, err := s.services.Admin.UpdateClient(ctx, input.ID, service.UpdateClientRequest{
		Name:  input.Body.Name,
		Email: input.Body.Email,
	})
	if err != nil {
		return nil, err
	}

	return &ClientOutput{Body: mapClient(client)}, nil
}

func (s *Server) handleAdminDeleteClient(ctx context.Context, input *AdminClientByIDInput) (*MessageOutput, error) {
	if err := s.requireAdmin(input.XAdminToken); err != nil {
		return nil, err
	}

	if err := s.services.Admin.DeleteClient(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Client deleted"}}, nil
}
