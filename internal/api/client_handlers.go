package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/tagnestapp/tagnest-server/internal/service"
)

func (s *Server) registerClientRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentClient",
		Method:      http.MethodGet,
		Path:        "/api/v1/clients/me",
		Summary:     "Get current client",
		Description: "Returns the authenticated client with its tags.",
		Tags:        []string{"Clients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentClient)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentClient",
		Method:      http.MethodPatch,
		Path:        "/api/v1/clients/me",
		Summary:     "Update current client",
		Description: "Partially updates name and email. Changing the email resets verification.",
		Tags:        []string{"Clients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCurrentClient)

	huma.Register(s.api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPut,
		Path:        "/api/v1/clients/me/password",
		Summary:     "Change password",
		Description: "Replaces the account password. The current password is required when one is set.",
		Tags:        []string{"Clients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleChangePassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportClientData",
		Method:      http.MethodGet,
		Path:        "/api/v1/clients/me/export",
		Summary:     "Export account data",
		Description: "Returns everything the server stores about the client as JSON.",
		Tags:        []string{"Clients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleExportClientData)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCurrentClient",
		Method:      http.MethodDelete,
		Path:        "/api/v1/clients/me",
		Summary:     "Delete account",
		Description: "Deletes the client with all its tags and sessions.",
		Tags:        []string{"Clients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCurrentClient)
}

// === DTOs ===

// CurrentClientInput carries only credentials.
type CurrentClientInput struct {
	CredentialInput
}

// ClientWithTagsResponse is the client profile plus owned tags.
type ClientWithTagsResponse struct {
	Client ClientResponse `json:"client" doc:"Client account"`
	Tags   []TagResponse  `json:"tags" doc:"Tags owned by the client"`
}

// ClientWithTagsOutput wraps the profile response for Huma.
type ClientWithTagsOutput struct {
	Body ClientWithTagsResponse
}

// UpdateClientInput wraps the partial account update for Huma.
type UpdateClientInput struct {
	CredentialInput
	Body struct {
		Name  *string `json:"name,omitempty" doc:"New display name"`
		Email *string `json:"email,omitempty" doc:"New email address; empty string removes it"`
	}
}

// ClientOutput wraps a bare client response for Huma.
type ClientOutput struct {
	Body ClientResponse
}

// ChangePasswordInput wraps the password change for Huma.
type ChangePasswordInput struct {
	CredentialInput
	Body struct {
		CurrentPassword string `json:"current_password,omitempty" doc:"Current password; required when one is set"`
		NewPassword     string `json:"new_password" validate:"required,max=1024" doc:"New password (policy enforced)"`
	}
}

// ExportResponse is the full account export.
type ExportResponse struct {
	Client ClientResponse `json:"client" doc:"Client account"`
	Tags   []TagResponse  `json:"tags" doc:"Tags owned by the client"`
}

// ExportOutput wraps the export for Huma.
type ExportOutput struct {
	Body ExportResponse
}

// DeleteClientOutput clears the session cookie alongside the confirmation.
type DeleteClientOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MessageResponse
}

// === Handlers ===

func (s *Server) handleGetCurrentClient(ctx context.Context, input *CurrentClientInput) (*ClientWithTagsOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, true)
	if err != nil {
		return nil, err
	}

	return &ClientWithTagsOutput{
		Body: ClientWithTagsResponse{
			Client: mapClient(resolved.Client),
			Tags:   s.mapTags(resolved.Tags),
		},
	}, nil
}

func (s *Server) handleUpdateCurrentClient(ctx context.Context, input *UpdateClientInput) (*ClientOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, false)
	if err != nil {
		return nil, err
	}

	updated, err := s.services.Client.Update(ctx, resolved.Client, service.UpdateClientRequest{
		Name:  input.Body.Name,
		Email: input.Body.Email,
	})
	if err != nil {
		return nil, err
	}

	return &ClientOutput{Body: mapClient(updated)}, nil
}

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*MessageOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, false)
	if err != nil {
		return nil, err
	}

	if err := s.services.Client.ChangePassword(ctx, resolved.Client, service.ChangePasswordRequest{
		CurrentPassword: input.Body.CurrentPassword,
		NewPassword:     input.Body.NewPassword,
	}); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Password updated"}}, nil
}

func (s *Server) handleExportClientData(ctx context.Context, input *CurrentClientInput) (*ExportOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, false)
	if err != nil {
		return nil, err
	}

	export, err := s.services.Client.Export(ctx, resolved.Client.ID)
	if err != nil {
		return nil, err
	}

	return &ExportOutput{
		Body: ExportResponse{
			Client: mapClient(export.Client),
			Tags:   s.mapTags(export.Tags),
		},
	}, nil
}

func (s *Server) handleDeleteCurrentClient(ctx context.Context, input *CurrentClientInput) (*DeleteClientOutput, error) {
	resolved, err := s.resolveClient(ctx, input.CredentialInput, false)
	if err != nil {
		return nil, err
	}

	if err := s.services.Client.Delete(ctx, resolved.Client); err != nil {
		return nil, err
	}

	return &DeleteClientOutput{
		SetCookie: s.expiredSessionCookie(),
		Body:      MessageResponse{Message: "Account deleted"},
	}, nil
}
