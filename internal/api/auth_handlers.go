package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/tagnestapp/tagnest-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register new client",
		Description: "Creates a new client account with a password and returns a bearer token plus a session cookie.",
		Tags:        []string{"Authentication"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Client login",
		Description: "Authenticates by display name or email plus password.",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "googleLogin",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/google",
		Summary:     "Google sign-in",
		Description: "Authenticates with a Google ID token, creating the account on first use.",
		Tags:        []string{"Authentication"},
	}, s.handleGoogleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Deletes the cookie session and clears the cookie.",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "forgotPassword",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/forgot",
		Summary:     "Request password reset",
		Description: "Sends a password reset link. The response is identical whether or not the email matches an account.",
		Tags:        []string{"Authentication"},
	}, s.handleForgotPassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetPassword",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/reset",
		Summary:     "Complete password reset",
		Description: "Sets a new password using a reset token from email. Revokes all sessions.",
		Tags:        []string{"Authentication"},
	}, s.handleResetPassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "verifyEmail",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/verify-email",
		Summary:     "Verify email address",
		Description: "Consumes an email verification token.",
		Tags:        []string{"Authentication"},
	}, s.handleVerifyEmail)
}

// === DTOs ===

// clientMeta carries request metadata recorded on new sessions.
type clientMeta struct {
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	UserAgent     string `header:"User-Agent"`
}

// RegisterRequest is the request body for client registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=64" doc:"Unique display name"`
	Email    string `json:"email,omitempty" validate:"omitempty,email" doc:"Optional email address"`
	Password string `json:"password" validate:"required,max=1024" doc:"Password (policy enforced)"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	clientMeta
	Body RegisterRequest
}

// LoginRequest is the request body for client login.
type LoginRequest struct {
	Name     string `json:"name" validate:"required" doc:"Display name, or email when it contains '@'"`
	Password string `json:"password" validate:"required,max=1024" doc:"Client password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	clientMeta
	Body LoginRequest
}

// GoogleLoginRequest is the request body for Google sign-in.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required" doc:"Google ID token"`
}

// GoogleLoginInput wraps the Google sign-in request for Huma.
type GoogleLoginInput struct {
	clientMeta
	Body GoogleLoginRequest
}

// LogoutInput carries the session cookie to revoke.
type LogoutInput struct {
	SessionCookie string `cookie:"tagnest_session"`
}

// LogoutOutput clears the session cookie.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MessageResponse
}

// ForgotPasswordInput wraps the forgot-password request for Huma.
type ForgotPasswordInput struct {
	Body struct {
		Email string `json:"email" validate:"required,email" doc:"Account email address"`
	}
}

// ResetPasswordInput wraps the reset request for Huma.
type ResetPasswordInput struct {
	Body struct {
		Token    string `json:"token" validate:"required" doc:"Reset token from email"`
		Password string `json:"password" validate:"required,max=1024" doc:"New password (policy enforced)"`
	}
}

// VerifyEmailInput wraps the verification request for Huma.
type VerifyEmailInput struct {
	Body struct {
		Token string `json:"token" validate:"required" doc:"Verification token from email"`
	}
}

// AuthResponse contains the signed-in client and its bearer token.
type AuthResponse struct {
	Client      ClientResponse `json:"client" doc:"Authenticated client"`
	Tags        []TagResponse  `json:"tags,omitempty" doc:"Tags owned by the client"`
	AccessToken string         `json:"access_token" doc:"PASETO access token"`
	TokenType   string         `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn   int            `json:"expires_in" doc:"Token expiry in seconds"`
}

// AuthOutput wraps the auth response and sets the session cookie.
type AuthOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      AuthResponse
}

// === Handlers ===

func (s *Server) mapAuthOutput(resp *service.AuthResponse) *AuthOutput {
	out := &AuthOutput{
		SetCookie: s.newSessionCookie(resp.SessionID),
		Body: AuthResponse{
			Client:      mapClient(resp.Client),
			AccessToken: resp.AccessToken,
			TokenType:   resp.TokenType,
			ExpiresIn:   resp.ExpiresIn,
		},
	}
	if len(resp.Tags) > 0 {
		out.Body.Tags = s.mapTags(resp.Tags)
	}
	return out
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Name:      input.Body.Name,
		Email:     input.Body.Email,
		Password:  input.Body.Password,
		IPAddress: extractIP(input.XForwardedFor, input.XRealIP, ""),
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return s.mapAuthOutput(resp), nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Name:      input.Body.Name,
		Password:  input.Body.Password,
		IPAddress: extractIP(input.XForwardedFor, input.XRealIP, ""),
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return s.mapAuthOutput(resp), nil
}

func (s *Server) handleGoogleLogin(ctx context.Context, input *GoogleLoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.GoogleLogin(ctx, service.GoogleLoginRequest{
		IDToken:   input.Body.IDToken,
		IPAddress: extractIP(input.XForwardedFor, input.XRealIP, ""),
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return s.mapAuthOutput(resp), nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*LogoutOutput, error) {
	if err := s.services.Auth.Logout(ctx, input.SessionCookie); err != nil {
		return nil, err
	}

	return &LogoutOutput{
		SetCookie: s.expiredSessionCookie(),
		Body:      MessageResponse{Message: "Logged out"},
	}, nil
}

func (s *Server) handleForgotPassword(ctx context.Context, input *ForgotPasswordInput) (*MessageOutput, error) {
	if err := s.services.Auth.ForgotPassword(ctx, service.ForgotPasswordRequest{
		Email: input.Body.Email,
	}); err != nil {
		return nil, err
	}

	return &MessageOutput{
		Body: MessageResponse{Message: "If that email matches an account, a reset link is on its way"},
	}, nil
}

func (s *Server) handleResetPassword(ctx context.Context, input *ResetPasswordInput) (*MessageOutput, error) {
	if err := s.services.Auth.ResetPassword(ctx, service.ResetPasswordRequest{
		Token:    input.Body.Token,
		Password: input.Body.Password,
	}); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Password updated"}}, nil
}

func (s *Server) handleVerifyEmail(ctx context.Context, input *VerifyEmailInput) (*MessageOutput, error) {
	if err := s.services.Auth.VerifyEmail(ctx, service.VerifyEmailRequest{
		Token: input.Body.Token,
	}); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Email verified"}}, nil
}
