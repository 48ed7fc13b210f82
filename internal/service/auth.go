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
	"github.com/tagnestapp/tagnest-server/internal/googleauth"
	"github.com/tagnestapp/tagnest-server/internal/id"
	"github.com/tagnestapp/tagnest-server/internal/store"
	"github.com/tagnestapp/tagnest-server/internal/validation"
)

const (
	// resetTokenTTL bounds how long a password reset link stays usable.
	resetTokenTTL = 1 * time.Hour
	// verifyTokenTTL bounds how long an email verification link stays usable.
	verifyTokenTTL = 24 * time.Hour
)

// Mailer delivers transactional account mail. Implemented by mail.Sender.
type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error
	SendVerification(ctx context.Context, toEmail, toName, verifyURL string) error
	SendTemporaryPassword(ctx context.Context, toEmail, toName, password string) error
}

// AuthService handles client onboarding, sign-in and credential resolution.
// Cookie session lifecycle is delegated to SessionService.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	sessions     *SessionService
	google       *googleauth.Verifier
	mailer       Mailer
	baseURL      string
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	sessions *SessionService,
	google *googleauth.Verifier,
	mailer Mailer,
	baseURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		sessions:     sessions,
		google:       google,
		mailer:       mailer,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		validator:    validation.New(),
		logger:       logger,
	}
}

// RegisterRequest contains new account data.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=64"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,max=1024"`

	// Extracted from the request by the handler.
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginRequest contains sign-in credentials. Name may be the display name
// or, when it contains '@', the account email.
type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// GoogleLoginRequest carries a Google ID token from the sign-in widget.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,max=1024"`
}

// VerifyEmailRequest consumes an email verification token.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// AuthResponse contains the signed-in client and its credentials.
// SessionID is the raw cookie value; the handler turns it into a Set-Cookie.
type AuthResponse struct {
	Client      *domain.Client `json:"client"`
	Tags        []*domain.Tag  `json:"tags,omitempty"`
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	SessionID   string         `json:"-"`
}

// Register creates a new client account with a password.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if problems := auth.CheckPasswordPolicy(req.Password); len(problems) > 0 {
		return nil, domainerrors.Validation(auth.PolicyError(problems))
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	clientID, err := id.Generate("client")
	if err != nil {
		return nil, fmt.Errorf("generate client ID: %w", err)
	}

	now := time.Now()
	client := &domain.Client{
		ID:           clientID,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// An email address starts unverified; give the client a verification
	// token right away so the mail can go out with this request.
	if client.Email != "" {
		expiry := now.Add(verifyTokenTTL)
		client.VerifyToken = uuid.NewString()
		client.VerifyTokenExpiry = &expiry
	}

	if err := s.store.CreateClient(ctx, client); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("name or email already in use")
		}
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.sendVerificationMail(ctx, client)

	if s.logger != nil {
		s.logger.Info("Client registered",
			"client_id", client.ID,
			"has_email", client.Email != "",
		)
	}

	return s.issueCredentials(ctx, client, nil, req.IPAddress, req.UserAgent)
}

// Login authenticates a client by name-or-email and password.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	client, err := s.findByNameOrEmail(ctx, req.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether the account exists
			return nil, domainerrors.InvalidCredentials("invalid name or password")
		}
		return nil, fmt.Errorf("lookup client: %w", err)
	}

	if !client.HasPassword() {
		return nil, domainerrors.WrongMethod("this account signs in with Google")
	}

	valid, err := auth.VerifyPassword(client.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid name or password")
	}

	tags, err := s.store.ListTagsByClient(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Client logged in", "client_id", client.ID)
	}

	return s.issueCredentials(ctx, client, tags, req.IPAddress, req.UserAgent)
}

// GoogleLogin signs a client in with a Google ID token, creating the account
// on first use. A verified Google email links to an existing account with
// the same address instead of creating a duplicate.
func (s *AuthService) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if s.google == nil || !s.google.Enabled() {
		return nil, domainerrors.WrongMethod("Google sign-in is not enabled on this server")
	}

	info, err := s.google.Verify(ctx, req.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, googleauth.ErrServer):
			return nil, domainerrors.Upstream("Google token verification unavailable").WithCause(err)
		case errors.Is(err, googleauth.ErrDisabled):
			return nil, domainerrors.WrongMethod("Google sign-in is not enabled on this server")
		default:
			return nil, domainerrors.InvalidCredentials("invalid Google token").WithCause(err)
		}
	}

	client, err := s.findOrCreateGoogleClient(ctx, info)
	if err != nil {
		return nil, err
	}

	tags, err := s.store.ListTagsByClient(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Client logged in with Google", "client_id", client.ID)
	}

	return s.issueCredentials(ctx, client, tags, req.IPAddress, req.UserAgent)
}

// Logout deletes the cookie session. A missing cookie is not an error;
// logging out twice is fine.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, sessionID)
}

// ForgotPassword starts a password reset. The outcome is intentionally
// indistinguishable whether or not the email matches an account.
func (s *AuthService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	client, err := s.store.GetClientByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if s.logger != nil {
				s.logger.Info("Password reset requested for unknown email")
			}
			return nil
		}
		return fmt.Errorf("lookup client: %w", err)
	}

	expiry := time.Now().Add(resetTokenTTL)
	client.ResetToken = uuid.NewString()
	client.ResetTokenExpiry = &expiry
	client.Touch()

	if err := s.store.UpdateClient(ctx, client); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if s.mailer != nil {
		resetURL := s.baseURL + "/reset?token=" + client.ResetToken
		if err := s.mailer.SendPasswordReset(ctx, client.Email, client.Name, resetURL); err != nil {
			// Swallow: the generic success response must not reveal
			// delivery problems either.
			if s.logger != nil {
				s.logger.Warn("Failed to send reset mail", "client_id", client.ID, "error", err)
			}
		}
	}

	return nil
}

// ResetPassword completes a password reset with a token from the email.
// The token is single-use; all existing sessions are revoked.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	if problems := auth.CheckPasswordPolicy(req.Password); len(problems) > 0 {
		return domainerrors.Validation(auth.PolicyError(problems))
	}

	client, err := s.store.GetClientByResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.InvalidCredentials("invalid or expired reset token")
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	if !client.HasValidResetToken(req.Token, time.Now()) {
		return domainerrors.InvalidCredentials("invalid or expired reset token")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	client.PasswordHash = passwordHash
	client.ResetToken = ""
	client.ResetTokenExpiry = nil
	client.Touch()

	if err := s.store.UpdateClient(ctx, client); err != nil {
		return fmt.Errorf("update client: %w", err)
	}

	// A reset means the old credential may be compromised; sign out
	// everything.
	if err := s.sessions.DeleteClientSessions(ctx, client.ID); err != nil {
		if s.logger != nil {
			s.logger.Warn("Failed to revoke sessions after reset", "client_id", client.ID, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("Password reset completed", "client_id", client.ID)
	}

	return nil
}

// VerifyEmail consumes an email verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	client, err := s.store.GetClientByVerifyToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.InvalidCredentials("invalid or expired verification token")
		}
		return fmt.Errorf("lookup verification token: %w", err)
	}

	if !client.HasValidVerifyToken(req.Token, time.Now()) {
		return domainerrors.InvalidCredentials("invalid or expired verification token")
	}

	client.EmailVerified = true
	client.VerifyToken = ""
	client.VerifyTokenExpiry = nil
	client.Touch()

	if err := s.store.UpdateClient(ctx, client); err != nil {
		return fmt.Errorf("update client: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Email verified", "client_id", client.ID)
	}

	return nil
}

// Credentials are the raw carriers extracted from an inbound request.
type Credentials struct {
	// Authorization is the raw Authorization header, expected "Bearer <token>".
	Authorization string
	// SessionID is the session cookie value.
	SessionID string
	// ClientName / ClientPassword are the legacy header pair.
	ClientName     string
	ClientPassword string
}

// ResolveOptions tune credential resolution.
type ResolveOptions struct {
	// WithTags eager-loads the client's tags in the same call.
	WithTags bool
}

// Resolved is the outcome of a successful credential resolution.
type Resolved struct {
	Client *domain.Client
	Tags   []*domain.Tag
	// SessionID is set when the request authenticated via the cookie path.
	SessionID string
}

// Resolve produces the acting client from whatever credentials the request
// carries. Carriers are tried in strict priority order - bearer token, then
// session cookie, then the legacy name/password header pair - and the
// presence of a higher-priority carrier short-circuits the rest: an invalid
// bearer token fails resolution even if valid legacy headers are attached.
func (s *AuthService) Resolve(ctx context.Context, creds Credentials, opts ResolveOptions) (*Resolved, error) {
	resolved, err := s.resolveClient(ctx, creds)
	if err != nil {
		return nil, err
	}

	if opts.WithTags {
		tags, err := s.store.ListTagsByClient(ctx, resolved.Client.ID)
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		resolved.Tags = tags
	}

	return resolved, nil
}

func (s *AuthService) resolveClient(ctx context.Context, creds Credentials) (*Resolved, error) {
	switch {
	case creds.Authorization != "":
		return s.resolveBearer(ctx, creds.Authorization)
	case creds.SessionID != "":
		return s.resolveSessionCookie(ctx, creds.SessionID)
	case creds.ClientName != "" || creds.ClientPassword != "":
		return s.resolveLegacyHeaders(ctx, creds.ClientName, creds.ClientPassword)
	default:
		return nil, domainerrors.Unauthenticated("no credentials provided")
	}
}

func (s *AuthService) resolveBearer(ctx context.Context, header string) (*Resolved, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, domainerrors.InvalidCredentials("malformed authorization header")
	}

	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.InvalidCredentials("invalid or expired token").WithCause(err)
	}

	client, err := s.store.GetClient(ctx, claims.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token is cryptographically fine, the account is just gone.
			return nil, domainerrors.NotFound("client no longer exists")
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	return &Resolved{Client: client}, nil
}

func (s *AuthService) resolveSessionCookie(ctx context.Context, sessionID string) (*Resolved, error) {
	session, err := s.sessions.ResolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	client, err := s.store.GetClient(ctx, session.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.store.DeleteSession(ctx, session.ID)
			return nil, domainerrors.NotFound("client no longer exists")
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	return &Resolved{Client: client, SessionID: session.ID}, nil
}

func (s *AuthService) resolveLegacyHeaders(ctx context.Context, name, password string) (*Resolved, error) {
	if name == "" || password == "" {
		return nil, domainerrors.Unauthenticated("both X-Client-Name and X-Client-Password are required")
	}

	client, err := s.findByNameOrEmail(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("no such client")
		}
		return nil, fmt.Errorf("lookup client: %w", err)
	}

	if !client.HasPassword() {
		return nil, domainerrors.WrongMethod("this account signs in with Google")
	}

	valid, err := auth.VerifyPassword(client.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid name or password")
	}

	return &Resolved{Client: client}, nil
}

// findByNameOrEmail looks a client up by email when the identifier contains
// '@' (display names cannot), otherwise by display name. Both lookups are
// case-insensitive.
func (s *AuthService) findByNameOrEmail(ctx context.Context, name string) (*domain.Client, error) {
	if strings.Contains(name, "@") {
		return s.store.GetClientByEmail(ctx, name)
	}
	return s.store.GetClientByName(ctx, name)
}

// findOrCreateGoogleClient maps verified Google token claims to a client,
// linking or creating as needed.
func (s *AuthService) findOrCreateGoogleClient(ctx context.Context, info *googleauth.TokenInfo) (*domain.Client, error) {
	client, err := s.store.GetClientByGoogleID(ctx, info.Subject)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup google client: %w", err)
	}

	// Link to an existing account only when Google vouches for the address.
	if info.Email != "" && info.EmailVerified {
		existing, err := s.store.GetClientByEmail(ctx, info.Email)
		if err == nil {
			existing.GoogleID = info.Subject
			existing.EmailVerified = true
			existing.VerifyToken = ""
			existing.VerifyTokenExpiry = nil
			existing.Touch()
			if err := s.store.UpdateClient(ctx, existing); err != nil {
				return nil, fmt.Errorf("link google account: %w", err)
			}
			if s.logger != nil {
				s.logger.Info("Linked Google account", "client_id", existing.ID)
			}
			return existing, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("lookup client by email: %w", err)
		}
	}

	return s.createGoogleClient(ctx, info)
}

func (s *AuthService) createGoogleClient(ctx context.Context, info *googleauth.TokenInfo) (*domain.Client, error) {
	base := googleDisplayName(info)

	// Display names are unique; retry with a random suffix on collision.
	name := base
	for attempt := 0; ; attempt++ {
		clientID, err := id.Generate("client")
		if err != nil {
			return nil, fmt.Errorf("generate client ID: %w", err)
		}

		now := time.Now()
		client := &domain.Client{
			ID:        clientID,
			Name:      name,
			GoogleID:  info.Subject,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if info.Email != "" && info.EmailVerified {
			client.Email = info.Email
			client.EmailVerified = true
		}

		err = s.store.CreateClient(ctx, client)
		if err == nil {
			if s.logger != nil {
				s.logger.Info("Client created via Google sign-in", "client_id", client.ID)
			}
			return client, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("create client: %w", err)
		}
		if attempt >= 3 {
			return nil, fmt.Errorf("create client: could not find a free name for %q", base)
		}

		suffix, err := id.GenerateSlug()
		if err != nil {
			return nil, fmt.Errorf("generate name suffix: %w", err)
		}
		name = base + "-" + suffix[:4]
	}
}

// googleDisplayName derives a display name from token claims, falling back
// to the email local part.
func googleDisplayName(info *googleauth.TokenInfo) string {
	if name := strings.TrimSpace(info.Name); name != "" {
		return name
	}
	if info.Email != "" {
		if local, _, found := strings.Cut(info.Email, "@"); found && local != "" {
			return local
		}
	}
	return "client"
}

// issueCredentials creates an access token and cookie session for a client.
func (s *AuthService) issueCredentials(ctx context.Context, client *domain.Client, tags []*domain.Tag, ipAddress, userAgent string) (*AuthResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(client)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	session, err := s.sessions.CreateSession(ctx, client, ipAddress, userAgent)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &AuthResponse{
		Client:      client,
		Tags:        tags,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:   session.ID,
	}, nil
}

// sendVerificationMail sends the verification link best-effort.
func (s *AuthService) sendVerificationMail(ctx context.Context, client *domain.Client) {
	if s.mailer == nil || client.Email == "" || client.VerifyToken == "" {
		return
	}

	verifyURL := s.baseURL + "/verify-email?token=" + client.VerifyToken
	if err := s.mailer.SendVerification(ctx, client.Email, client.Name, verifyURL); err != nil {
		if s.logger != nil {
			s.logger.Warn("Failed to send verification mail", "client_id", client.ID, "error", err)
		}
	}
}
