// Package googleauth verifies Google Sign-In ID tokens via the tokeninfo endpoint.
package googleauth

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"
)

const (
	tokeninfoURL = "https://oauth2.googleapis.com/tokeninfo"

	defaultTimeout = 10 * time.Second
)

// Sentinel errors for token verification.
var (
	// ErrInvalidToken means Google rejected the token (malformed, expired, bad signature).
	ErrInvalidToken = errors.New("googleauth: invalid token")
	// ErrAudienceMismatch means the token is valid but was issued for an unknown client ID.
	ErrAudienceMismatch = errors.New("googleauth: audience not allowed")
	// ErrDisabled means no client IDs are configured, so Google sign-in is off.
	ErrDisabled = errors.New("googleauth: no client IDs configured")
	// ErrServer means the tokeninfo endpoint itself failed.
	ErrServer = errors.New("googleauth: tokeninfo unavailable")
)

// TokenInfo is the subset of tokeninfo claims we care about.
type TokenInfo struct {
	// Subject is Google's stable account identifier.
	Subject string
	// Email may be empty when the email scope was not granted.
	Email         string
	EmailVerified bool
	Name          string
}

// Verifier validates Google ID tokens against an audience allow-list.
type Verifier struct {
	http      *http.Client
	baseURL   string
	clientIDs []string
	logger    *slog.Logger
}

// New creates a Verifier accepting tokens issued for the given OAuth client IDs.
// An empty list disables verification entirely.
func New(clientIDs []string, logger *slog.Logger) *Verifier {
	return &Verifier{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:   tokeninfoURL,
		clientIDs: clientIDs,
		logger:    logger,
	}
}

// Enabled reports whether any client IDs are configured.
func (v *Verifier) Enabled() bool {
	return len(v.clientIDs) > 0
}

// tokeninfoResponse mirrors the tokeninfo JSON shape. All values are strings
// on the wire, including booleans and timestamps.
type tokeninfoResponse struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Exp           string `json:"exp"`
}

// Verify checks an ID token with Google and returns its claims.
// The token's audience must match one of the configured client IDs.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*TokenInfo, error) {
	if !v.Enabled() {
		return nil, ErrDisabled
	}
	if idToken == "" {
		return nil, ErrInvalidToken
	}

	query := url.Values{}
	query.Set("id_token", idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServer, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// Valid token, continue below.
	case resp.StatusCode >= 500:
		v.logger.Warn("tokeninfo endpoint error", "status", resp.StatusCode)
		return nil, ErrServer
	default:
		// Google returns 400 for anything it cannot validate.
		return nil, ErrInvalidToken
	}

	var info tokeninfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse tokeninfo response: %w", err)
	}

	if info.Sub == "" {
		return nil, ErrInvalidToken
	}

	if !slices.Contains(v.clientIDs, info.Aud) {
		v.logger.Warn("google token audience not allowed", "aud", info.Aud)
		return nil, ErrAudienceMismatch
	}

	return &TokenInfo{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified == "true",
		Name:          info.Name,
	}, nil
}
