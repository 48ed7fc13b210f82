package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"encoding/json/v2"

	domainerrors "github.com/tagnestapp/tagnest-server/internal/errors"
	"github.com/tagnestapp/tagnest-server/internal/service"
)

// sessionCookieName is the browser session cookie.
const sessionCookieName = "tagnest_session"

// CredentialInput carries every credential surface a client request may
// use. Embed it in huma input structs for client-scoped operations; the
// resolver picks the highest-priority carrier.
type CredentialInput struct {
	Authorization  string `header:"Authorization" doc:"Bearer access token"`
	SessionCookie  string `cookie:"tagnest_session" doc:"Browser session cookie"`
	ClientName     string `header:"X-Client-Name" doc:"Legacy client name or email"`
	ClientPassword string `header:"X-Client-Password" doc:"Legacy client password"`
}

// resolveClient produces the acting client from the request credentials.
func (s *Server) resolveClient(ctx context.Context, creds CredentialInput, withTags bool) (*service.Resolved, error) {
	return s.services.Auth.Resolve(ctx, service.Credentials{
		Authorization:  creds.Authorization,
		SessionID:      creds.SessionCookie,
		ClientName:     creds.ClientName,
		ClientPassword: creds.ClientPassword,
	}, service.ResolveOptions{WithTags: withTags})
}

// requireAdmin checks the X-Admin-Token header against the configured
// shared secret. A missing header is an authentication problem; a wrong
// one is a permission problem.
func (s *Server) requireAdmin(token string) error {
	if token == "" {
		return domainerrors.Unauthenticated("X-Admin-Token header is required")
	}
	if s.cfg.Admin.Token == "" {
		return domainerrors.Forbidden("the admin API is not enabled on this server")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Admin.Token)) != 1 {
		return domainerrors.Forbidden("invalid admin token")
	}
	return nil
}

// newSessionCookie builds the Set-Cookie value carrying a session ID.
func (s *Server) newSessionCookie(sessionID string) http.Cookie {
	return http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(s.cfg.Auth.SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   strings.HasPrefix(s.cfg.Server.BaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	}
}

// expiredSessionCookie builds a Set-Cookie value that removes the session.
func (s *Server) expiredSessionCookie() http.Cookie {
	c := s.newSessionCookie("")
	c.MaxAge = -1
	return c
}

// extractIP picks the client IP from forwarding headers, falling back to
// the connection address chi's RealIP middleware already resolved.
func extractIP(xForwardedFor, xRealIP, remoteAddr string) string {
	if xForwardedFor != "" {
		if i := strings.IndexByte(xForwardedFor, ','); i >= 0 {
			return strings.TrimSpace(xForwardedFor[:i])
		}
		return strings.TrimSpace(xForwardedFor)
	}
	if xRealIP != "" {
		return xRealIP
	}
	if i := strings.LastIndexByte(remoteAddr, ':'); i >= 0 {
		return remoteAddr[:i]
	}
	return remoteAddr
}

// writeErrorEnvelope writes an error envelope outside of huma, for the
// plain chi routes and middleware.
func writeErrorEnvelope(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body, err := json.Marshal(&errorEnvelope{
		V:       envelopeVersion,
		Success: false,
		Code:    code,
		Message: message,
	})
	if err != nil {
		return
	}
	_, _ = w.Write(body)
}
