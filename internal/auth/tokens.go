package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/tagnestapp/tagnest-server/internal/domain"
	"github.com/tagnestapp/tagnest-server/internal/id"
)

const (
	tokenIssuer   = "tagnest-server"
	tokenAudience = "tagnest-client"

	// PASETO v4 symmetric key requirements.
	keyBytesSize   = 32 // 256 bits
	keyHexSize     = 64 // 32 bytes as hex string
	sessionIDBytes = 32 // 256 bits of entropy
)

// TokenService handles PASETO token generation and verification, plus the
// opaque session identifiers used by the cookie path.
type TokenService struct {
	symmetricKey    paseto.V4SymmetricKey
	accessDuration  time.Duration
	sessionDuration time.Duration
}

// NewTokenService creates a new token service with the given configuration.
func NewTokenService(keyHex string, accessDuration, sessionDuration time.Duration) (*TokenService, error) {
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}

	if len(keyBytes) != keyBytesSize {
		return nil, fmt.Errorf("decoded key must be exactly %d bytes, got %d", keyBytesSize, len(keyBytes))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey:    key,
		accessDuration:  accessDuration,
		sessionDuration: sessionDuration,
	}, nil
}

// GenerateAccessToken creates a new PASETO v4.local access token for the
// client. The token is encrypted and contains the client claims.
func (s *TokenService) GenerateAccessToken(client *domain.Client) (string, error) {
	now := time.Now()

	token := paseto.NewToken()

	// Add the standard claims
	token.SetIssuer(tokenIssuer)
	token.SetSubject(client.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.accessDuration))

	// Generate unique token ID
	tokenID, err := id.Generate("token")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	// Our custom claims
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("client_id", client.ID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("name", client.Name)

	encrypted := token.V4Encrypt(s.symmetricKey, nil)
	return encrypted, nil
}

// VerifyAccessToken verifies and parses a PASETO access token.
// Returns the claims if valid, or an error if they're invalid or expired.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	parser := paseto.NewParser()

	// Add validation rules (Basically just checks the claims we set above)
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	// Parse and decrypt v4.local token
	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &claims, nil
}

// GenerateSessionID creates a cryptographically random opaque session ID.
// NOTE: this is NOT a PASETO token, it's just random bytes stored in the
// database that the cookie value is validated against.
func (s *TokenService) GenerateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *TokenService) AccessTokenDuration() time.Duration {
	return s.accessDuration
}

// SessionDuration returns the configured cookie session lifetime.
func (s *TokenService) SessionDuration() time.Duration {
	return s.sessionDuration
}
