// Package domain contains the core entities of the TagNest system.
package domain

import "time"

// Client represents an account that owns tags. Name is the unique public
// handle; email, password and Google linkage are all optional, but a usable
// account always has at least one sign-in method (password hash or Google ID).
type Client struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`

	// Stored hashed, filter from API responses.
	PasswordHash string `json:"password_hash,omitempty"`
	GoogleID     string `json:"google_id,omitempty"`

	// One-shot token pairs. Token and expiry are set and cleared together.
	ResetToken        string     `json:"-"`
	ResetTokenExpiry  *time.Time `json:"-"`
	VerifyToken       string     `json:"-"`
	VerifyTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPassword returns true if the client can sign in with a password.
func (c *Client) HasPassword() bool {
	return c.PasswordHash != ""
}

// HasGoogle returns true if the client is linked to a Google account.
func (c *Client) HasGoogle() bool {
	return c.GoogleID != ""
}

// HasValidResetToken reports whether the given reset token matches and has
// not expired at the given instant.
func (c *Client) HasValidResetToken(token string, now time.Time) bool {
	if c.ResetToken == "" || c.ResetTokenExpiry == nil {
		return false
	}
	return c.ResetToken == token && now.Before(*c.ResetTokenExpiry)
}

// HasValidVerifyToken reports whether the given verification token matches
// and has not expired at the given instant.
func (c *Client) HasValidVerifyToken(token string, now time.Time) bool {
	if c.VerifyToken == "" || c.VerifyTokenExpiry == nil {
		return false
	}
	return c.VerifyToken == token && now.Before(*c.VerifyTokenExpiry)
}

// Touch updates the UpdatedAt timestamp.
func (c *Client) Touch() {
	c.UpdatedAt = time.Now()
}
