package api

import (
	"time"

	"github.com/tagnestapp/tagnest-server/internal/domain"
)

// ClientResponse contains client account information in API responses.
// Credential material never leaves the service layer.
type ClientResponse struct {
	ID            string    `json:"id" doc:"Client ID"`
	Name          string    `json:"name" doc:"Display name"`
	Email         string    `json:"email,omitempty" doc:"Email address"`
	EmailVerified bool      `json:"email_verified" doc:"Whether the email address is verified"`
	HasPassword   bool      `json:"has_password" doc:"Whether a password is set"`
	HasGoogle     bool      `json:"has_google" doc:"Whether Google sign-in is linked"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// TagResponse contains tag information in owner-facing API responses.
type TagResponse struct {
	ID            string    `json:"id" doc:"Tag ID"`
	Slug          string    `json:"slug" doc:"Public slug"`
	LandingURL    string    `json:"landing_url" doc:"Public landing page URL"`
	Name          string    `json:"name" doc:"Display name"`
	Phone         string    `json:"phone,omitempty" doc:"Primary phone number"`
	Phone2        string    `json:"phone2,omitempty" doc:"Secondary phone number"`
	Address       string    `json:"address,omitempty" doc:"Contact address"`
	URL           string    `json:"url,omitempty" doc:"Contact URL"`
	Instructions  string    `json:"instructions,omitempty" doc:"Finder instructions"`
	HasImage      bool      `json:"has_image" doc:"Whether an image is attached"`
	ImageBlurHash string    `json:"image_blurhash,omitempty" doc:"BlurHash placeholder for the image"`
	ScanCount     int64     `json:"scan_count" doc:"Number of public views"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Status message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

func mapClient(c *domain.Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		HasPassword:   c.HasPassword(),
		HasGoogle:     c.HasGoogle(),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (s *Server) mapTag(t *domain.Tag) TagResponse {
	return TagResponse{
		ID:            t.ID,
		Slug:          t.Slug,
		LandingURL:    s.cfg.TagURL(t.Slug),
		Name:          t.Name,
		Phone:         t.Phone,
		Phone2:        t.Phone2,
		Address:       t.Address,
		URL:           t.URL,
		Instructions:  t.Instructions,
		HasImage:      t.HasImage(),
		ImageBlurHash: t.ImageBlurHash,
		ScanCount:     t.ScanCount,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (s *Server) mapTags(tags []*domain.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, s.mapTag(t))
	}
	return out
}
