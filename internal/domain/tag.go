package domain

import "time"

// Tag represents a physical NFC tag and its landing-page content.
// Slug is the immutable public identifier encoded on the tag itself;
// everything else is owner-editable display data.
type Tag struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	ClientID string `json:"client_id"`

	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Phone2       string `json:"phone2,omitempty"`
	Address      string `json:"address,omitempty"`
	URL          string `json:"url,omitempty"`
	Instructions string `json:"instructions,omitempty"`

	ImageID       string `json:"image_id,omitempty"`
	ImageBlurHash string `json:"image_blurhash,omitempty"`

	// Incremented on each public landing-page view. A rough counter,
	// not an analytics feed.
	ScanCount int64 `json:"scan_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether the tag belongs to the given client.
func (t *Tag) OwnedBy(clientID string) bool {
	return t.ClientID == clientID
}

// HasImage returns true if an image has been uploaded for the tag.
func (t *Tag) HasImage() bool {
	return t.ImageID != ""
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}
