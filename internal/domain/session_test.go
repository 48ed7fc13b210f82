package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiry",
			expiresAt: time.Now().Add(time.Hour),
			want:      false,
		},
		{
			name:      "past expiry",
			expiresAt: time.Now().Add(-time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{ID: "sess", ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, s.IsExpired())
		})
	}
}

func TestSession_Touch(t *testing.T) {
	s := &Session{ID: "sess", LastSeenAt: time.Now().Add(-time.Hour)}
	before := s.LastSeenAt

	s.Touch()

	assert.True(t, s.LastSeenAt.After(before))
}
