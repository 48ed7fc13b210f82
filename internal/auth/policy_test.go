package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantOK   bool
	}{
		{"valid", "Sup3r-Secret!", true},
		{"too short", "Ab1!", false},
		{"no uppercase", "sup3r-secret!", false},
		{"no lowercase", "SUP3R-SECRET!", false},
		{"no digit", "Super-Secret!", false},
		{"no symbol", "Sup3rSecret1", false},
		{"empty", "", false},
		{"way too long", "Aa1!" + strings.Repeat("x", maxPasswordLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := CheckPasswordPolicy(tt.password)
			if tt.wantOK {
				assert.Empty(t, problems)
			} else {
				assert.NotEmpty(t, problems)
			}
		})
	}
}

func TestPolicyError(t *testing.T) {
	msg := PolicyError([]string{"must be at least 8 characters", "must contain a digit"})
	assert.Equal(t, "password must be at least 8 characters; must contain a digit", msg)
}

func TestGenerateTemporaryPassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		password, err := GenerateTemporaryPassword()
		require.NoError(t, err)

		assert.Len(t, password, tempPasswordLength)
		assert.Empty(t, CheckPasswordPolicy(password), "temporary password must satisfy the policy")
		assert.False(t, seen[password], "temporary passwords must not repeat")
		seen[password] = true

		// No ambiguous glyphs.
		for _, bad := range []string{"O", "0", "l", "1", "I", "i"} {
			assert.NotContains(t, password, bad)
		}
	}
}
