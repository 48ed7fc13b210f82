package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// minPasswordLength is the floor for any client password.
const minPasswordLength = 8

// CheckPasswordPolicy validates a candidate password against the account
// password rules: at least 8 characters with an uppercase letter, a
// lowercase letter, a digit, and a symbol. The same check runs at
// registration, password change, and reset completion.
// Returns nil if the password is acceptable, or a slice of human-readable
// problems otherwise.
func CheckPasswordPolicy(password string) []string {
	var problems []string

	if len(password) < minPasswordLength {
		problems = append(problems, "must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		problems = append(problems, "exceeds maximum length")
		return problems
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		problems = append(problems, "must contain an uppercase letter")
	}
	if !hasLower {
		problems = append(problems, "must contain a lowercase letter")
	}
	if !hasDigit {
		problems = append(problems, "must contain a digit")
	}
	if !hasSymbol {
		problems = append(problems, "must contain a symbol")
	}

	return problems
}

// PolicyError joins policy problems into a single message suitable for an
// API error.
func PolicyError(problems []string) string {
	return "password " + strings.Join(problems, "; ")
}

// tempPasswordLength is the length of generated temporary passwords.
const tempPasswordLength = 16

// Character classes for temporary passwords. Ambiguous glyphs (O/0, l/1)
// are excluded since these passwords get read out loud or typed from email.
const (
	tempUpper   = "ABCDEFGHJKMNPQRSTUVWXYZ"
	tempLower   = "abcdefghjkmnpqrstuvwxyz"
	tempDigits  = "23456789"
	tempSymbols = "!@#$%^&*-_=+"
)

// GenerateTemporaryPassword creates a random password that satisfies
// CheckPasswordPolicy. Used for admin-created accounts.
func GenerateTemporaryPassword() (string, error) {
	classes := []string{tempUpper, tempLower, tempDigits, tempSymbols}
	all := strings.Join(classes, "")

	chars := make([]byte, 0, tempPasswordLength)

	// One character from each class guarantees the policy is met.
	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	for len(chars) < tempPasswordLength {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Shuffle so the class-guaranteed characters aren't always first.
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("shuffle password: %w", err)
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("generate password character: %w", err)
	}
	return set[n.Int64()], nil
}
