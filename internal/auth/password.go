// Package auth holds password handling and the session middleware of the account surface.
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost        = 12
	MinPasswordLength = 8

	// bcrypt only reads the first 72 bytes.
	MaxPasswordBytes = 72
)

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PasswordIssues lists every rule the password breaks, in a stable order.
func PasswordIssues(password string) []string {
	var issues []string
	if len([]rune(password)) < MinPasswordLength {
		issues = append(issues, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		issues = append(issues, fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !letter {
		issues = append(issues, "Password must include a letter")
	}
	if !digit {
		issues = append(issues, "Password must include a number")
	}
	return issues
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Malformed hashes never match.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
