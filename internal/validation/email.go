// Package validation holds input checks shared by the service and API layers.
package validation

import (
	"errors"
	"regexp"
	"strings"
)

const (
	maxEmailLength    = 254
	maxEmailLocalPart = 64
	maxPasswordBytes  = 72
	maxTitleLength    = 300
	maxContentLength  = 50000
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9](?:[a-zA-Z0-9\-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9\-]*[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`)

// NormalizeEmail trims and lower-cases an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address shape and the RFC 5321 length limits.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > maxEmailLength {
		return errors.New("email must be at most 254 characters")
	}
	local, _, ok := strings.Cut(email, "@")
	if !ok || len(local) > maxEmailLocalPart {
		return errors.New("invalid email format")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidatePassword accepts any non-empty password bcrypt can hash in full.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	if len(password) > maxPasswordBytes {
		return errors.New("password must be at most 72 bytes")
	}
	return nil
}
