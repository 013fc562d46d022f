// Package emailaddr normalizes and shape-checks email addresses. The same
// rules run on the client before any request and on the server before any
// write, so both sides agree on the key an address is stored under.
package emailaddr

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalid = errors.New("invalid email address")

// maxLength follows the RFC 5321 path limit.
const maxLength = 254

var v = validator.New()

// Normalize trims surrounding whitespace and lowercases the address.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate reports ErrInvalid when the normalized address fails a basic
// shape check.
func Validate(email string) error {
	if email == "" || len(email) > maxLength {
		return ErrInvalid
	}
	if err := v.Var(email, "required,email"); err != nil {
		return ErrInvalid
	}
	return nil
}

// Parse normalizes then validates, returning the storage key.
func Parse(email string) (string, error) {
	normalized := Normalize(email)
	if err := Validate(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
