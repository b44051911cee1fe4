// Package password hashes and checks user passwords with bcrypt.
package password

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	dErrors "storefront/pkg/domain-errors"
)

const minLength = 8

// Validate enforces the password policy: at least 8 characters and not
// entirely numeric.
func Validate(pw string) error {
	if len(pw) < minLength {
		return dErrors.NewField(dErrors.CodeValidation, "password", "This password is too short. It must contain at least 8 characters.")
	}
	if strings.IndexFunc(pw, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return dErrors.NewField(dErrors.CodeValidation, "password", "This password is entirely numeric.")
	}
	return nil
}

// Hash returns a bcrypt hash at the given cost. Zero cost means the default.
func Hash(pw string, cost int) (string, error) {
	if pw == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password cannot be empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.NewField(dErrors.CodeValidation, "password", "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether pw matches hash. A mismatch is not an error.
func Verify(pw, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("could not verify password: %w", err)
}

// Generate creates a random URL-safe secret, used for bootstrap accounts when
// no password is configured.
func Generate() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
