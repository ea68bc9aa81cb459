// Package crypto provides password hashing and secret generation for folio.
package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Password errors
var (
	// ErrPasswordMismatch indicates the password does not match the hash.
	ErrPasswordMismatch = errors.New("password does not match")

	// ErrPasswordTooLong indicates the password exceeds bcrypt's 72-byte input limit.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

	// ErrInvalidCost indicates a bcrypt cost outside [bcrypt.MinCost, bcrypt.MaxCost].
	ErrInvalidCost = errors.New("invalid bcrypt cost")
)

// HashPassword hashes password with bcrypt at the given cost.
// The result embeds its own salt and cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password against a bcrypt hash.
// Returns ErrPasswordMismatch on a wrong password, and a wrapped error when
// the stored hash is malformed.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("failed to check password: %w", err)
	}
}

// HashCost returns the cost a bcrypt hash was created with.
func HashCost(hash string) (int, error) {
	return bcrypt.Cost([]byte(hash))
}
