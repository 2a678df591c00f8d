package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordTooShort = errors.New("password too short")

// PasswordHasher hashes and checks passwords with bcrypt
type PasswordHasher struct {
	cost      int
	minLength int
}

// NewPasswordHasher creates a hasher. A cost outside bcrypt's range falls back to the default.
func NewPasswordHasher(cost, minLength int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost, minLength: minLength}
}

// Hash returns the bcrypt hash of password after checking its length
func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) < h.minLength {
		return "", fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, h.minLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether password matches hash
func (h *PasswordHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
