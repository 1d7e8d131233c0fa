// Package auth holds the trust root: password hashing, session token
// issuance/verification, and the first-run admin bootstrap policy.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the original deployment's work factor.
const bcryptCost = 12

// HashPassword derives a salted bcrypt hash. The plaintext is never
// stored or logged.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Any failure,
// including a malformed hash, is a plain false: callers surface only
// "invalid credentials" and never distinguish why.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
