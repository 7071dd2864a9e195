package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword compares a bcrypt hash against a candidate password.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// NeedsRehash reports whether a stored hash was produced at a weaker cost than
// currently configured. Hashes that fail to parse also read as needing rehash
// so legacy formats rotate out on the next successful login.
func NeedsRehash(hashedPassword string, cost int) bool {
	hashCost, err := bcrypt.Cost([]byte(hashedPassword))
	if err != nil {
		return true
	}
	return hashCost < cost
}
