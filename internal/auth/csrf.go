package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

// CSRF purposes. A token minted for one purpose fails validation for any
// other, and never validates against a different session.
const (
	PurposeAdminLogin = "admin-login"
	PurposeJoin       = "join"
	PurposeChat       = "chat"
	PurposeAdminPanel = "admin-panel"
)

var csrfPurposes = map[string]bool{
	PurposeAdminLogin: true,
	PurposeJoin:       true,
	PurposeChat:       true,
	PurposeAdminPanel: true,
}

// ValidPurpose reports whether p is a known CSRF purpose.
func ValidPurpose(p string) bool {
	return csrfPurposes[p]
}

// IssueCSRF returns the session's token for a purpose, minting it on first
// use. Tokens live for the session and survive repeated use; they are not
// single-use nonces.
func IssueCSRF(s *Session, purpose string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.csrf[purpose]; ok {
		return token, nil
	}

	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	token := hex.EncodeToString(randomBytes)
	s.csrf[purpose] = token
	return token, nil
}

// ValidateCSRF checks a presented token against the session's token for the
// purpose using a constant-time comparison.
func ValidateCSRF(s *Session, purpose, token string) bool {
	if s == nil || token == "" {
		return false
	}

	s.mu.Lock()
	expected, ok := s.csrf[purpose]
	s.mu.Unlock()
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}
