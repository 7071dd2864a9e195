package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieConfig holds session cookie settings.
type CookieConfig struct {
	Name     string
	Secret   []byte        // HMAC key for the cookie payload
	Secure   bool          // HTTPS only
	Lifetime time.Duration // matches the store's absolute lifetime
}

// sessionCookieClaims wraps the opaque session id in a signed token so a
// tampered cookie is rejected before any store lookup.
type sessionCookieClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// SetSessionCookie writes the signed session cookie. HttpOnly and
// SameSite=Strict: the session id is never script-readable and never rides
// cross-site requests.
func SetSessionCookie(w http.ResponseWriter, sid string, config CookieConfig) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionCookieClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.Lifetime)),
		},
	})

	signed, err := token.SignedString(config.Secret)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.Name,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(config.Lifetime.Seconds()),
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteStrictMode,
	})

	return nil
}

// ReadSessionCookie extracts and verifies the session id from the request.
func ReadSessionCookie(r *http.Request, config CookieConfig) (string, error) {
	cookie, err := r.Cookie(config.Name)
	if err != nil {
		return "", err
	}

	claims := &sessionCookieClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return config.Secret, nil
	})
	if err != nil || !token.Valid || claims.SID == "" {
		return "", fmt.Errorf("invalid session cookie")
	}

	return claims.SID, nil
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
