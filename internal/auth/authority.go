package auth

import (
	"context"
	"net/http"

	"github.com/anonchat/anonchat/internal/models"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
	expiredContextKey contextKey = "session_expired"
)

// Authority binds the session store to the HTTP layer: it resolves the signed
// cookie into a live session, starts sessions on demand, and performs the
// privilege transitions that require id regeneration.
type Authority struct {
	store  *Store
	cookie CookieConfig
}

// NewAuthority creates an Authority over the given store and cookie settings.
func NewAuthority(store *Store, cookie CookieConfig) *Authority {
	return &Authority{store: store, cookie: cookie}
}

// Middleware resolves the request's session cookie into a *Session and puts it
// in the request context. An absent, invalid, or expired cookie simply yields
// no session; handlers that need one call Ensure.
func (a *Authority) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, err := ReadSessionCookie(r, a.cookie)
		if err == nil {
			if s, ok := a.store.Get(sid); ok {
				ctx := context.WithValue(r.Context(), sessionContextKey, s)
				r = r.WithContext(ctx)
			} else {
				// The cookie's signature checked out but the session is gone:
				// idle or absolute expiry, or a logout elsewhere. Worth
				// distinguishing from a request that never had a session.
				r = r.WithContext(context.WithValue(r.Context(), expiredContextKey, true))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Current returns the session loaded by Middleware, if any.
func (a *Authority) Current(r *http.Request) (*Session, bool) {
	s, ok := r.Context().Value(sessionContextKey).(*Session)
	return s, ok
}

// Expired reports whether the request carried a validly signed cookie whose
// session no longer exists.
func (a *Authority) Expired(r *http.Request) bool {
	expired, _ := r.Context().Value(expiredContextKey).(bool)
	return expired
}

// Ensure returns the request's session, creating one and setting its cookie
// when the request arrived without one.
func (a *Authority) Ensure(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if s, ok := a.Current(r); ok {
		return s, nil
	}

	s := a.store.Create()
	if err := SetSessionCookie(w, s.ID(), a.cookie); err != nil {
		a.store.Destroy(s.ID())
		return nil, err
	}

	return s, nil
}

// Elevate attaches a claim to the session and regenerates its identifier, so
// a pre-auth session id fixed by an attacker dies at the privilege boundary.
func (a *Authority) Elevate(w http.ResponseWriter, s *Session, claim Claim) error {
	if err := a.store.Authenticate(s, claim); err != nil {
		return err
	}

	newID := a.store.Regenerate(s)
	if err := SetSessionCookie(w, newID, a.cookie); err != nil {
		return err
	}

	return nil
}

// End destroys the session and clears its cookie. Safe to call without a
// session.
func (a *Authority) End(w http.ResponseWriter, r *http.Request) {
	if s, ok := a.Current(r); ok {
		a.store.Destroy(s.ID())
	}
	ClearSessionCookie(w, a.cookie)
}

// RequireAdmin returns the request's admin claim or an authorization error.
func (a *Authority) RequireAdmin(r *http.Request) (Claim, error) {
	s, ok := a.Current(r)
	if !ok {
		if a.Expired(r) {
			return Claim{}, models.ErrSessionExpired
		}
		return Claim{}, models.ErrUnauthorized
	}

	claim := s.Claim()
	if !claim.IsAdmin() {
		return Claim{}, models.ErrForbidden
	}

	return claim, nil
}
