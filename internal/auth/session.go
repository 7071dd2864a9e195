package auth

import (
	"sync"
	"time"

	"github.com/anonchat/anonchat/internal/metrics"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/google/uuid"
)

// Session is one server-side session record. The claim is immutable once set;
// csrf holds one long-lived token per purpose; values is a scoped key-value
// area for request-spanning state (the admin panel keeps its undo buffers
// there).
type Session struct {
	mu        sync.Mutex
	id        string
	claim     Claim
	createdAt time.Time
	lastSeen  time.Time
	csrf      map[string]string
	values    map[string]any
}

// ID returns the current session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Claim returns the identity attached to this session.
func (s *Session) Claim() Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claim
}

// Put stores a value in the session's scoped KV area.
func (s *Session) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Take removes and returns a value from the scoped KV area.
func (s *Session) Take(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if ok {
		delete(s.values, key)
	}
	return v, ok
}

type typingKey struct {
	conversationID int64
	role           string
}

// Store is the in-process session store. It also owns the ephemeral
// typing-signal map: both are explicitly scoped to a single process, which is
// a stated limitation of the design (no horizontal session sharing).
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	typing   map[typingKey]time.Time

	idleTimeout      time.Duration
	absoluteLifetime time.Duration
}

// NewStore creates a session store and starts its expiry janitor.
func NewStore(idleTimeout, absoluteLifetime time.Duration) *Store {
	st := &Store{
		sessions:         make(map[string]*Session),
		typing:           make(map[typingKey]time.Time),
		idleTimeout:      idleTimeout,
		absoluteLifetime: absoluteLifetime,
	}

	go st.sweepExpired()

	return st
}

// Create starts a new unauthenticated session.
func (st *Store) Create() *Session {
	now := time.Now()
	s := &Session{
		id:        uuid.NewString(),
		createdAt: now,
		lastSeen:  now,
		csrf:      make(map[string]string),
		values:    make(map[string]any),
	}

	st.mu.Lock()
	st.sessions[s.id] = s
	metrics.ActiveSessions.Set(float64(len(st.sessions)))
	st.mu.Unlock()

	return s
}

// Get resolves a session by id, applying idle and absolute expiry. A live hit
// slides the idle window. Expired sessions are destroyed and read as absent,
// collapsing the claim to none.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := time.Now()
	s.mu.Lock()
	expired := now.Sub(s.lastSeen) > st.idleTimeout || now.Sub(s.createdAt) > st.absoluteLifetime
	if !expired {
		s.lastSeen = now
	}
	s.mu.Unlock()

	if expired {
		st.Destroy(id)
		return nil, false
	}

	return s, true
}

// Regenerate swaps the session identifier while keeping the record, defeating
// fixation after privilege elevation. Returns the new id.
func (st *Store) Regenerate(s *Session) string {
	newID := uuid.NewString()

	st.mu.Lock()
	s.mu.Lock()
	delete(st.sessions, s.id)
	s.id = newID
	st.sessions[newID] = s
	s.mu.Unlock()
	st.mu.Unlock()

	return newID
}

// Destroy removes the session, invalidating its identifier.
func (st *Store) Destroy(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	metrics.ActiveSessions.Set(float64(len(st.sessions)))
	st.mu.Unlock()
}

// Authenticate attaches a claim. A session is either an admin session or a
// participant session for its entire life; switching is not supported.
func (st *Store) Authenticate(s *Session, claim Claim) error {
	if !claim.IsAuthenticated() {
		return models.ErrBadRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claim.Kind != ClaimNone {
		return models.ErrConflict
	}
	s.claim = claim
	return nil
}

// SetTyping records or clears the caller role's typing signal for a
// conversation. Clearing just deletes the key; stale entries are also handled
// read-side by the freshness window.
func (st *Store) SetTyping(conversationID int64, role string, active bool) {
	key := typingKey{conversationID: conversationID, role: role}

	st.mu.Lock()
	if active {
		st.typing[key] = time.Now()
	} else {
		delete(st.typing, key)
	}
	st.mu.Unlock()
}

// TypingActive reports whether role signaled typing within the freshness
// window. Older signals read as not-typing without requiring cleanup.
func (st *Store) TypingActive(conversationID int64, role string, window time.Duration) bool {
	st.mu.RLock()
	ts, ok := st.typing[typingKey{conversationID: conversationID, role: role}]
	st.mu.RUnlock()

	return ok && time.Since(ts) <= window
}

// sweepExpired periodically drops expired sessions and stale typing signals.
func (st *Store) sweepExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		st.mu.Lock()
		for id, s := range st.sessions {
			s.mu.Lock()
			expired := now.Sub(s.lastSeen) > st.idleTimeout || now.Sub(s.createdAt) > st.absoluteLifetime
			s.mu.Unlock()
			if expired {
				delete(st.sessions, id)
			}
		}
		for key, ts := range st.typing {
			if now.Sub(ts) > time.Minute {
				delete(st.typing, key)
			}
		}
		metrics.ActiveSessions.Set(float64(len(st.sessions)))
		st.mu.Unlock()
	}
}
