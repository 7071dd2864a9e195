package models

import "time"

// Conversation lifecycle statuses. The set is a closed allow-list but
// transitions between members are unrestricted: any authenticated admin may set
// any value at any time.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusWaiting  = "waiting"
	StatusClosed   = "closed"
	StatusArchived = "archived"
)

var conversationStatuses = map[string]bool{
	StatusPending:  true,
	StatusActive:   true,
	StatusWaiting:  true,
	StatusClosed:   true,
	StatusArchived: true,
}

// ValidStatus reports whether s is an allow-listed conversation status.
func ValidStatus(s string) bool {
	return conversationStatuses[s]
}

// Conversation is a single admin/visitor exchange, addressed by clients through
// its short Code.
type Conversation struct {
	ID           int64      `json:"id"`
	Code         string     `json:"code"`
	Status       string     `json:"status"`
	Report       string     `json:"report"`
	CreatorIP    string     `json:"creator_ip,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Expired reports whether the conversation can no longer be joined.
func (c *Conversation) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}
