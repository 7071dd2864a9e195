package models

import "time"

// Security event types recorded to the durable audit store. Anything outside
// the allow-list is normalized to suspicious_activity before persisting.
const (
	EventLoginSuccess        = "login_success"
	EventLoginFailed         = "login_failed"
	EventConversationCreated = "conversation_created"
	EventSuspiciousActivity  = "suspicious_activity"
)

var securityEventTypes = map[string]bool{
	EventLoginSuccess:        true,
	EventLoginFailed:         true,
	EventConversationCreated: true,
	EventSuspiciousActivity:  true,
}

// NormalizeEventType clamps unknown event types to suspicious_activity.
func NormalizeEventType(t string) string {
	if securityEventTypes[t] {
		return t
	}
	return EventSuspiciousActivity
}

// SecurityEvent is one row in the security_log audit table.
type SecurityEvent struct {
	ID        int64
	EventType string
	IPAddress string
	UserAgent string
	Details   *string
	CreatedAt time.Time
}
