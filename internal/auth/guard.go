package auth

import (
	"context"
	"fmt"

	"github.com/anonchat/anonchat/internal/models"
)

// SecurityAuditor records security-relevant events. Satisfied by
// services.AuditService; declared here so the guard stays dependency-free.
type SecurityAuditor interface {
	Suspicious(ctx context.Context, ip, userAgent, details string)
}

// Guard authorizes an identity against a specific conversation.
type Guard struct {
	audit SecurityAuditor
}

// NewGuard creates a conversation access guard.
func NewGuard(audit SecurityAuditor) *Guard {
	return &Guard{audit: audit}
}

// Authorize allows admins against any conversation and participants only
// against their own. A participant reaching for a foreign conversation is a
// stronger signal than a generic failure and is audited distinctly; the client
// still sees a generic denial.
func (g *Guard) Authorize(ctx context.Context, claim Claim, conversationID int64, ip, userAgent string) error {
	switch claim.Kind {
	case ClaimAdmin:
		return nil
	case ClaimParticipant:
		if claim.ConversationID == conversationID {
			return nil
		}
		if g.audit != nil {
			g.audit.Suspicious(ctx, ip, userAgent,
				fmt.Sprintf("cross_conversation_access:bound=%d;target=%d", claim.ConversationID, conversationID))
		}
		return models.ErrForbidden
	default:
		return models.ErrUnauthorized
	}
}
