package auth

import "github.com/anonchat/anonchat/internal/models"

// ClaimKind discriminates the closed set of session identities.
type ClaimKind int

const (
	ClaimNone ClaimKind = iota
	ClaimAdmin
	ClaimParticipant
)

// Claim is the authenticated identity attached to a session: none, an admin
// account, or an anonymous participant bound to exactly one conversation.
// A session holds at most one claim kind for its entire life.
type Claim struct {
	Kind           ClaimKind
	AccountID      int64  // admin only
	Username       string // admin only
	ConversationID int64  // participant only
}

// AdminClaim builds an admin identity.
func AdminClaim(accountID int64, username string) Claim {
	return Claim{Kind: ClaimAdmin, AccountID: accountID, Username: username}
}

// ParticipantClaim builds an anonymous identity bound to one conversation.
func ParticipantClaim(conversationID int64) Claim {
	return Claim{Kind: ClaimParticipant, ConversationID: conversationID}
}

func (c Claim) IsAdmin() bool       { return c.Kind == ClaimAdmin }
func (c Claim) IsParticipant() bool { return c.Kind == ClaimParticipant }
func (c Claim) IsAuthenticated() bool {
	return c.Kind == ClaimAdmin || c.Kind == ClaimParticipant
}

// SenderRole is the message role this identity writes as by default.
// Admins may override per message; participants may not.
func (c Claim) SenderRole() string {
	if c.Kind == ClaimAdmin {
		return models.SenderAdmin
	}
	return models.SenderAnonymous
}
