package auth_test

import (
	"context"
	"testing"

	"github.com/anonchat/anonchat/internal/auth"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAuditor struct {
	events []string
}

func (a *recordingAuditor) Suspicious(ctx context.Context, ip, userAgent, details string) {
	a.events = append(a.events, details)
}

func TestGuardAuthorize_AdminAnyConversation(t *testing.T) {
	auditor := &recordingAuditor{}
	guard := auth.NewGuard(auditor)

	claim := auth.AdminClaim(1, "root")

	assert.NoError(t, guard.Authorize(context.Background(), claim, 1, "10.0.0.1", "ua"))
	assert.NoError(t, guard.Authorize(context.Background(), claim, 999, "10.0.0.1", "ua"))
	assert.Empty(t, auditor.events)
}

func TestGuardAuthorize_ParticipantOwnConversation(t *testing.T) {
	guard := auth.NewGuard(&recordingAuditor{})

	claim := auth.ParticipantClaim(7)

	assert.NoError(t, guard.Authorize(context.Background(), claim, 7, "10.0.0.1", "ua"))
}

func TestGuardAuthorize_CrossConversationAuditedAndDenied(t *testing.T) {
	auditor := &recordingAuditor{}
	guard := auth.NewGuard(auditor)

	claim := auth.ParticipantClaim(7)

	err := guard.Authorize(context.Background(), claim, 8, "10.0.0.1", "ua")
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.Len(t, auditor.events, 1)
	assert.Contains(t, auditor.events[0], "cross_conversation_access")
	assert.Contains(t, auditor.events[0], "bound=7")
	assert.Contains(t, auditor.events[0], "target=8")
}

func TestGuardAuthorize_UnauthenticatedDenied(t *testing.T) {
	auditor := &recordingAuditor{}
	guard := auth.NewGuard(auditor)

	err := guard.Authorize(context.Background(), auth.Claim{}, 1, "10.0.0.1", "ua")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Empty(t, auditor.events, "anonymous probing is a plain denial, not a cross-conversation event")
}
