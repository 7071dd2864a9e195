package models_test

import (
	"errors"
	"testing"
	"time"

	"github.com/anonchat/anonchat/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestValidationError_Message(t *testing.T) {
	err := models.NewValidationError("message", "cannot be empty")
	assert.Equal(t, "message: cannot be empty", err.Error())

	bare := &models.ValidationError{Message: "no columns to update"}
	assert.Equal(t, "no columns to update", bare.Error())
}

func TestInvalidCredentialsError(t *testing.T) {
	err := &models.InvalidCredentialsError{Attempts: 3, MaxAttempts: 5}

	assert.Equal(t, 2, err.Remaining())
	assert.True(t, errors.Is(err, models.ErrUnauthorized))

	exhausted := &models.InvalidCredentialsError{Attempts: 7, MaxAttempts: 5}
	assert.Equal(t, 0, exhausted.Remaining(), "remaining never goes negative")
}

func TestRateLimitedError(t *testing.T) {
	err := &models.RateLimitedError{RetryAfter: 90 * time.Second}

	assert.True(t, errors.Is(err, models.ErrRateLimitExceeded))
	assert.Contains(t, err.Error(), "90")
}

func TestAccountLockedError(t *testing.T) {
	err := &models.AccountLockedError{Until: time.Now().Add(10 * time.Minute)}
	assert.True(t, errors.Is(err, models.ErrAccountLocked))
}

func TestAccountLocked(t *testing.T) {
	now := time.Now()
	account := &models.Account{}
	assert.False(t, account.Locked(now))

	future := now.Add(time.Minute)
	account.LockedUntil = &future
	assert.True(t, account.Locked(now))

	past := now.Add(-time.Minute)
	account.LockedUntil = &past
	assert.False(t, account.Locked(now), "an elapsed lockout no longer binds")
}

func TestConversationExpired(t *testing.T) {
	now := time.Now()
	conversation := &models.Conversation{}
	assert.False(t, conversation.Expired(now), "no expiry means never expires")

	past := now.Add(-time.Minute)
	conversation.ExpiresAt = &past
	assert.True(t, conversation.Expired(now))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{
		models.StatusPending, models.StatusActive, models.StatusWaiting,
		models.StatusClosed, models.StatusArchived,
	} {
		assert.True(t, models.ValidStatus(s), s)
	}

	assert.False(t, models.ValidStatus("deleted"))
	assert.False(t, models.ValidStatus(""))
}

func TestNormalizeEventType(t *testing.T) {
	assert.Equal(t, models.EventLoginFailed, models.NormalizeEventType(models.EventLoginFailed))
	assert.Equal(t, models.EventSuspiciousActivity, models.NormalizeEventType("made_up_event"))
	assert.Equal(t, models.EventSuspiciousActivity, models.NormalizeEventType(""))
}

func TestPanelRegistry(t *testing.T) {
	table, ok := models.PanelTable("accounts")
	assert.True(t, ok)

	hash, ok := table.Column("password_hash")
	assert.True(t, ok)
	assert.True(t, hash.ReadOnly)

	_, ok = table.Column("ssn")
	assert.False(t, ok)

	_, ok = models.PanelTable("pg_shadow")
	assert.False(t, ok, "only registered tables are reachable")

	names := table.ColumnNames()
	assert.Equal(t, "id", names[0], "declaration order is preserved")
}
