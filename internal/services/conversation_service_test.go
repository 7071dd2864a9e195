package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/anonchat/anonchat/internal/models"
	"github.com/anonchat/anonchat/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversationService(conversations *MockConversationRepository, limiter *MockRateLimiter, auditRepo *MockSecurityLogRepository) *services.ConversationService {
	return services.NewConversationService(conversations, limiter, newTestAudit(auditRepo), testLogger())
}

func TestConversationCreate_GeneratesCode(t *testing.T) {
	var gotCode string
	conversations := &MockConversationRepository{
		CreateFunc: func(ctx context.Context, code, creatorIP string, expiresAt *time.Time) (*models.Conversation, error) {
			gotCode = code
			return &models.Conversation{ID: 5, Code: code, Status: models.StatusPending}, nil
		},
	}
	auditRepo := &MockSecurityLogRepository{}

	service := newConversationService(conversations, &MockRateLimiter{}, auditRepo)

	conversation, err := service.Create(context.Background(), "10.0.0.1", "ua")
	require.NoError(t, err)
	assert.Len(t, gotCode, 8)
	assert.NotContains(t, gotCode, "0")
	assert.NotContains(t, gotCode, "O")
	assert.NotContains(t, gotCode, "1")
	assert.Equal(t, int64(5), conversation.ID)
	assert.Contains(t, auditRepo.EventTypes(), models.EventConversationCreated)
}

func TestConversationCreate_RetriesOnCodeCollision(t *testing.T) {
	calls := 0
	conversations := &MockConversationRepository{
		CreateFunc: func(ctx context.Context, code, creatorIP string, expiresAt *time.Time) (*models.Conversation, error) {
			calls++
			if calls < 3 {
				return nil, models.ErrConflict
			}
			return &models.Conversation{ID: 5, Code: code}, nil
		},
	}

	service := newConversationService(conversations, &MockRateLimiter{}, &MockSecurityLogRepository{})

	_, err := service.Create(context.Background(), "10.0.0.1", "ua")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestJoin_Succeeds(t *testing.T) {
	conversations := &MockConversationRepository{
		GetByCodeFunc: func(ctx context.Context, code string) (*models.Conversation, error) {
			return &models.Conversation{ID: 5, Code: code, Status: models.StatusActive}, nil
		},
	}
	limiter := &MockRateLimiter{}

	service := newConversationService(conversations, limiter, &MockSecurityLogRepository{})

	conversation, err := service.Join(context.Background(), "ABCDEFGH", "10.0.0.1", "ua")
	require.NoError(t, err)
	assert.Equal(t, int64(5), conversation.ID)
	assert.Equal(t, []string{models.ActionJoinAttempt}, limiter.Calls)
}

func TestJoin_UnknownCodeAuditedAsSuspicious(t *testing.T) {
	auditRepo := &MockSecurityLogRepository{}
	service := newConversationService(&MockConversationRepository{}, &MockRateLimiter{}, auditRepo)

	_, err := service.Join(context.Background(), "WRONGCODE", "10.0.0.1", "ua")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, auditRepo.EventTypes(), models.EventSuspiciousActivity)
}

func TestJoin_ExpiredReadsAsUnknown(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	conversations := &MockConversationRepository{
		GetByCodeFunc: func(ctx context.Context, code string) (*models.Conversation, error) {
			return &models.Conversation{ID: 5, Code: code, Status: models.StatusActive, ExpiresAt: &past}, nil
		},
	}

	service := newConversationService(conversations, &MockRateLimiter{}, &MockSecurityLogRepository{})

	_, err := service.Join(context.Background(), "ABCDEFGH", "10.0.0.1", "ua")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestJoin_RateLimited(t *testing.T) {
	lookups := 0
	conversations := &MockConversationRepository{
		GetByCodeFunc: func(ctx context.Context, code string) (*models.Conversation, error) {
			lookups++
			return nil, models.ErrNotFound
		},
	}
	limiter := &MockRateLimiter{CheckErr: &models.RateLimitedError{RetryAfter: time.Minute}}

	service := newConversationService(conversations, limiter, &MockSecurityLogRepository{})

	_, err := service.Join(context.Background(), "ABCDEFGH", "10.0.0.1", "ua")
	assert.ErrorIs(t, err, models.ErrRateLimitExceeded)
	assert.Zero(t, lookups)
}
