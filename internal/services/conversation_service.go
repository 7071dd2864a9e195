package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonchat/anonchat/internal/metrics"
	"github.com/anonchat/anonchat/internal/models"
)

// ConversationRepository defines the interface for conversation database operations
type ConversationRepository interface {
	Create(ctx context.Context, code, creatorIP string, expiresAt *time.Time) (*models.Conversation, error)
	GetByID(ctx context.Context, id int64) (*models.Conversation, error)
	GetByCode(ctx context.Context, code string) (*models.Conversation, error)
	SetStatus(ctx context.Context, id int64, status string) error
	SaveReport(ctx context.Context, id int64, report string) error
	TouchActivity(ctx context.Context, id int64) error
}

// Join codes avoid characters that read ambiguously when dictated over the
// phone (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
const codeLength = 8

// ConversationService creates conversations and admits visitors by join code.
type ConversationService struct {
	conversations ConversationRepository
	limiter       RateLimiter
	audit         *AuditService
	logger        *slog.Logger
}

// NewConversationService creates a new ConversationService
func NewConversationService(conversations ConversationRepository, limiter RateLimiter, audit *AuditService, logger *slog.Logger) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		limiter:       limiter,
		audit:         audit,
		logger:        logger,
	}
}

func generateJoinCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate join code: %w", err)
	}

	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	return string(buf), nil
}

// Create starts a new conversation with a fresh join code. Collisions on the
// unique code column are retried with a new code.
func (s *ConversationService) Create(ctx context.Context, ip, userAgent string) (*models.Conversation, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateJoinCode()
		if err != nil {
			return nil, err
		}

		conversation, err := s.conversations.Create(ctx, code, ip, nil)
		if errors.Is(err, models.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		metrics.ConversationsCreated.Inc()
		s.audit.ConversationCreated(ctx, ip, userAgent, fmt.Sprintf("conversation_id=%d", conversation.ID))

		return conversation, nil
	}

	return nil, fmt.Errorf("could not allocate a unique join code")
}

// Join resolves a join code for an anonymous visitor. Unknown and expired
// codes are indistinguishable to the caller; failed lookups are rate limited
// like login attempts so codes cannot be enumerated.
func (s *ConversationService) Join(ctx context.Context, code, ip, userAgent string) (*models.Conversation, error) {
	if err := s.limiter.Check(ctx, ip, models.ActionJoinAttempt); err != nil {
		return nil, err
	}

	conversation, err := s.conversations.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.audit.Suspicious(ctx, ip, userAgent, "join_unknown_code")
		}
		return nil, models.ErrNotFound
	}

	if conversation.Expired(time.Now()) || conversation.Status == models.StatusArchived {
		return nil, models.ErrNotFound
	}

	return conversation, nil
}

// Get fetches a conversation by id.
func (s *ConversationService) Get(ctx context.Context, id int64) (*models.Conversation, error) {
	return s.conversations.GetByID(ctx, id)
}
