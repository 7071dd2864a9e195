package services

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/anonchat/anonchat/internal/auth"
	"github.com/anonchat/anonchat/internal/config"
	"github.com/anonchat/anonchat/internal/metrics"
	"github.com/anonchat/anonchat/internal/models"
)

// MessageRepository defines the interface for message database operations
type MessageRepository interface {
	ListAfter(ctx context.Context, conversationID, afterID int64) ([]*models.Message, error)
	Insert(ctx context.Context, conversationID int64, sender, content string, filePath *string) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID int64, otherSender string, ids []int64) (int64, error)
	CountUnread(ctx context.Context, conversationID int64, sender string) (int, error)
	ListDeleted(ctx context.Context, limit int) ([]*models.Message, error)
}

const deletedListLimit = 200

// ConversationDetails is the conversation plus the caller's unread count.
type ConversationDetails struct {
	Conversation *models.Conversation `json:"conversation"`
	UnreadCount  int                  `json:"unread_count"`
	PeerTyping   bool                 `json:"peer_typing"`
}

// ChatService implements the message exchange between the two conversation
// roles. Every operation authorizes the claim against the target conversation
// before touching data.
type ChatService struct {
	messages      MessageRepository
	conversations ConversationRepository
	guard         *auth.Guard
	store         *auth.Store
	config        config.ChatConfig
	logger        *slog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(messages MessageRepository, conversations ConversationRepository, guard *auth.Guard, store *auth.Store, config config.ChatConfig, logger *slog.Logger) *ChatService {
	return &ChatService{
		messages:      messages,
		conversations: conversations,
		guard:         guard,
		store:         store,
		config:        config,
		logger:        logger,
	}
}

// Details returns the conversation, the caller's unread count and whether the
// counterpart signaled typing recently.
func (s *ChatService) Details(ctx context.Context, claim auth.Claim, conversationID int64, ip, userAgent string) (*ConversationDetails, error) {
	if err := s.guard.Authorize(ctx, claim, conversationID, ip, userAgent); err != nil {
		return nil, err
	}

	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	role := claim.SenderRole()
	unread, err := s.messages.CountUnread(ctx, conversationID, models.OtherSender(role))
	if err != nil {
		return nil, err
	}

	return &ConversationDetails{
		Conversation: conversation,
		UnreadCount:  unread,
		PeerTyping:   s.store.TypingActive(conversationID, models.OtherSender(role), s.config.TypingWindow),
	}, nil
}

// FetchSince returns live messages with id greater than afterID, in id order.
// Repeating a call with the same cursor returns the same (or a longer) result,
// which is what lets clients poll without coordination.
func (s *ChatService) FetchSince(ctx context.Context, claim auth.Claim, conversationID, afterID int64, ip, userAgent string) ([]*models.Message, error) {
	if err := s.guard.Authorize(ctx, claim, conversationID, ip, userAgent); err != nil {
		return nil, err
	}

	if afterID < 0 {
		afterID = 0
	}

	return s.messages.ListAfter(ctx, conversationID, afterID)
}

// Send stores a new message. Admins may write as either role (to drive the
// visitor side of a demo conversation); participants always write as anonymous
// regardless of the sender they claim. A typed-but-unsent typing signal is
// cleared by the send.
func (s *ChatService) Send(ctx context.Context, claim auth.Claim, conversationID int64, sender, content, ip, userAgent string) (*models.Message, error) {
	if err := s.guard.Authorize(ctx, claim, conversationID, ip, userAgent); err != nil {
		return nil, err
	}

	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("message", "message cannot be empty")
	}
	if utf8.RuneCountInString(content) > s.config.MaxMessageChars {
		return nil, models.NewValidationError("message", "message is too long")
	}

	role := claim.SenderRole()
	if claim.IsAdmin() && models.ValidSender(sender) {
		role = sender
	}

	message, err := s.messages.Insert(ctx, conversationID, role, content, nil)
	if err != nil {
		return nil, err
	}

	if err := s.conversations.TouchActivity(ctx, conversationID); err != nil {
		s.logger.Warn("failed to touch conversation activity", slog.Any("error", err))
	}

	s.store.SetTyping(conversationID, role, false)
	metrics.MessagesSent.WithLabelValues(role).Inc()

	return message, nil
}

// MarkRead flips the given counterpart messages to read and returns how many
// actually changed, which may be fewer than asked: already-read, soft-deleted
// and foreign ids are silently skipped. The caller's own messages are never
// touched, so a client cannot forge read receipts for what it wrote itself.
func (s *ChatService) MarkRead(ctx context.Context, claim auth.Claim, conversationID int64, ids []int64, ip, userAgent string) (int64, error) {
	if err := s.guard.Authorize(ctx, claim, conversationID, ip, userAgent); err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, nil
	}

	count, err := s.messages.MarkRead(ctx, conversationID, models.OtherSender(claim.SenderRole()), ids)
	if err != nil {
		return 0, err
	}

	metrics.MessagesRead.Add(float64(count))
	return count, nil
}

// Typing records the caller's typing signal and reports the counterpart's.
func (s *ChatService) Typing(ctx context.Context, claim auth.Claim, conversationID int64, active bool, ip, userAgent string) (bool, error) {
	if err := s.guard.Authorize(ctx, claim, conversationID, ip, userAgent); err != nil {
		return false, err
	}

	role := claim.SenderRole()
	s.store.SetTyping(conversationID, role, active)

	return s.store.TypingActive(conversationID, models.OtherSender(role), s.config.TypingWindow), nil
}

// SaveReport stores the admin's case notes for a conversation.
func (s *ChatService) SaveReport(ctx context.Context, claim auth.Claim, conversationID int64, report, ip, userAgent string) error {
	if !claim.IsAdmin() {
		return models.ErrForbidden
	}
	if err := s.guard.Authorize(ctx, claim, conversationID, ip, userAgent); err != nil {
		return err
	}

	if utf8.RuneCountInString(report) > s.config.MaxReportChars {
		return models.NewValidationError("report", "report is too long")
	}

	return s.conversations.SaveReport(ctx, conversationID, report)
}

// SetStatus moves a conversation to any allow-listed status. Transitions are
// unrestricted for admins.
func (s *ChatService) SetStatus(ctx context.Context, claim auth.Claim, conversationID int64, status string) error {
	if !claim.IsAdmin() {
		return models.ErrForbidden
	}

	if !models.ValidStatus(status) {
		return models.NewValidationError("status", "unknown status")
	}

	return s.conversations.SetStatus(ctx, conversationID, status)
}

// ListDeleted returns recently soft-deleted messages for the moderation view.
func (s *ChatService) ListDeleted(ctx context.Context, claim auth.Claim) ([]*models.Message, error) {
	if !claim.IsAdmin() {
		return nil, models.ErrForbidden
	}

	return s.messages.ListDeleted(ctx, deletedListLimit)
}
