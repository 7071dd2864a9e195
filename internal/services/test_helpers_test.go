package services_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/anonchat/anonchat/internal/config"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/anonchat/anonchat/internal/services"
	pkglogger "github.com/anonchat/anonchat/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		LoginMaxAttempts:   15,
		LoginWindow:        5 * time.Minute,
		JoinMaxAttempts:    10,
		JoinWindow:         5 * time.Minute,
		LockoutMaxAttempts: 5,
		LockoutDuration:    10 * time.Minute,
		FailedLoginDelay:   0, // keep failure-path tests fast
		BcryptCost:         4, // bcrypt.MinCost
	}
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		MaxMessageChars: 5000,
		MaxReportChars:  10000,
		TypingWindow:    3 * time.Second,
	}
}

// MockSecurityLogRepository implements SecurityLogRepository for testing
type MockSecurityLogRepository struct {
	Events    []*models.SecurityEvent
	InsertErr error
}

func (m *MockSecurityLogRepository) Insert(ctx context.Context, event *models.SecurityEvent) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockSecurityLogRepository) EventTypes() []string {
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.EventType)
	}
	return types
}

func newTestAudit(repo *MockSecurityLogRepository) *services.AuditService {
	return services.NewAuditService(repo, pkglogger.NewAuditLoggerWithWriter(io.Discard), testLogger())
}

// MockRateLimiter implements RateLimiter for testing
type MockRateLimiter struct {
	CheckErr error
	Calls    []string
}

func (m *MockRateLimiter) Check(ctx context.Context, ip, action string) error {
	m.Calls = append(m.Calls, action)
	return m.CheckErr
}

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	GetByUsernameFunc      func(ctx context.Context, username string) (*models.Account, error)
	CreateFunc             func(ctx context.Context, username, passwordHash string) (*models.Account, error)
	RecordFailureFunc      func(ctx context.Context, id int64, maxAttempts int, lockDuration time.Duration) (int, *time.Time, error)
	RecordSuccessFunc      func(ctx context.Context, id int64) error
	UpdatePasswordHashFunc func(ctx context.Context, id int64, passwordHash string) error
	CountAccountsFunc      func(ctx context.Context) (int, error)
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) Create(ctx context.Context, username, passwordHash string) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, username, passwordHash)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountRepository) RecordFailure(ctx context.Context, id int64, maxAttempts int, lockDuration time.Duration) (int, *time.Time, error) {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, id, maxAttempts, lockDuration)
	}
	return 0, nil, nil
}

func (m *MockAccountRepository) RecordSuccess(ctx context.Context, id int64) error {
	if m.RecordSuccessFunc != nil {
		return m.RecordSuccessFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	if m.UpdatePasswordHashFunc != nil {
		return m.UpdatePasswordHashFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockAccountRepository) CountAccounts(ctx context.Context) (int, error) {
	if m.CountAccountsFunc != nil {
		return m.CountAccountsFunc(ctx)
	}
	return 0, nil
}

// MockConversationRepository implements ConversationRepository for testing
type MockConversationRepository struct {
	CreateFunc        func(ctx context.Context, code, creatorIP string, expiresAt *time.Time) (*models.Conversation, error)
	GetByIDFunc       func(ctx context.Context, id int64) (*models.Conversation, error)
	GetByCodeFunc     func(ctx context.Context, code string) (*models.Conversation, error)
	SetStatusFunc     func(ctx context.Context, id int64, status string) error
	SaveReportFunc    func(ctx context.Context, id int64, report string) error
	TouchActivityFunc func(ctx context.Context, id int64) error

	TouchedIDs []int64
}

func (m *MockConversationRepository) Create(ctx context.Context, code, creatorIP string, expiresAt *time.Time) (*models.Conversation, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, code, creatorIP, expiresAt)
	}
	return &models.Conversation{ID: 1, Code: code, Status: models.StatusPending, CreatorIP: creatorIP}, nil
}

func (m *MockConversationRepository) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &models.Conversation{ID: id, Status: models.StatusActive}, nil
}

func (m *MockConversationRepository) GetByCode(ctx context.Context, code string) (*models.Conversation, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	return nil, models.ErrNotFound
}

func (m *MockConversationRepository) SetStatus(ctx context.Context, id int64, status string) error {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockConversationRepository) SaveReport(ctx context.Context, id int64, report string) error {
	if m.SaveReportFunc != nil {
		return m.SaveReportFunc(ctx, id, report)
	}
	return nil
}

func (m *MockConversationRepository) TouchActivity(ctx context.Context, id int64) error {
	m.TouchedIDs = append(m.TouchedIDs, id)
	if m.TouchActivityFunc != nil {
		return m.TouchActivityFunc(ctx, id)
	}
	return nil
}

// MockMessageRepository implements MessageRepository for testing
type MockMessageRepository struct {
	ListAfterFunc   func(ctx context.Context, conversationID, afterID int64) ([]*models.Message, error)
	InsertFunc      func(ctx context.Context, conversationID int64, sender, content string, filePath *string) (*models.Message, error)
	MarkReadFunc    func(ctx context.Context, conversationID int64, otherSender string, ids []int64) (int64, error)
	CountUnreadFunc func(ctx context.Context, conversationID int64, sender string) (int, error)
	ListDeletedFunc func(ctx context.Context, limit int) ([]*models.Message, error)

	MarkReadSenders []string
}

func (m *MockMessageRepository) ListAfter(ctx context.Context, conversationID, afterID int64) ([]*models.Message, error) {
	if m.ListAfterFunc != nil {
		return m.ListAfterFunc(ctx, conversationID, afterID)
	}
	return []*models.Message{}, nil
}

func (m *MockMessageRepository) Insert(ctx context.Context, conversationID int64, sender, content string, filePath *string) (*models.Message, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, conversationID, sender, content, filePath)
	}
	return &models.Message{ID: 1, ConversationID: conversationID, Sender: sender, Content: content}, nil
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, conversationID int64, otherSender string, ids []int64) (int64, error) {
	m.MarkReadSenders = append(m.MarkReadSenders, otherSender)
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, conversationID, otherSender, ids)
	}
	return 0, nil
}

func (m *MockMessageRepository) CountUnread(ctx context.Context, conversationID int64, sender string) (int, error) {
	if m.CountUnreadFunc != nil {
		return m.CountUnreadFunc(ctx, conversationID, sender)
	}
	return 0, nil
}

func (m *MockMessageRepository) ListDeleted(ctx context.Context, limit int) ([]*models.Message, error) {
	if m.ListDeletedFunc != nil {
		return m.ListDeletedFunc(ctx, limit)
	}
	return []*models.Message{}, nil
}
