package services

import (
	"context"
	"log/slog"

	"github.com/anonchat/anonchat/internal/metrics"
	"github.com/anonchat/anonchat/internal/models"
	pkglogger "github.com/anonchat/anonchat/pkg/logger"
)

// SecurityLogRepository defines the interface for security log database operations
type SecurityLogRepository interface {
	Insert(ctx context.Context, event *models.SecurityEvent) error
}

// AuditService records security events to two independent sinks: the
// security_log table and a rotating JSONL file. A database failure degrades to
// file-only rather than dropping the event.
type AuditService struct {
	repo     SecurityLogRepository
	fileSink *pkglogger.AuditLogger
	logger   *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo SecurityLogRepository, fileSink *pkglogger.AuditLogger, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:     repo,
		fileSink: fileSink,
		logger:   logger,
	}
}

// Record persists one event to both sinks. Unknown event types are normalized
// to suspicious_activity so a bug elsewhere cannot mint unclassified rows.
func (s *AuditService) Record(ctx context.Context, eventType, ip, userAgent, details string) {
	eventType = models.NormalizeEventType(eventType)
	userAgent = pkglogger.TruncateUserAgent(userAgent)

	if s.fileSink != nil {
		s.fileSink.Log(pkglogger.AuditEvent{
			EventType: eventType,
			IPAddress: ip,
			UserAgent: userAgent,
			Details:   details,
		})
	}

	event := &models.SecurityEvent{
		EventType: eventType,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if details != "" {
		event.Details = &details
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		s.logger.Error("failed to persist security event, file sink only",
			slog.String("event_type", eventType),
			slog.Any("error", err))
	}
}

// LoginSuccess records a successful admin login.
func (s *AuditService) LoginSuccess(ctx context.Context, ip, userAgent, username string) {
	s.Record(ctx, models.EventLoginSuccess, ip, userAgent, "username="+username)
}

// LoginFailed records a failed admin login attempt.
func (s *AuditService) LoginFailed(ctx context.Context, ip, userAgent, details string) {
	s.Record(ctx, models.EventLoginFailed, ip, userAgent, details)
}

// ConversationCreated records a new conversation.
func (s *AuditService) ConversationCreated(ctx context.Context, ip, userAgent, details string) {
	s.Record(ctx, models.EventConversationCreated, ip, userAgent, details)
}

// Suspicious records anomalous client behavior. Satisfies auth.SecurityAuditor.
func (s *AuditService) Suspicious(ctx context.Context, ip, userAgent, details string) {
	metrics.SuspiciousEvents.Inc()
	s.Record(ctx, models.EventSuspiciousActivity, ip, userAgent, details)
}
