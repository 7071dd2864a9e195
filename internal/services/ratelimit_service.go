package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/anonchat/anonchat/internal/config"
	"github.com/anonchat/anonchat/internal/metrics"
	"github.com/anonchat/anonchat/internal/models"
)

// RateLimitRepository defines the interface for rate limit database operations
type RateLimitRepository interface {
	Take(ctx context.Context, ip, action string, max int, window time.Duration) (*models.RateLimitDecision, error)
	DeleteElapsed(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimitService applies the durable per-IP fixed-window limits. Limits are
// per (IP, action): exhausting the login budget leaves the join budget intact.
type RateLimitService struct {
	repo   RateLimitRepository
	config config.SecurityConfig
	logger *slog.Logger
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(repo RateLimitRepository, config config.SecurityConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

func (s *RateLimitService) limitsFor(action string) (int, time.Duration) {
	switch action {
	case models.ActionJoinAttempt:
		return s.config.JoinMaxAttempts, s.config.JoinWindow
	default:
		return s.config.LoginMaxAttempts, s.config.LoginWindow
	}
}

// Check counts one attempt and returns a RateLimitedError once the window
// budget is spent. The attempt is counted even when rejected, so hammering a
// limited endpoint never brings the retry closer.
func (s *RateLimitService) Check(ctx context.Context, ip, action string) error {
	max, window := s.limitsFor(action)

	decision, err := s.repo.Take(ctx, ip, action, max, window)
	if err != nil {
		// Fail open for availability: a database outage should not lock every
		// legitimate user out of the chat. The attempt goes uncounted.
		s.logger.Error("rate limit check failed, allowing request",
			slog.String("action", action),
			slog.Any("error", err))
		return nil
	}

	if decision.Allowed {
		return nil
	}

	retryAfter := window - time.Since(decision.WindowStart)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	metrics.RateLimitHits.WithLabelValues(action).Inc()
	s.logger.Warn("rate limit exceeded",
		slog.String("ip_address", ip),
		slog.String("action", action),
		slog.Int("attempts", decision.Attempts),
		slog.Duration("retry_after", retryAfter))

	return &models.RateLimitedError{RetryAfter: retryAfter}
}

// PurgeElapsed deletes buckets whose window can no longer influence a
// decision. Returns the number removed.
func (s *RateLimitService) PurgeElapsed(ctx context.Context) (int64, error) {
	window := s.config.LoginWindow
	if s.config.JoinWindow > window {
		window = s.config.JoinWindow
	}

	return s.repo.DeleteElapsed(ctx, time.Now().Add(-window))
}
