package background

import (
	"context"
	"log/slog"
	"time"
)

// RateLimitPurger removes elapsed rate-limit windows
type RateLimitPurger interface {
	PurgeElapsed(ctx context.Context) (int64, error)
}

// SecurityLogPruner removes security events past the retention horizon
type SecurityLogPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupManager periodically removes elapsed rate-limit buckets and aged
// security log rows
type CleanupManager struct {
	rateLimits  RateLimitPurger
	securityLog SecurityLogPruner
	logger      *slog.Logger
	interval    time.Duration
	retention   time.Duration
	stopCh      chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	rateLimits RateLimitPurger,
	securityLog SecurityLogPruner,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *CleanupManager {
	return &CleanupManager{
		rateLimits:  rateLimits,
		securityLog: securityLog,
		logger:      logger,
		interval:    interval,
		retention:   retention,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	buckets, err := cm.rateLimits.PurgeElapsed(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to purge rate limit buckets", slog.Any("error", err))
	} else if buckets > 0 {
		cm.logger.Info("purged elapsed rate limit buckets", slog.Int64("rows_deleted", buckets))
	}

	events, err := cm.securityLog.DeleteOlderThan(cleanupCtx, time.Now().Add(-cm.retention))
	if err != nil {
		cm.logger.Error("failed to prune security log", slog.Any("error", err))
	} else if events > 0 {
		cm.logger.Info("pruned aged security log rows", slog.Int64("rows_deleted", events))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
