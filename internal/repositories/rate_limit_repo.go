package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonchat/anonchat/internal/database"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/jackc/pgx/v5"
)

// RateLimitRepository handles the durable fixed-window counters
type RateLimitRepository struct {
	db *database.DB
}

// NewRateLimitRepository creates a new RateLimitRepository
func NewRateLimitRepository(db *database.DB) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// Take counts one attempt against the (ip, action) bucket and reports whether
// it fits inside the window. The row is locked FOR UPDATE for the duration of
// the transaction, so two concurrent attempts from the same IP serialize and
// each sees the other's increment; the counter can never settle below the true
// attempt count. Rejected attempts still increment: hammering a limited
// endpoint does not help.
func (r *RateLimitRepository) Take(ctx context.Context, ip, action string, max int, window time.Duration) (*models.RateLimitDecision, error) {
	var result models.RateLimitDecision

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var bucket models.RateLimitBucket

		err := tx.QueryRow(ctx, `
			SELECT id, ip_address, action_type, attempt_count, window_start
			FROM rate_limits
			WHERE ip_address = $1 AND action_type = $2
			FOR UPDATE
		`, ip, action).Scan(&bucket.ID, &bucket.IPAddress, &bucket.ActionType, &bucket.AttemptCount, &bucket.WindowStart)

		now := time.Now()

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// First attempt from this (ip, action) — unless a concurrent
			// request slipped its insert between our empty read and this one.
			// The conflict branch folds this attempt onto that row, and
			// deciding on the returned count keeps both attempts honest.
			var attempts int
			var windowStart time.Time
			if err := tx.QueryRow(ctx, `
				INSERT INTO rate_limits (ip_address, action_type, attempt_count, window_start)
				VALUES ($1, $2, 1, $3)
				ON CONFLICT (ip_address, action_type)
				DO UPDATE SET attempt_count = rate_limits.attempt_count + 1
				RETURNING attempt_count, window_start
			`, ip, action, now).Scan(&attempts, &windowStart); err != nil {
				return err
			}
			result = models.RateLimitDecision{Allowed: attempts <= max, Attempts: attempts, WindowStart: windowStart}
			return nil

		case err != nil:
			return err
		}

		if now.Sub(bucket.WindowStart) >= window {
			// Window elapsed: restart with this attempt as the first
			if _, err := tx.Exec(ctx, `
				UPDATE rate_limits SET attempt_count = 1, window_start = $2 WHERE id = $1
			`, bucket.ID, now); err != nil {
				return err
			}
			result = models.RateLimitDecision{Allowed: max >= 1, Attempts: 1, WindowStart: now}
			return nil
		}

		attempts := bucket.AttemptCount + 1
		if _, err := tx.Exec(ctx, `
			UPDATE rate_limits SET attempt_count = $2 WHERE id = $1
		`, bucket.ID, attempts); err != nil {
			return err
		}

		result = models.RateLimitDecision{Allowed: attempts <= max, Attempts: attempts, WindowStart: bucket.WindowStart}
		return nil
	})
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &result, nil
}

// DeleteElapsed removes buckets whose window ended before cutoff. Purely
// hygiene: an elapsed bucket already reads as a fresh window.
func (r *RateLimitRepository) DeleteElapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return tag.RowsAffected(), nil
}
