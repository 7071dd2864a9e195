package repositories

import (
	"context"
	"time"

	"github.com/anonchat/anonchat/internal/database"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SecurityLogRepository handles database operations for the security event log
type SecurityLogRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityLogRepository creates a new SecurityLogRepository
func NewSecurityLogRepository(db *database.DB) *SecurityLogRepository {
	return &SecurityLogRepository{pool: db.Pool}
}

// Insert appends one event row.
func (r *SecurityLogRepository) Insert(ctx context.Context, event *models.SecurityEvent) error {
	query := `
		INSERT INTO security_log (event_type, ip_address, user_agent, details)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, event.EventType, event.IPAddress, event.UserAgent, event.Details)
	return database.MapPostgresError(err)
}

// DeleteOlderThan purges events past the retention horizon, returning the
// count removed.
func (r *SecurityLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM security_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return tag.RowsAffected(), nil
}
