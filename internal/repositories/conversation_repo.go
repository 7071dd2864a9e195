package repositories

import (
	"context"
	"time"

	"github.com/anonchat/anonchat/internal/database"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository handles database operations for conversations
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *database.DB) *ConversationRepository {
	return &ConversationRepository{pool: db.Pool}
}

const conversationColumns = `id, code, status, report, creator_ip, created_at, expires_at, last_activity, updated_at`

func scanConversationRow(scanner rowScanner) (*models.Conversation, error) {
	var c models.Conversation

	err := scanner.Scan(
		&c.ID,
		&c.Code,
		&c.Status,
		&c.Report,
		&c.CreatorIP,
		&c.CreatedAt,
		&c.ExpiresAt,
		&c.LastActivity,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &c, nil
}

// Create inserts a new conversation with the given short code.
func (r *ConversationRepository) Create(ctx context.Context, code, creatorIP string, expiresAt *time.Time) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (code, creator_ip, expires_at)
		VALUES ($1, $2, $3)
		RETURNING ` + conversationColumns

	return scanConversationRow(r.pool.QueryRow(ctx, query, code, creatorIP, expiresAt))
}

// GetByID retrieves a conversation by id.
func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	return scanConversationRow(r.pool.QueryRow(ctx, query, id))
}

// GetByCode retrieves a conversation by its short join code.
func (r *ConversationRepository) GetByCode(ctx context.Context, code string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE code = $1`

	return scanConversationRow(r.pool.QueryRow(ctx, query, code))
}

// SetStatus updates the lifecycle status.
func (r *ConversationRepository) SetStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE conversations SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// SaveReport overwrites the admin report text.
func (r *ConversationRepository) SaveReport(ctx context.Context, id int64, report string) error {
	query := `UPDATE conversations SET report = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, report)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// TouchActivity stamps last_activity; called on every accepted message.
func (r *ConversationRepository) TouchActivity(ctx context.Context, id int64) error {
	query := `UPDATE conversations SET last_activity = now(), updated_at = now() WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}
