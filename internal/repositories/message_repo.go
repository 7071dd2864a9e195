package repositories

import (
	"context"
	"fmt"

	"github.com/anonchat/anonchat/internal/database"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{pool: db.Pool}
}

const messageColumns = `id, conversation_id, sender, content, file_path, created_at, is_read, read_at, deleted_at`

func scanMessageRow(scanner rowScanner) (*models.Message, error) {
	var m models.Message

	err := scanner.Scan(
		&m.ID,
		&m.ConversationID,
		&m.Sender,
		&m.Content,
		&m.FilePath,
		&m.CreatedAt,
		&m.IsRead,
		&m.ReadAt,
		&m.DeletedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &m, nil
}

func scanMessageRows(rows pgx.Rows) ([]*models.Message, error) {
	defer rows.Close()

	messages := make([]*models.Message, 0)

	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return messages, nil
}

// ListAfter returns live messages of a conversation with id greater than
// afterID, ascending by id. Soft-deleted rows are filtered here so clients
// never see them; the resulting id sequence may have gaps, which incremental
// fetch tolerates because the cursor is the highest id seen, not a count.
func (r *MessageRepository) ListAfter(ctx context.Context, conversationID, afterID int64) ([]*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1 AND id > $2 AND deleted_at IS NULL
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, conversationID, afterID)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return scanMessageRows(rows)
}

// Insert stores a new message and returns the persisted row. The id is
// assigned by the database sequence, which is what makes it a valid sync
// cursor.
func (r *MessageRepository) Insert(ctx context.Context, conversationID int64, sender, content string, filePath *string) (*models.Message, error) {
	query := `
		INSERT INTO messages (conversation_id, sender, content, file_path)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns

	return scanMessageRow(r.pool.QueryRow(ctx, query, conversationID, sender, content, filePath))
}

// MarkRead flips the given unread live messages written by otherSender to read
// and returns how many actually changed. Restricting to the counterpart's rows
// within the conversation is what keeps a client from acknowledging its own
// messages or anyone else's; ids outside that set simply don't match.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID int64, otherSender string, ids []int64) (int64, error) {
	query := `
		UPDATE messages
		SET is_read = TRUE, read_at = now()
		WHERE conversation_id = $1 AND sender = $2 AND id = ANY($3)
		  AND is_read = FALSE AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, conversationID, otherSender, ids)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return tag.RowsAffected(), nil
}

// CountUnread counts live unread messages written by sender in a conversation.
func (r *MessageRepository) CountUnread(ctx context.Context, conversationID int64, sender string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE conversation_id = $1 AND sender = $2 AND is_read = FALSE AND deleted_at IS NULL
	`

	var count int
	err := r.pool.QueryRow(ctx, query, conversationID, sender).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return count, nil
}

// ListDeleted returns the most recently soft-deleted messages, newest first,
// capped at limit. Admin-only moderation view.
func (r *MessageRepository) ListDeleted(ctx context.Context, limit int) ([]*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return scanMessageRows(rows)
}
