package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/anonchat/anonchat/internal/auth"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/segmentio/ksuid"
)

// PanelRepository defines the interface for generic panel table operations
type PanelRepository interface {
	List(ctx context.Context, table *models.Table, search string, limit, offset int) ([]models.PanelRow, int, error)
	Get(ctx context.Context, table *models.Table, id int64) (models.PanelRow, error)
	Update(ctx context.Context, table *models.Table, id int64, patch map[string]any) error
	DeleteMany(ctx context.Context, table *models.Table, ids []int64) ([]models.PanelRow, error)
	Restore(ctx context.Context, table *models.Table, deleted []models.PanelRow) error
	ExportAll(ctx context.Context, table *models.Table) ([]models.PanelRow, error)
}

const (
	undoWindow     = 60 * time.Second
	panelPageLimit = 100
	undoSessionKey = "panel_undo:"
)

// undoBuffer holds deleted rows awaiting a possible restore. It lives in the
// deleting admin's session, so only they can undo, and only briefly.
type undoBuffer struct {
	tableName string
	rows      []models.PanelRow
	expiresAt time.Time
}

// PanelListResult is one page of a panel table.
type PanelListResult struct {
	Rows   []models.PanelRow `json:"rows"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// PanelDeleteResult reports a bulk delete and the token that can undo it.
type PanelDeleteResult struct {
	Deleted   int    `json:"deleted"`
	UndoToken string `json:"undo_token"`
}

// PanelService is the generic admin CRUD surface over the schema registry.
// Every table and column it touches is declared in models.PanelRegistry;
// nothing is discovered at runtime.
type PanelService struct {
	repo   PanelRepository
	logger *slog.Logger
}

// NewPanelService creates a new PanelService
func NewPanelService(repo PanelRepository, logger *slog.Logger) *PanelService {
	return &PanelService{repo: repo, logger: logger}
}

func resolveTable(name string) (*models.Table, error) {
	table, ok := models.PanelTable(name)
	if !ok {
		return nil, models.NewValidationError("table", "unknown table")
	}
	return table, nil
}

// List pages through a registered table with optional substring search.
func (s *PanelService) List(ctx context.Context, tableName, search string, limit, offset int) (*PanelListResult, error) {
	table, err := resolveTable(tableName)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > panelPageLimit {
		limit = panelPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, total, err := s.repo.List(ctx, table, search, limit, offset)
	if err != nil {
		return nil, err
	}

	return &PanelListResult{Rows: rows, Total: total, Limit: limit, Offset: offset}, nil
}

// Get fetches one record.
func (s *PanelService) Get(ctx context.Context, tableName string, id int64) (models.PanelRow, error) {
	table, err := resolveTable(tableName)
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, table, id)
}

// Update patches one record. Unregistered and read-only columns are refused
// outright rather than silently dropped, so a typo in a column name cannot
// masquerade as a successful edit.
func (s *PanelService) Update(ctx context.Context, tableName string, id int64, patch map[string]any) error {
	table, err := resolveTable(tableName)
	if err != nil {
		return err
	}

	if len(patch) == 0 {
		return models.NewValidationError("patch", "no columns to update")
	}

	for col := range patch {
		desc, ok := table.Column(col)
		if !ok {
			return models.NewValidationError(col, "unknown column")
		}
		if desc.ReadOnly {
			return models.NewValidationError(col, "column is read-only")
		}
	}

	return s.repo.Update(ctx, table, id, patch)
}

// DeleteMany removes records and parks them in the session as an undo buffer
// behind a fresh token. The buffer survives for one minute.
func (s *PanelService) DeleteMany(ctx context.Context, session *auth.Session, tableName string, ids []int64) (*PanelDeleteResult, error) {
	table, err := resolveTable(tableName)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, models.NewValidationError("ids", "no ids to delete")
	}

	deleted, err := s.repo.DeleteMany(ctx, table, ids)
	if err != nil {
		return nil, err
	}

	token := ksuid.New().String()
	session.Put(undoSessionKey+token, undoBuffer{
		tableName: tableName,
		rows:      deleted,
		expiresAt: time.Now().Add(undoWindow),
	})

	return &PanelDeleteResult{Deleted: len(deleted), UndoToken: token}, nil
}

// Undo restores the rows behind a delete token. The token is single-use and
// expires with its window; an expired or foreign token reads as not found.
func (s *PanelService) Undo(ctx context.Context, session *auth.Session, token string) (int, error) {
	value, ok := session.Take(undoSessionKey + token)
	if !ok {
		return 0, models.ErrNotFound
	}

	buffer, ok := value.(undoBuffer)
	if !ok || time.Now().After(buffer.expiresAt) {
		return 0, models.ErrNotFound
	}

	table, err := resolveTable(buffer.tableName)
	if err != nil {
		return 0, err
	}

	if err := s.repo.Restore(ctx, table, buffer.rows); err != nil {
		return 0, err
	}

	return len(buffer.rows), nil
}

// Export writes the full table as CSV: a header of registered column names
// followed by one line per record.
func (s *PanelService) Export(ctx context.Context, w io.Writer, tableName string) error {
	table, err := resolveTable(tableName)
	if err != nil {
		return err
	}

	rows, err := s.repo.ExportAll(ctx, table)
	if err != nil {
		return err
	}

	cols := table.ColumnNames()
	writer := csv.NewWriter(w)

	if err := writer.Write(cols); err != nil {
		return err
	}

	record := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			record[i] = formatCSVValue(row[col])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCSVValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
