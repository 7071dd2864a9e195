package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonchat/anonchat/internal/database"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/jackc/pgx/v5"
)

// PanelRepository executes the admin panel's table operations. All identifiers
// come from the static schema registry, never from request input; only values
// are parameterized into the generated SQL.
type PanelRepository struct {
	db *database.DB
}

// NewPanelRepository creates a new PanelRepository
func NewPanelRepository(db *database.DB) *PanelRepository {
	return &PanelRepository{db: db}
}

func collectRows(rows pgx.Rows) ([]models.PanelRow, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]models.PanelRow, 0)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		row := make(models.PanelRow, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

// List pages through a registered table, optionally filtering by a substring
// search across its searchable columns. Returns the page plus the total count
// under the same filter.
func (r *PanelRepository) List(ctx context.Context, table *models.Table, search string, limit, offset int) ([]models.PanelRow, int, error) {
	cols := strings.Join(table.ColumnNames(), ", ")

	where := ""
	args := []any{}
	if search != "" {
		clauses := make([]string, 0)
		for _, c := range table.Columns {
			if c.Searchable {
				clauses = append(clauses, fmt.Sprintf("%s::text ILIKE $1", c.Name))
			}
		}
		if len(clauses) > 0 {
			where = " WHERE " + strings.Join(clauses, " OR ")
			args = append(args, "%"+search+"%")
		}
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table.Name, where)
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.MapPostgresError(err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s DESC LIMIT $%d OFFSET $%d",
		cols, table.Name, where, table.IDColumn, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, database.MapPostgresError(err)
	}

	page, err := collectRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return page, total, nil
}

// Get fetches one record by id.
func (r *PanelRepository) Get(ctx context.Context, table *models.Table, id int64) (models.PanelRow, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		strings.Join(table.ColumnNames(), ", "), table.Name, table.IDColumn)

	rows, err := r.db.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	collected, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	if len(collected) == 0 {
		return nil, models.ErrNotFound
	}

	return collected[0], nil
}

// Update patches the writable columns of one record. The patch must already
// be filtered to registered writable columns by the service layer; unknown
// keys here are a programming error.
func (r *PanelRepository) Update(ctx context.Context, table *models.Table, id int64, patch map[string]any) error {
	if len(patch) == 0 {
		return models.ErrBadRequest
	}

	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch)+1)
	for col, val := range patch {
		if _, ok := table.Column(col); !ok {
			return fmt.Errorf("unregistered column %q", col)
		}
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		table.Name, strings.Join(sets, ", "), table.IDColumn, len(args))

	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteMany removes records by id and returns the full deleted rows, which
// the service keeps around as the undo buffer.
func (r *PanelRepository) DeleteMany(ctx context.Context, table *models.Table, ids []int64) ([]models.PanelRow, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ANY($1) RETURNING %s",
		table.Name, table.IDColumn, strings.Join(table.ColumnNames(), ", "))

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return collectRows(rows)
}

// Restore re-inserts previously deleted rows, ids included, in one
// transaction. Partial restores would be worse than none.
func (r *PanelRepository) Restore(ctx context.Context, table *models.Table, deleted []models.PanelRow) error {
	if len(deleted) == 0 {
		return nil
	}

	cols := table.ColumnNames()
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, row := range deleted {
			args := make([]any, len(cols))
			for i, col := range cols {
				args[i] = row[col]
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return database.MapPostgresError(err)
			}
		}
		return nil
	})
}

// ExportAll streams every record of a registered table for CSV export.
func (r *PanelRepository) ExportAll(ctx context.Context, table *models.Table) ([]models.PanelRow, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC",
		strings.Join(table.ColumnNames(), ", "), table.Name, table.IDColumn)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return collectRows(rows)
}
