package repositories

import (
	"context"
	"time"

	"github.com/anonchat/anonchat/internal/database"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository handles database operations for admin accounts
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account

	err := scanner.Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.FailedLoginAttempts,
		&account.LockedUntil,
		&account.LastLogin,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &account, nil
}

// GetByUsername retrieves an account by username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `
		SELECT id, username, password_hash, failed_login_attempts, locked_until, last_login, created_at, updated_at
		FROM accounts WHERE username = $1
	`

	return scanAccountRow(r.pool.QueryRow(ctx, query, username))
}

// Create inserts a new account and returns it.
func (r *AccountRepository) Create(ctx context.Context, username, passwordHash string) (*models.Account, error) {
	query := `
		INSERT INTO accounts (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, failed_login_attempts, locked_until, last_login, created_at, updated_at
	`

	return scanAccountRow(r.pool.QueryRow(ctx, query, username, passwordHash))
}

// RecordFailure bumps the failure counter and sets the lockout deadline once
// the incremented counter reaches maxAttempts. Counting and locking happen in
// one UPDATE against the committed row, so concurrent failures serialize on
// the row lock and whichever one crosses the threshold locks the account; a
// decision made from an earlier read could never see the other's increment.
// Returns the new counter and the current lock deadline, which may be a stale
// one left over from an already-elapsed lockout.
func (r *AccountRepository) RecordFailure(ctx context.Context, id int64, maxAttempts int, lockDuration time.Duration) (int, *time.Time, error) {
	query := `
		UPDATE accounts
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN now() + make_interval(secs => $3)
		        ELSE locked_until
		    END,
		    updated_at = now()
		WHERE id = $1
		RETURNING failed_login_attempts, locked_until
	`

	var attempts int
	var lockedUntil *time.Time
	err := r.pool.QueryRow(ctx, query, id, maxAttempts, lockDuration.Seconds()).Scan(&attempts, &lockedUntil)
	if err != nil {
		return 0, nil, database.MapPostgresError(err)
	}

	return attempts, lockedUntil, nil
}

// RecordSuccess resets the failure counter, clears any lockout and stamps
// last_login.
func (r *AccountRepository) RecordSuccess(ctx context.Context, id int64) error {
	query := `
		UPDATE accounts
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    last_login = now(),
		    updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}

// UpdatePasswordHash replaces the stored hash, used for transparent rehash on
// login when the bcrypt cost changes.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, passwordHash)
	return database.MapPostgresError(err)
}

// CountAccounts returns the total number of admin accounts.
func (r *AccountRepository) CountAccounts(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}
