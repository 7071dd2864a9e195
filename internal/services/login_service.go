package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anonchat/anonchat/internal/auth"
	"github.com/anonchat/anonchat/internal/config"
	"github.com/anonchat/anonchat/internal/metrics"
	"github.com/anonchat/anonchat/internal/models"
	pkgauth "github.com/anonchat/anonchat/pkg/auth"
)

// AccountRepository defines the interface for admin account database operations
type AccountRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	Create(ctx context.Context, username, passwordHash string) (*models.Account, error)
	RecordFailure(ctx context.Context, id int64, maxAttempts int, lockDuration time.Duration) (int, *time.Time, error)
	RecordSuccess(ctx context.Context, id int64) error
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	CountAccounts(ctx context.Context) (int, error)
}

// RateLimiter counts an attempt and rejects it once the window budget is spent
type RateLimiter interface {
	Check(ctx context.Context, ip, action string) error
}

// LoginService authenticates admin accounts. The checks are ordered so that
// each is cheaper and reveals less than the next: IP rate limit, then account
// lockout, then the bcrypt comparison.
type LoginService struct {
	accounts AccountRepository
	limiter  RateLimiter
	audit    *AuditService
	floor    *auth.LatencyFloor
	config   config.SecurityConfig
	logger   *slog.Logger
}

// NewLoginService creates a new LoginService
func NewLoginService(accounts AccountRepository, limiter RateLimiter, audit *AuditService, config config.SecurityConfig, logger *slog.Logger) *LoginService {
	return &LoginService{
		accounts: accounts,
		limiter:  limiter,
		audit:    audit,
		floor:    auth.NewLatencyFloor(config.FailedLoginDelay),
		config:   config,
		logger:   logger,
	}
}

// Login verifies admin credentials. Failure modes are deliberately asymmetric:
// an unknown username gets a bare generic error behind the latency floor,
// while a wrong password against a real account reports attempt counts, since
// at that point the caller has proven nothing but the username is no secret to
// its owner.
func (s *LoginService) Login(ctx context.Context, username, password, ip, userAgent string) (*models.Account, error) {
	start := time.Now()

	if err := s.limiter.Check(ctx, ip, models.ActionLoginAttempt); err != nil {
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		s.audit.LoginFailed(ctx, ip, userAgent, "rate_limited")
		return nil, err
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues("failed").Inc()
			s.audit.LoginFailed(ctx, ip, userAgent, "unknown_username")
			s.floor.WaitFrom(ctx, start)
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}

	now := time.Now()

	// Lockout is checked before the password so a correct guess during the
	// lockout window confirms nothing.
	if account.Locked(now) {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		s.audit.LoginFailed(ctx, ip, userAgent, "account_locked username="+username)
		s.floor.WaitFrom(ctx, start)
		return nil, &models.AccountLockedError{Until: *account.LockedUntil}
	}

	if err := pkgauth.ComparePassword(account.PasswordHash, password); err != nil {
		// The repository both counts the failure and decides the lock inside
		// one UPDATE; deciding here from the account loaded above would race
		// concurrent failures past the threshold without ever locking.
		attempts, lockedUntil, recErr := s.accounts.RecordFailure(ctx, account.ID, s.config.LockoutMaxAttempts, s.config.LockoutDuration)
		if recErr != nil {
			s.logger.Error("failed to record login failure", slog.Any("error", recErr))
			attempts = account.FailedLoginAttempts + 1
			lockedUntil = nil
		}

		metrics.LoginAttempts.WithLabelValues("failed").Inc()
		s.audit.LoginFailed(ctx, ip, userAgent, "wrong_password username="+username)
		s.floor.WaitFrom(ctx, start)

		// The returned deadline can be a leftover from an elapsed lockout;
		// only a live one reads as locked.
		if lockedUntil != nil && lockedUntil.After(now) {
			return nil, &models.AccountLockedError{Until: *lockedUntil}
		}
		return nil, &models.InvalidCredentialsError{Attempts: attempts, MaxAttempts: s.config.LockoutMaxAttempts}
	}

	// Transparent rehash when the configured cost has moved on.
	if pkgauth.NeedsRehash(account.PasswordHash, s.config.BcryptCost) {
		if newHash, hashErr := pkgauth.HashPassword(password, s.config.BcryptCost); hashErr == nil {
			if upErr := s.accounts.UpdatePasswordHash(ctx, account.ID, newHash); upErr != nil {
				s.logger.Warn("password rehash failed", slog.Any("error", upErr))
			}
		}
	}

	if err := s.accounts.RecordSuccess(ctx, account.ID); err != nil {
		s.logger.Error("failed to record login success", slog.Any("error", err))
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.audit.LoginSuccess(ctx, ip, userAgent, username)

	return account, nil
}

// EnsureAdminAccount creates the bootstrap admin account when it does not
// exist yet. A no-op when the username is already taken or the credentials are
// not configured.
func (s *LoginService) EnsureAdminAccount(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		count, err := s.accounts.CountAccounts(ctx)
		if err == nil && count == 0 {
			s.logger.Warn("no admin accounts exist and ADMIN_USER/ADMIN_PASSWORD are unset; admin login is impossible")
		}
		return nil
	}

	_, err := s.accounts.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	hash, err := pkgauth.HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return err
	}

	if _, err := s.accounts.Create(ctx, username, hash); err != nil {
		// Lost a race with another instance; the account exists either way.
		if errors.Is(err, models.ErrConflict) {
			return nil
		}
		return err
	}

	s.logger.Info("bootstrap admin account created", slog.String("username", username))
	return nil
}
