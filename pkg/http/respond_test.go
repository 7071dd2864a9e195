package http_test

import (
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonchat/anonchat/internal/models"
	pkghttp "github.com/anonchat/anonchat/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) pkghttp.Envelope {
	t.Helper()

	var env pkghttp.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	pkghttp.WriteSuccess(rec, nethttp.StatusCreated, map[string]any{"id": 5})

	assert.Equal(t, nethttp.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Empty(t, env.Error)
	assert.NotNil(t, env.Data)
}

func TestWriteFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	pkghttp.WriteFailure(rec, nethttp.StatusBadRequest, "Invalid request body")

	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid request body", env.Error)
	assert.Nil(t, env.Data)
}

func TestWriteModelError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", models.NewValidationError("message", "cannot be empty"), nethttp.StatusUnprocessableEntity, "message: cannot be empty"},
		{"credentials", &models.InvalidCredentialsError{Attempts: 2, MaxAttempts: 5}, nethttp.StatusUnauthorized, "invalid credentials (attempt 2 of 5)"},
		{"not found", models.ErrNotFound, nethttp.StatusNotFound, "Not found"},
		{"conflict", models.ErrConflict, nethttp.StatusConflict, "Conflict"},
		{"unauthorized", models.ErrUnauthorized, nethttp.StatusUnauthorized, "Authentication required"},
		{"forbidden", models.ErrForbidden, nethttp.StatusForbidden, "Access denied"},
		{"session expired", models.ErrSessionExpired, nethttp.StatusUnauthorized, "Session expired"},
		{"bad request", models.ErrBadRequest, nethttp.StatusBadRequest, "Invalid request"},
		{"unknown", errors.New("pq: connection reset"), nethttp.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			pkghttp.WriteModelError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decode(t, rec).Error)
		})
	}
}

func TestWriteModelError_RateLimitedSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	pkghttp.WriteModelError(rec, &models.RateLimitedError{RetryAfter: 90 * time.Second})

	assert.Equal(t, nethttp.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
}

func TestWriteModelError_LockedReadsAsTooManyRequests(t *testing.T) {
	rec := httptest.NewRecorder()
	pkghttp.WriteModelError(rec, &models.AccountLockedError{Until: time.Now().Add(10 * time.Minute)})

	assert.Equal(t, nethttp.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "account is temporarily locked", decode(t, rec).Error)

	retryAfter := rec.Header().Get("Retry-After")
	assert.NotEmpty(t, retryAfter)
}

func TestWriteModelError_WrappedSentinelStillMaps(t *testing.T) {
	rec := httptest.NewRecorder()
	pkghttp.WriteModelError(rec, errors.Join(errors.New("lookup conversation 5"), models.ErrNotFound))

	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestWriteModelError_InternalDetailNeverLeaks(t *testing.T) {
	rec := httptest.NewRecorder()
	pkghttp.WriteModelError(rec, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	env := decode(t, rec)
	assert.Equal(t, "Internal server error", env.Error)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
