package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anonchat/anonchat/internal/models"
)

// Envelope is the uniform API response shape. Exactly one of Data and Error
// is populated depending on Success.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteSuccess writes a success envelope with the given payload.
func WriteSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Log encoding errors but don't expose them to client
	_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

// WriteFailure writes a failure envelope with a human-readable message.
func WriteFailure(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(Envelope{Success: false, Error: message})
}

// WriteRateLimited writes a 429 failure with a Retry-After header.
func WriteRateLimited(w http.ResponseWriter, retryAfterSeconds int, message string) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	WriteFailure(w, http.StatusTooManyRequests, message)
}

// WriteModelError maps a service-layer error to the right status code and a
// safe message. Unrecognized errors collapse to a generic 500; internal detail
// never reaches the client.
func WriteModelError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	var rateLimitedErr *models.RateLimitedError
	var credentialsErr *models.InvalidCredentialsError
	var lockedErr *models.AccountLockedError

	switch {
	case errors.As(err, &validationErr):
		WriteFailure(w, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.As(err, &rateLimitedErr):
		WriteRateLimited(w, int(rateLimitedErr.RetryAfter.Seconds()), rateLimitedErr.Error())
	case errors.As(err, &lockedErr):
		// Locked accounts read as 429 like IP rate limits; the Retry-After is
		// the remaining lockout.
		retryAfter := int(time.Until(lockedErr.Until).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		WriteRateLimited(w, retryAfter, lockedErr.Error())
	case errors.As(err, &credentialsErr):
		WriteFailure(w, http.StatusUnauthorized, credentialsErr.Error())
	case errors.Is(err, models.ErrNotFound):
		WriteFailure(w, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrConflict):
		WriteFailure(w, http.StatusConflict, "Conflict")
	case errors.Is(err, models.ErrUnauthorized):
		WriteFailure(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, models.ErrForbidden):
		WriteFailure(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, models.ErrSessionExpired):
		WriteFailure(w, http.StatusUnauthorized, "Session expired")
	case errors.Is(err, models.ErrBadRequest):
		WriteFailure(w, http.StatusBadRequest, "Invalid request")
	default:
		WriteFailure(w, http.StatusInternalServerError, "Internal server error")
	}
}
