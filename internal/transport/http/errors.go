package http

import (
	"errors"
	"log/slog"
	"net/http"

	"authsvc/internal/domain"
	"authsvc/internal/dto"
	"authsvc/internal/observability/middleware"
)

const (
	msgInvalidBody        = "Invalid request body"
	msgDuplicateEmail     = "Email already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgNotVerified        = "Please verify your email before logging in."
	msgInvalidToken       = "Invalid or expired token"
	msgUnauthorized       = "Unauthorized"
	msgForbidden          = "Forbidden"
	msgUserNotFound       = "User not found"
	msgRateLimited        = "Too many login attempts, try again later"
	msgChannelUnavailable = "Email service unavailable, try again later"
	msgInternal           = "Internal server error"
)

// writeError is the only place a service error becomes a status code and a
// client message. Several internal reasons share one response on purpose:
// unknown email and wrong password are both msgInvalidCredentials.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"trace_id", middleware.TraceIDFromContext(r.Context()),
		)
	}
	writeJSON(w, status, dto.MessageResponse{Message: msg})
}

func classify(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Reason
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, msgInvalidBody
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusBadRequest, msgDuplicateEmail
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, domain.ErrEmailNotVerified):
		return http.StatusBadRequest, msgNotVerified
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest, msgInvalidToken
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgUserNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	case errors.Is(err, domain.ErrChannelUnavailable):
		return http.StatusServiceUnavailable, msgChannelUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
