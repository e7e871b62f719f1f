package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	apperrors "github.com/escolafut/escola-api/internal/errors"
)

// errorResponse maps a service error to a status and client-facing code.
// Application errors are checked first so a wrapped cause never changes the
// response class.
func errorResponse(err error) ErrorParams {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrCodeValidation, apperrors.ErrCodeForeignKey:
			return ErrorParams{Code: http.StatusUnprocessableEntity, ErrCode: "validation_failed", Field: appErr.Field}
		case apperrors.ErrCodeNotFound:
			return ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found"}
		case apperrors.ErrCodeConflict:
			return ErrorParams{Code: http.StatusConflict, ErrCode: "conflict", Field: appErr.Field}
		case apperrors.ErrCodeForbidden:
			return ErrorParams{Code: http.StatusForbidden, ErrCode: "forbidden"}
		case apperrors.ErrCodeUnavailable, apperrors.ErrCodeTimeout, apperrors.ErrCodeCanceled:
			return ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "service_unavailable"}
		default:
			return ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error"}
		}
	}

	switch {
	case errors.Is(err, domainauth.ErrCrossTenantAccess):
		// Indistinguishable from a missing row.
		return ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found"}
	case errors.Is(err, domainauth.ErrForbidden):
		return ErrorParams{Code: http.StatusForbidden, ErrCode: "forbidden"}
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		return ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_credentials"}
	case errors.Is(err, domainauth.ErrUnauthenticated):
		return ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required"}
	case errors.Is(err, domainauth.ErrSessionBackendUnavailable),
		errors.Is(err, domainauth.ErrCredentialBackendUnavailable):
		return ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "service_unavailable"}
	default:
		return ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error"}
	}
}

// writeServiceError logs err with request context and writes its coarse form.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	p := errorResponse(err)
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if p.Code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", p.Code),
		slog.Any("error", err),
	)
	WriteError(w, p)
}
