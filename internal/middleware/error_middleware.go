package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/logger"
)

// StatusFor maps an error category to its HTTP status.
func StatusFor(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrValidationFailed,
		apperrors.ErrConflict, apperrors.ErrDocumentInvalid, apperrors.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden
	case apperrors.Is(err, apperrors.ErrInvalidCredentials,
		apperrors.ErrTokenExpired, apperrors.ErrTokenInvalid, apperrors.ErrAccountDisabled):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fallbackResponse covers bare sentinels that never went through a
// CustomError constructor.
func fallbackResponse(err error) *dto.ErrorResponse {
	switch {
	case errors.Is(err, apperrors.ErrTokenExpired):
		return dto.NewErrorResponse("Token has expired", apperrors.CodeTokenExpired)
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return dto.NewErrorResponse("Invalid token", apperrors.CodeTokenInvalid)
	case errors.Is(err, apperrors.ErrAccountDisabled):
		return dto.NewErrorResponse("Account is deactivated", apperrors.CodeUnauthorized)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return dto.NewErrorResponse("Invalid email or password", apperrors.CodeUnauthorized)
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return dto.NewErrorResponse("Resource not found", apperrors.CodeNotFound)
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return dto.NewErrorResponse("Permission denied", apperrors.CodeForbidden)
	case errors.Is(err, apperrors.ErrConflict):
		return dto.NewErrorResponse("Conflict", apperrors.CodeConflict)
	case apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrBadRequest, apperrors.ErrDocumentInvalid):
		return dto.NewErrorResponse("Validation failed", apperrors.CodeValidationFailed)
	case errors.Is(err, apperrors.ErrStorage):
		return dto.NewErrorResponse("A storage error occurred", apperrors.CodeStorage)
	default:
		return dto.NewErrorResponse("Internal server error", "internal_error")
	}
}

// HandleAPIError writes err as an ErrorResponse and aborts the chain.
// Server-side failures are logged with their full chain; clients only see
// the generic message.
func HandleAPIError(c *gin.Context, err error) {
	status := StatusFor(err)

	var resp *dto.ErrorResponse
	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Code != "" {
		resp = dto.FromCustomError(ce)
	} else {
		resp = fallbackResponse(err)
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		if !errors.Is(err, apperrors.ErrStorage) {
			resp = dto.NewErrorResponse("Internal server error", "internal_error")
		}
	}

	c.AbortWithStatusJSON(status, resp)
}

// AbortWithError renders a message with an explicit status, for failures
// that happen before any service is reached.
func AbortWithError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, code))
}
