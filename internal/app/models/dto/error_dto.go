package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success       bool                   `json:"success" example:"false"`
	Error         string                 `json:"error" example:"Percentages must be between 0 and 100"`
	Code          string                 `json:"code" example:"validation_failed"`
	MissingFields []string               `json:"missing_fields,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(message, code string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC(),
	}
}

// WithDetails attaches extra context.
func (e *ErrorResponse) WithDetails(details map[string]interface{}) *ErrorResponse {
	e.Details = details
	return e
}

// FromCustomError renders an application error.
func FromCustomError(ce *apperrors.CustomError) *ErrorResponse {
	resp := NewErrorResponse(ce.Error(), ce.Code)
	resp.MissingFields = ce.MissingFields
	resp.Details = ce.Details
	return resp
}

// HandleValidationError converts request binding failures into an error
// response. Validator failures are listed per field; malformed JSON gets a
// generic message.
func HandleValidationError(err error) *ErrorResponse {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]interface{}, len(verrs))
		var first string
		var missing []string
		for _, fe := range verrs {
			msg := formatFieldError(fe)
			if first == "" {
				first = msg
			}
			fields[fe.Field()] = msg
			if fe.Tag() == "required" {
				missing = append(missing, fe.Field())
			}
		}
		resp := NewErrorResponse(first, apperrors.CodeValidationFailed).
			WithDetails(map[string]interface{}{"fields": fields})
		resp.MissingFields = missing
		return resp
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return NewErrorResponse("Request body is not valid JSON", apperrors.CodeBadRequest)
	case errors.As(err, &typeErr):
		return NewErrorResponse(fmt.Sprintf("Field %s has the wrong type", typeErr.Field), apperrors.CodeBadRequest)
	case strings.Contains(err.Error(), "EOF"):
		return NewErrorResponse("No data provided", apperrors.CodeBadRequest)
	}
	return NewErrorResponse("Invalid request format", apperrors.CodeBadRequest)
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "gt":
		return e.Field() + " must contain at least one item"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
