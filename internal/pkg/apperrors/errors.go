package apperrors

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by a service wraps exactly one of
// these so the HTTP layer can map it with errors.Is.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrResourceNotFound = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDocumentInvalid  = errors.New("invalid document")
	ErrStorage          = errors.New("storage failure")
	ErrBadRequest       = errors.New("bad request")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
)

// Machine-readable reason codes carried in CustomError.Code.
const (
	CodeValidationFailed    = "validation_failed"
	CodeMissingFields       = "missing_fields"
	CodeConflict            = "conflict"
	CodeNotFound            = "not_found"
	CodeForbidden           = "forbidden"
	CodeBadRequest          = "bad_request"
	CodeInvalidEncoding     = "invalid_encoding"
	CodeDocumentTooLarge    = "document_too_large"
	CodeDocumentTooSmall    = "document_too_small"
	CodeUnsupportedFileType = "unsupported_file_type"
	CodeDocumentMissing     = "document_missing"
	CodeStorage             = "storage_error"
	CodeUnauthorized        = "unauthorized"
	CodeTokenExpired        = "token_expired"
	CodeTokenInvalid        = "token_invalid"
	CodeRequestTooLarge     = "request_too_large"
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err           error
	Message       string
	Code          string
	MissingFields []string
	Details       map[string]interface{}
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails attaches extra context rendered in the error response.
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode overrides the reason code.
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

func NewValidationError(message string) *CustomError {
	return &CustomError{Err: ErrValidationFailed, Message: message, Code: CodeValidationFailed}
}

// NewMissingFieldsError reports every required field that was absent or blank.
func NewMissingFieldsError(fields []string) *CustomError {
	return &CustomError{
		Err:           ErrValidationFailed,
		Message:       "Missing required fields",
		Code:          CodeMissingFields,
		MissingFields: fields,
	}
}

func NewConflictError(message string) *CustomError {
	return &CustomError{Err: ErrConflict, Message: message, Code: CodeConflict}
}

func NewResourceNotFoundError(message string) *CustomError {
	return &CustomError{Err: ErrResourceNotFound, Message: message, Code: CodeNotFound}
}

func NewForbiddenError(message string) *CustomError {
	return &CustomError{Err: ErrPermissionDenied, Message: message, Code: CodeForbidden}
}

func NewBadRequestError(message string) *CustomError {
	return &CustomError{Err: ErrBadRequest, Message: message, Code: CodeBadRequest}
}

// NewUnauthorizedError reports a failed authentication. cause must be one of
// the credential or token sentinels.
func NewUnauthorizedError(cause error, message string) *CustomError {
	return &CustomError{Err: cause, Message: message, Code: CodeUnauthorized}
}

// NewDocumentError reports a rejected upload with its reason code.
func NewDocumentError(code, message string) *CustomError {
	return &CustomError{Err: ErrDocumentInvalid, Message: message, Code: code}
}

// NewStorageError wraps a persistence failure. The cause is kept for logs and
// never rendered to clients.
func NewStorageError(op string, cause error) *CustomError {
	return &CustomError{
		Err:     fmt.Errorf("%w: %s: %w", ErrStorage, op, cause),
		Message: "A storage error occurred",
		Code:    CodeStorage,
	}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Code extracts the reason code of a CustomError anywhere in the chain.
func Code(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
