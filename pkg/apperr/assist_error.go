package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Validation errors (surfaced to caller)
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeMissingField     = "MISSING_FIELD"

	// External capability errors (recovered via fallback, never surfaced raw)
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeParseFailure    = "PARSE_ERROR"
	CodeTimeout         = "TIMEOUT"

	// Downstream persistence errors (surfaced as retryable)
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"

	// Resource errors
	CodeNotFound = "NOT_FOUND"
	CodeConflict = "CONFLICT"

	// Internal errors
	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// HTTPStatus returns the HTTP status code
func (e *AppError) HTTPStatus() int {
	return e.Status
}

// Constructor functions
func New(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Validation errors
func BadRequest(message string) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func ValidationFailed(message string) *AppError {
	return &AppError{
		Code:    CodeValidationFailed,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func MissingField(field string) *AppError {
	return &AppError{
		Code:    CodeMissingField,
		Message: fmt.Sprintf("missing required field: %s", field),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

// External capability errors. These never leave the adapter boundary of the
// classify/extract/draft stages; they exist so fallback decisions and logs
// share one taxonomy.
func ExternalService(stage string, err error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("external capability failed: %s", stage),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"stage": stage},
		Err:     err,
	}
}

func ParseFailure(stage, reason string) *AppError {
	return &AppError{
		Code:    CodeParseFailure,
		Message: fmt.Sprintf("malformed response from %s: %s", stage, reason),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"stage": stage},
	}
}

func Timeout(operation string) *AppError {
	return &AppError{
		Code:    CodeTimeout,
		Message: fmt.Sprintf("operation timed out: %s", operation),
		Status:  http.StatusGatewayTimeout,
	}
}

// StorageUnavailable is surfaced to the caller as a retryable 503 with a
// suggested-action hint; there is no safe local fallback for persistence.
func StorageUnavailable(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeStorageUnavailable,
		Message: fmt.Sprintf("storage unavailable: %s", operation),
		Status:  http.StatusServiceUnavailable,
		Details: map[string]any{"suggested_action": "retry with backoff"},
		Err:     err,
	}
}

// Resource errors
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// Internal errors
func Internal(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

func InternalWithError(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func ConfigError(message string) *AppError {
	return &AppError{
		Code:    CodeConfigError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// Helper functions
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalWithError(err)
}

// IsRecoverable reports whether the error belongs to the class that pipeline
// adapters absorb into a fallback result.
func IsRecoverable(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		// Unknown errors from external calls are treated as external failures.
		return true
	}
	switch appErr.Code {
	case CodeExternalService, CodeParseFailure, CodeTimeout:
		return true
	}
	return false
}

func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
