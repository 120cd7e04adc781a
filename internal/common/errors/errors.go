package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"

	ErrCodeGiveawayNotFound ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeEntryNotFound    ErrorCode = "ENTRY_NOT_FOUND"
	ErrCodeDrawNotFound     ErrorCode = "DRAW_NOT_FOUND"
	ErrCodeAccountNotFound  ErrorCode = "ACCOUNT_NOT_FOUND"

	// An admin may have only one open giveaway at a time.
	ErrCodeAlreadyOpen ErrorCode = "GIVEAWAY_ALREADY_OPEN"
	// A draw needs at least two eligible participants.
	ErrCodeNotEnoughEntries ErrorCode = "NOT_ENOUGH_ENTRIES"
	// A draw is already running for this giveaway.
	ErrCodeDrawInProgress ErrorCode = "DRAW_IN_PROGRESS"

	// Platform API failure during entry accumulation. Recovered locally
	// as zero tickets, never surfaced to the viewer.
	ErrCodeUpstreamDegraded ErrorCode = "UPSTREAM_DEGRADED"
	// Randomness signature failed verification. Recorded on the draw
	// record as verified=false; the draw still completes.
	ErrCodeAuditWarning ErrorCode = "AUDIT_INTEGRITY_WARNING"

	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError    ErrorCode = "CACHE_ERROR"
	ErrCodeExternalAPI   ErrorCode = "EXTERNAL_API_ERROR"
)

// AppError is the typed error carried through services and rendered by the
// HTTP error middleware.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) IsNotFound() bool {
	switch e.Code {
	case ErrCodeNotFound, ErrCodeGiveawayNotFound, ErrCodeEntryNotFound,
		ErrCodeDrawNotFound, ErrCodeAccountNotFound:
		return true
	}
	return false
}

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation
}

func (e *AppError) IsConflict() bool {
	return e.Code == ErrCodeConflict || e.Code == ErrCodeAlreadyOpen ||
		e.Code == ErrCodeDrawInProgress
}

func (e *AppError) IsInternal() bool {
	switch e.Code {
	case ErrCodeInternal, ErrCodeConfiguration, ErrCodeDatabaseError,
		ErrCodeCacheError, ErrCodeExternalAPI:
		return true
	}
	return false
}

// WithDetail attaches a key/value pair for the HTTP envelope and logs.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap attaches a cause to a new application error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Common constructors.

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewGiveawayNotFoundError(giveawayID string) *AppError {
	return New(ErrCodeGiveawayNotFound, fmt.Sprintf("Giveaway not found: %s", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

func NewAlreadyOpenError(adminID int64, openID string) *AppError {
	return New(ErrCodeAlreadyOpen, "Another giveaway is already open for this admin").
		WithDetail("admin_id", adminID).
		WithDetail("open_giveaway_id", openID)
}

func NewConfigurationError(what string) *AppError {
	return New(ErrCodeConfiguration, fmt.Sprintf("Missing configuration: %s", what)).
		WithDetail("missing", what)
}

func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewUpstreamDegradedError(platform, operation string, err error) *AppError {
	return Wrap(err, ErrCodeUpstreamDegraded, fmt.Sprintf("%s API degraded during %s", platform, operation)).
		WithDetail("platform", platform).
		WithDetail("operation", operation)
}

// IsAppError reports whether err is an AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError casts err to AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
