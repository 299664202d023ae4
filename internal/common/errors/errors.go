// Package errors provides standardized error handling for the deal alert pipeline.
package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	ErrCodeCatalogFetchFailed ErrorCode = "CATALOG_FETCH_FAILED"
	ErrCodeCatalogBadResponse ErrorCode = "CATALOG_BAD_RESPONSE"

	ErrCodeDataParsingFailed ErrorCode = "DATA_PARSING_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeTimeout        ErrorCode = "TIMEOUT"
	ErrCodeRetryExhausted ErrorCode = "RETRY_EXHAUSTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// Error Constructors
// ==========================

// NewConfigInvalidError creates a fatal configuration error.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid or missing configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogFetchError creates a catalog API error. statusCode is zero when
// the request never produced a response; 5xx and 429 are retryable, other
// client errors are not.
func NewCatalogFetchError(endpoint string, statusCode int, err error) *StandardError {
	retryable := statusCode == 0 || statusCode == http.StatusTooManyRequests || statusCode >= 500
	return &StandardError{
		Code:      ErrCodeCatalogFetchFailed,
		Message:   "Catalog API request failed",
		Details:   err.Error(),
		Retryable: retryable,
		Metadata: map[string]interface{}{
			"endpoint":   endpoint,
			"statusCode": statusCode,
		},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCatalogBadResponseError creates a non-retryable envelope validation error.
func NewCatalogBadResponseError(endpoint, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogBadResponse,
		Message:   "Catalog API returned an invalid response envelope",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
	}
}

// NewDataParsingError creates a non-retryable per-item parsing error.
// The offending raw item id is retained for logging.
func NewDataParsingError(itemID int64, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataParsingFailed,
		Message:   "Raw catalog item failed validation",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"itemId": itemID},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationSendFailedError creates a notification delivery error.
// Provider-reported client errors (bad request, unauthorized, forbidden,
// not found) are non-retryable; everything else is retried.
func NewNotificationSendFailedError(channel string, statusCode int, err error) *StandardError {
	retryable := true
	switch statusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		retryable = false
	}
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   err.Error(),
		Retryable: retryable,
		Metadata: map[string]interface{}{
			"channel":    channel,
			"statusCode": statusCode,
		},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Operation '%s' timed out", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRetryExhaustedError wraps the last underlying error after all attempts.
func NewRetryExhaustedError(attempts int, lastErr error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetryExhausted,
		Message:   fmt.Sprintf("Operation failed after %d attempts", attempts),
		Details:   lastErr.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"attempts": attempts},
		Timestamp: time.Now().UTC(),
		cause:     lastErr,
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// Utility Functions
// ==========================

// Normalize ensures any error is represented as a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if goerrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsRetryable reports whether err should be retried. Errors that are not
// StandardErrors are treated as retryable transport-level failures.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if goerrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return true
}

// HTTPStatus maps an error code to the HTTP status returned by the trigger endpoint.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeConfigInvalid:
		return http.StatusInternalServerError
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeCatalogFetchFailed, ErrCodeCatalogBadResponse, ErrCodeNotificationSendFailed, ErrCodeRetryExhausted:
		return http.StatusBadGateway
	case ErrCodeDataParsingFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
