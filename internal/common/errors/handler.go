// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler normalizes pipeline errors and writes HTTP error responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Code       string `json:"code"`
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
}

// WriteHTTPError maps the error taxonomy to an HTTP status and writes the
// JSON error body. When a retry-exhausted error wraps a more specific
// StandardError, the wrapped code decides the status.
func (h *ErrorHandler) WriteHTTPError(w http.ResponseWriter, err error) {
	stdErr := Normalize(err)

	code := stdErr.Code
	if code == ErrCodeRetryExhausted {
		if inner, ok := stdErr.Unwrap().(*StandardError); ok {
			code = inner.Code
		}
	}
	status := HTTPStatus(code)

	h.logger.Error("request failed", map[string]interface{}{
		"code":       string(stdErr.Code),
		"message":    stdErr.Message,
		"details":    stdErr.Details,
		"statusCode": status,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Success:    false,
		Error:      stdErr.Message,
		Code:       string(stdErr.Code),
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
