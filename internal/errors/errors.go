package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError is an error with a fixed HTTP status and a stable error code that
// clients can switch on.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Is matches on status and code, so a sentinel still matches after
// WithDetails copied it.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.StatusCode == e.StatusCode && t.ErrorCode == e.ErrorCode
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// WithDetails returns a copy of e carrying details.
func (e *APIError) WithDetails(details interface{}) *APIError {
	c := *e
	c.Details = details
	return &c
}

// ValidationError is one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return New(statusCode, errorCode, message).WithDetails(details)
}

// Error catalogue of the analysis API.
var (
	ErrInvalidRequest     = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrMissingContentType = New(http.StatusBadRequest, "MISSING_CONTENT_TYPE", "Content-Type header is required")
	ErrUnsupportedMedia   = New(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Unsupported content type")
	ErrNoResult           = New(http.StatusNotFound, "RESULT_NOT_FOUND", "No analysis has been computed yet")
	ErrNoProductivity     = New(http.StatusNotFound, "PRODUCTIVITY_NOT_FOUND", "The latest analysis had no usable attendance dataset")
	ErrTableNotFound      = New(http.StatusNotFound, "TABLE_NOT_FOUND", "The latest result has no such table")
)

// InvalidRequestWithError wraps a decoding or upload error.
func InvalidRequestWithError(err error) *APIError {
	return ErrInvalidRequest.WithDetails(err.Error())
}

// NewValidationErrors reports every rejected field at once.
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", errs)
}

// TableNotFound names the unknown report table.
func TableNotFound(name string) *APIError {
	return ErrTableNotFound.WithDetails(map[string]string{"table": name})
}

// UnsupportedMediaType lists what the route accepts.
func UnsupportedMediaType(contentType string, allowed []string) *APIError {
	return ErrUnsupportedMedia.WithDetails(map[string]interface{}{
		"content_type": contentType,
		"allowed":      allowed,
	})
}

// PayloadTooLarge reports an upload above the configured limit.
func PayloadTooLarge(limit int64) *APIError {
	return New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", fmt.Sprintf("upload exceeds %d bytes", limit))
}
