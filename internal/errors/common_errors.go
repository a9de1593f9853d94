package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSchema     ErrorType = "SCHEMA"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// SchemaError reports an export whose required fields could not be resolved
// from any candidate column.
type SchemaError struct {
	Source  string   `json:"source"`
	Missing []string `json:"missing"`
	Seen    []string `json:"seen"`
}

// NewSchemaError builds a SchemaError with a sorted missing list.
func NewSchemaError(source string, missing, seen []string) *SchemaError {
	m := append([]string(nil), missing...)
	sort.Strings(m)
	return &SchemaError{
		Source:  source,
		Missing: m,
		Seen:    append([]string(nil), seen...),
	}
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required fields [%s]; columns present: [%s]",
		e.Source, strings.Join(e.Missing, ", "), strings.Join(e.Seen, ", "))
}

// AsAppError wraps the schema error in the application taxonomy.
func (e *SchemaError) AsAppError() *AppError {
	return NewAppError(ErrTypeSchema, "dataset rejected", e).
		WithContext("source", e.Source).
		WithContext("missing", e.Missing)
}
