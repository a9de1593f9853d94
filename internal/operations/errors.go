package operations

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of pipeline error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeDependency   ErrorType = "dependency"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeFatal        ErrorType = "fatal"
)

// PipelineError is a failure attributed to a pipeline stage.
type PipelineError struct {
	Type    ErrorType `json:"type"`
	Stage   string    `json:"stage,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *PipelineError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Stage != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError reports a run request that cannot start.
func NewValidationError(stage, message string) *PipelineError {
	return &PipelineError{Type: ErrorTypeValidation, Stage: stage, Message: message}
}

// NewDependencyError reports a stage registered before a stage it needs.
func NewDependencyError(stage, dependsOn string) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeDependency,
		Stage:   stage,
		Message: fmt.Sprintf("depends on unregistered stage %s", dependsOn),
	}
}

// NewExecutionError wraps an unexpected stage failure.
func NewExecutionError(stage string, cause error) *PipelineError {
	return &PipelineError{Type: ErrorTypeExecution, Stage: stage, Message: "stage execution failed", Cause: cause}
}

// NewCancellationError reports a run stopped by its context.
func NewCancellationError(stage string, cause error) *PipelineError {
	return &PipelineError{Type: ErrorTypeCancellation, Stage: stage, Message: "run was cancelled", Cause: cause}
}

// NewFatalError reports a run that cannot produce any result.
func NewFatalError(stage, message string, cause error) *PipelineError {
	return &PipelineError{Type: ErrorTypeFatal, Stage: stage, Message: message, Cause: cause}
}

// GetErrorType returns the type of err, ErrorTypeExecution for foreign errors.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Type
	}
	return ErrorTypeExecution
}
