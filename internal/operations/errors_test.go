package operations

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineError(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *PipelineError
		want string
		typ  ErrorType
	}{
		{"validation", NewValidationError("", "no dataset supplied"), "[validation] no dataset supplied", ErrorTypeValidation},
		{"execution", NewExecutionError("join", cause), "[execution] join: stage execution failed: boom", ErrorTypeExecution},
		{"dependency", NewDependencyError("join", "filter"), "[dependency] join: depends on unregistered stage filter", ErrorTypeDependency},
		{"fatal", NewFatalError("resolve", "every dataset was rejected", nil), "[fatal] resolve: every dataset was rejected", ErrorTypeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Equal(t, tt.typ, GetErrorType(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}

	assert.ErrorIs(t, NewExecutionError("x", cause), cause)
	assert.Equal(t, ErrorTypeExecution, GetErrorType(cause))
	assert.Equal(t, ErrorType(""), GetErrorType(nil))

	var nilErr *PipelineError
	assert.Equal(t, "unknown pipeline error", nilErr.Error())
	assert.NoError(t, nilErr.Unwrap())
}
