package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"zero value", 0, "0.00"},
		{"integer", 123, "123.00"},
		{"rounds to two decimals", 13.456, "13.46"},
		{"negative", -4.5, "-4.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "0.6176", formatRatio(21.0/34.0))
	assert.Equal(t, "", formatOptional(nil))
	assert.Equal(t, "1.2000", formatOptional(f(1.2)))
	assert.Equal(t, "42", formatInt(42))
	assert.Equal(t, "true", formatBool(true))
	assert.Equal(t, "false", formatBool(false))
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "2024-03-10", formatDate(time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)))
}
