package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"zero value", 0.0, "0"},
		{"positive integer", 123.0, "123"},
		{"negative integer", -456.0, "-456"},
		{"decimal with trailing zeros", 123.456000, "123.456"},
		{"small coefficient", 0.001234, "0.001234"},
		{"very small coefficient", 1.23e-7, "0.000000123"},
		{"large ridership", 1234567.0, "1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatBool(t *testing.T) {
	assert.Equal(t, "true", formatBool(true))
	assert.Equal(t, "false", formatBool(false))
}
