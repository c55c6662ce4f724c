package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBasicExpressions(t *testing.T) {
	tests := []struct {
		expression string
		want       float64
	}{
		{"2+2", 4},
		{"10 - 3", 7},
		{"6*7", 42},
		{"8/2", 4},
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"-5+3", -2},
		{"2*(3+(4-1))", 12},
		{"1.5*2", 3},
		{"10/4", 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			out, err := Calculate(context.Background(), map[string]any{"expression": tt.expression})
			require.NoError(t, err)
			require.Equal(t, "success", out["status"])
			assert.InDelta(t, tt.want, out["result"].(float64), 1e-9)
			assert.NotEmpty(t, out["formatted_result"])
		})
	}
}

func TestCalculateRejectsInvalidCharacters(t *testing.T) {
	out, err := Calculate(context.Background(), map[string]any{"expression": "2+2; rm -rf /"})
	require.NoError(t, err)

	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "invalid characters")
	assert.Equal(t, "2+2; rm -rf /", out["expression"])
}

func TestCalculateReportsParseErrors(t *testing.T) {
	tests := []string{"", "2+", "(2+3", "2**3", "1..2"}

	for _, expression := range tests {
		t.Run(expression, func(t *testing.T) {
			out, err := Calculate(context.Background(), map[string]any{"expression": expression})
			require.NoError(t, err)
			assert.Equal(t, "error", out["status"])
		})
	}
}

func TestCalculateDivisionByZero(t *testing.T) {
	out, err := Calculate(context.Background(), map[string]any{"expression": "1/0"})
	require.NoError(t, err)

	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "division by zero")
}
