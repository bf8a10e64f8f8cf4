package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluationRequestValidate(t *testing.T) {
	tests := []struct {
		name        string
		request     EvaluationRequest
		expectError bool
		errContains string
	}{
		{
			name: "valid request with two tools",
			request: EvaluationRequest{
				Question: "What is the capital of France?",
				Tools: []ToolAnswer{
					{Name: "gpt", Answer: "Paris"},
					{Name: "claude", Answer: "Paris, France"},
				},
			},
			expectError: false,
		},
		{
			name: "valid request with many tools",
			request: EvaluationRequest{
				Question: "Explain photosynthesis",
				Tools: []ToolAnswer{
					{Name: "a", Answer: "answer a"},
					{Name: "b", Answer: "answer b"},
					{Name: "c", Answer: "answer c"},
					{Name: "d", Answer: "answer d"},
				},
			},
			expectError: false,
		},
		{
			name: "empty question",
			request: EvaluationRequest{
				Question: "   ",
				Tools: []ToolAnswer{
					{Name: "a", Answer: "x"},
					{Name: "b", Answer: "y"},
				},
			},
			expectError: true,
			errContains: "question",
		},
		{
			name: "single tool",
			request: EvaluationRequest{
				Question: "Why is the sky blue?",
				Tools:    []ToolAnswer{{Name: "solo", Answer: "scattering"}},
			},
			expectError: true,
			errContains: "at least 2",
		},
		{
			name: "no tools",
			request: EvaluationRequest{
				Question: "Why is the sky blue?",
			},
			expectError: true,
			errContains: "at least 2",
		},
		{
			name: "empty tool name",
			request: EvaluationRequest{
				Question: "Why?",
				Tools: []ToolAnswer{
					{Name: "", Answer: "x"},
					{Name: "b", Answer: "y"},
				},
			},
			expectError: true,
			errContains: "name",
		},
		{
			name: "duplicate tool names",
			request: EvaluationRequest{
				Question: "Why?",
				Tools: []ToolAnswer{
					{Name: "gpt", Answer: "x"},
					{Name: "gpt", Answer: "y"},
				},
			},
			expectError: true,
			errContains: "duplicate",
		},
		{
			name: "duplicate tool names differing only in case",
			request: EvaluationRequest{
				Question: "Why?",
				Tools: []ToolAnswer{
					{Name: "GPT", Answer: "x"},
					{Name: "gpt", Answer: "y"},
				},
			},
			expectError: true,
			errContains: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()

			if !tt.expectError {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)

			evalErr, ok := AsEvalError(err)
			require.True(t, ok, "validation errors must be EvalError")
			assert.Equal(t, KindInvalidRequest, evalErr.Kind)
			assert.False(t, evalErr.Retryable())
		})
	}
}

func TestEvaluationRequestToolNames(t *testing.T) {
	req := EvaluationRequest{
		Question: "q",
		Tools: []ToolAnswer{
			{Name: "zeta", Answer: "1"},
			{Name: "alpha", Answer: "2"},
			{Name: "mid", Answer: "3"},
		},
	}

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, req.ToolNames(),
		"tool names must keep request order")
}

func TestMetricsCanonicalOrder(t *testing.T) {
	require.Len(t, Metrics, 4)
	assert.Equal(t, []Metric{
		MetricTruthfulness,
		MetricCreativity,
		MetricCoherence,
		MetricUtility,
	}, Metrics)
}
