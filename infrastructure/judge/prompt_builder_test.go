package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrutinium/scrutinium/internal/domain"
)

func TestBuildEvaluationPrompt(t *testing.T) {
	builder := NewPromptBuilder()
	tools := []domain.ToolAnswer{
		{Name: "gpt", Answer: "Paris is the capital of France."},
		{Name: "claude", Answer: "The capital of France is Paris."},
	}

	prompt, err := builder.BuildEvaluationPrompt("What is the capital of France?", tools, false)
	require.NoError(t, err)

	assert.Contains(t, prompt, "What is the capital of France?")
	for _, metric := range domain.Metrics {
		assert.Contains(t, prompt, string(metric))
		assert.Contains(t, prompt, string(metric)+"_reason")
	}
	assert.Contains(t, prompt, `"gpt": {`)
	assert.Contains(t, prompt, `"claude": {`)
	assert.Contains(t, prompt, "--- gpt ---")
	assert.Contains(t, prompt, "Paris is the capital of France.")
	assert.Contains(t, prompt, "--- claude ---")
	assert.Contains(t, prompt, "0 to 1000")
	assert.Contains(t, prompt, `"winner"`)
	assert.Contains(t, prompt, `"winner_reason"`)
	assert.NotContains(t, prompt, "judge_answer")
}

func TestBuildEvaluationPromptWithJudgeAnswer(t *testing.T) {
	builder := NewPromptBuilder()
	tools := []domain.ToolAnswer{
		{Name: "a", Answer: "one"},
		{Name: "b", Answer: "two"},
	}

	prompt, err := builder.BuildEvaluationPrompt("q", tools, true)
	require.NoError(t, err)

	assert.Contains(t, prompt, `"judge_answer"`)
	assert.Contains(t, prompt, "must not influence any score")
}

func TestBuildCategorizationPrompt(t *testing.T) {
	builder := NewPromptBuilder()

	prompt, err := builder.BuildCategorizationPrompt("How do vaccines work?")
	require.NoError(t, err)

	assert.Contains(t, prompt, "How do vaccines work?")
	assert.Contains(t, prompt, "single lowercase word or short phrase")
	assert.NotContains(t, prompt, "truthfulness", "categorization prompt must not mention scoring")
}
