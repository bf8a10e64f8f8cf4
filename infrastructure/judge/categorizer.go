package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrutinium/scrutinium/internal/ports"
)

// maxCategoryLength caps runaway labels from chatty judges.
const maxCategoryLength = 60

// Categorizer assigns an open-vocabulary topic label to a question via a
// secondary, lower-stakes LLM call. Callers treat failures as
// non-fatal; a lost category never fails an evaluation.
type Categorizer struct {
	client  ports.LLMClient
	builder *PromptBuilder
}

// NewCategorizer builds a Categorizer around the given client.
func NewCategorizer(client ports.LLMClient, builder *PromptBuilder) *Categorizer {
	return &Categorizer{client: client, builder: builder}
}

// Categorize returns a single lowercase topic label for the question.
func (c *Categorizer) Categorize(ctx context.Context, question string) (string, error) {
	prompt, err := c.builder.BuildCategorizationPrompt(question)
	if err != nil {
		return "", err
	}

	reply, err := c.client.Complete(ctx, prompt, map[string]any{
		"temperature": 0.0,
		"max_tokens":  20,
	})
	if err != nil {
		return "", fmt.Errorf("categorization call failed: %w", err)
	}

	label := cleanCategoryLabel(reply)
	if label == "" {
		return "", fmt.Errorf("categorization returned no usable label")
	}

	return label, nil
}

// cleanCategoryLabel reduces a judge reply to one lowercase label: first
// line only, stripped of quotes and trailing punctuation, length-capped.
func cleanCategoryLabel(reply string) string {
	label := strings.TrimSpace(reply)
	if nl := strings.IndexByte(label, '\n'); nl != -1 {
		label = label[:nl]
	}
	label = strings.Trim(label, "\"'` .")
	label = strings.ToLower(strings.TrimSpace(label))

	if len(label) > maxCategoryLength {
		label = strings.TrimSpace(label[:maxCategoryLength])
	}

	return label
}
