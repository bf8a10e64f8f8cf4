// Package judge implements the evaluation pipeline units: prompt
// construction, structured-response parsing, score normalization,
// ranking, categorization, and result rendering. Every unit is stateless
// and safe for concurrent use.
package judge

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/scrutinium/scrutinium/internal/domain"
)

// evaluationPromptText instructs the judge to score every tool answer on
// the four metrics using the 0-1000 integer scale and to reply with a
// single JSON object keyed by tool name. The worked anchors push the
// judge toward fine-grained scores instead of round hundreds.
const evaluationPromptText = `You are an expert judge evaluating GenAI tool responses across multiple metrics.

Score every tool response on these four metrics:
1. truthfulness (factual correctness, internal consistency, resistance to hallucination)
2. creativity (novel framing or synthesis, non-obvious insights, original examples or analogies)
3. coherence (logical flow, step-by-step reasoning, absence of contradictions)
4. utility (practical usefulness, clarity for decision-making, transferability to real-world tasks)

Every score is an integer from 0 to 1000. Use the full granularity of the
scale: 862 means strong but not perfect, 990 means near flawless, 450
means clearly below average, 120 means mostly wrong or unusable. Do not
round scores to the nearest hundred.

Respond with a single JSON object and nothing else, in exactly this shape:
{
{{- range $i, $tool := .ToolNames}}
  "{{$tool}}": {
    "truthfulness": <integer 0-1000>, "truthfulness_reason": "<brief reasoning>",
    "creativity": <integer 0-1000>, "creativity_reason": "<brief reasoning>",
    "coherence": <integer 0-1000>, "coherence_reason": "<brief reasoning>",
    "utility": <integer 0-1000>, "utility_reason": "<brief reasoning>"
  },
{{- end}}
  "winner": "<name of the best tool>",
  "winner_reason": "<why that tool won>"{{if .IncludeJudgeAnswer}},
  "judge_answer": "<your own answer to the question>"{{end}}
}
{{if .IncludeJudgeAnswer}}
Write your own answer to the question in "judge_answer" only after all
scores are final. Your own answer must not influence any score.
{{end}}
Question: {{.Question}}

Tool Responses:
{{range .Tools}}--- {{.Name}} ---
{{.Answer}}

{{end}}`

// categorizationPromptText asks for one open-vocabulary topic label.
// The category space is deliberately unconstrained.
const categorizationPromptText = `Assign a topic category to the following question.
Reply with a single lowercase word or short phrase naming the topic, and
nothing else. Any topic is acceptable; do not pick from a fixed list.

Question: {{.Question}}
`

// PromptBuilder assembles the judge prompts from compiled templates.
// The zero-cost constructor compiles both templates once; a builder is
// immutable and safe for concurrent use.
type PromptBuilder struct {
	evaluation     *template.Template
	categorization *template.Template
}

// NewPromptBuilder compiles the prompt templates.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		evaluation:     template.Must(template.New("evaluation").Parse(evaluationPromptText)),
		categorization: template.Must(template.New("categorization").Parse(categorizationPromptText)),
	}
}

// BuildEvaluationPrompt renders the scoring prompt for one request:
// question, every tool answer, the 0-1000 scale instructions, and the
// expected JSON schema. When includeJudgeAnswer is set the judge is asked
// for its own answer with the instruction that it must not affect scores.
func (pb *PromptBuilder) BuildEvaluationPrompt(question string, tools []domain.ToolAnswer, includeJudgeAnswer bool) (string, error) {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}

	data := struct {
		Question           string
		Tools              []domain.ToolAnswer
		ToolNames          []string
		IncludeJudgeAnswer bool
	}{
		Question:           question,
		Tools:              tools,
		ToolNames:          names,
		IncludeJudgeAnswer: includeJudgeAnswer,
	}

	var buf bytes.Buffer
	if err := pb.evaluation.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render evaluation prompt: %w", err)
	}
	return buf.String(), nil
}

// BuildCategorizationPrompt renders the topic-label prompt for one
// question.
func (pb *PromptBuilder) BuildCategorizationPrompt(question string) (string, error) {
	var buf bytes.Buffer
	if err := pb.categorization.Execute(&buf, struct{ Question string }{question}); err != nil {
		return "", fmt.Errorf("failed to render categorization prompt: %w", err)
	}
	return buf.String(), nil
}
