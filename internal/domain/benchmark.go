// Package domain defines the core value objects for benchmark evaluations:
// requests, per-metric scores, ranked tool results, and the final
// evaluation result handed to storage and presentation collaborators.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Metric identifies one of the four fixed evaluation dimensions.
type Metric string

// The four metrics every tool answer is scored on. The set is fixed;
// prompts, parsing, and normalization all iterate over Metrics.
const (
	MetricTruthfulness Metric = "truthfulness"
	MetricCreativity   Metric = "creativity"
	MetricCoherence    Metric = "coherence"
	MetricUtility      Metric = "utility"
)

// Metrics lists the evaluation dimensions in canonical order.
// The order is stable so that prompts, tables, and CSV columns
// always line up.
var Metrics = []Metric{
	MetricTruthfulness,
	MetricCreativity,
	MetricCoherence,
	MetricUtility,
}

// Score scale bounds shared across the pipeline.
const (
	// RawScoreMax is the upper bound of the judge's integer score scale.
	RawScoreMax = 1000
	// RawScoreMin is the lower bound of the judge's integer score scale.
	RawScoreMin = 0
)

// ToolAnswer pairs a tool's display name with the answer text it produced
// for the question under evaluation.
type ToolAnswer struct {
	// Name uniquely identifies the tool within one request (e.g. "ChatGPT").
	Name string `json:"name"`

	// Answer is the tool's response text to the question.
	Answer string `json:"answer"`
}

// EvaluationRequest carries everything the orchestrator needs for one
// evaluation. Requests are constructed per call and discarded after use;
// the core never retains them.
type EvaluationRequest struct {
	// Question is the prompt that was posed to every tool.
	Question string `json:"question"`

	// Judge selects the provider adapter ("gemini", "anthropic", "groq",
	// "ollama"). Empty means use the configured default.
	Judge string `json:"judge,omitempty"`

	// Tools holds the competing answers in caller order. Order matters:
	// it is the tie-break key for ranking.
	Tools []ToolAnswer `json:"tools"`

	// ShowJudgeAnswer asks the judge to produce its own answer alongside
	// the scores. The judge is instructed not to let it influence scoring.
	ShowJudgeAnswer bool `json:"show_judge_answer,omitempty"`

	// UserCredential overrides the process-default API key for exactly
	// this request. It is never persisted or cached by the core.
	UserCredential string `json:"-"`
}

// MinTools is the smallest number of competing answers worth judging.
const MinTools = 2

// Validate rejects structurally invalid requests before any network call.
// Violations surface as an InvalidRequest error, which is never retried.
func (r EvaluationRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return NewEvalError(KindInvalidRequest, "question cannot be empty", nil)
	}
	if len(r.Tools) < MinTools {
		return NewEvalError(KindInvalidRequest,
			fmt.Sprintf("at least %d tool answers are required, got %d", MinTools, len(r.Tools)), nil)
	}
	seen := make(map[string]struct{}, len(r.Tools))
	for _, t := range r.Tools {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return NewEvalError(KindInvalidRequest, "tool name cannot be empty", nil)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return NewEvalError(KindInvalidRequest,
				fmt.Sprintf("duplicate tool name %q", t.Name), nil)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// ToolNames returns the tool names in request order.
func (r EvaluationRequest) ToolNames() []string {
	names := make([]string, len(r.Tools))
	for i, t := range r.Tools {
		names[i] = t.Name
	}
	return names
}

// MetricScore holds one metric's judge verdict for one tool: the raw
// 0-1000 integer as received, the derived 0-10 score, and the judge's
// free-text justification.
//
// Invariant: Score == Raw/100 rounded half-to-even to three decimals,
// so Score is always within [0, 10].
type MetricScore struct {
	// Raw is the integer score on the judge's 0-1000 scale.
	Raw int `json:"raw"`

	// Score is the derived 0-10 value, three decimal places.
	Score float64 `json:"score"`

	// Reason is the judge's explanation for this metric score.
	Reason string `json:"reason,omitempty"`
}

// ToolResult aggregates one tool's scores across all four metrics.
type ToolResult struct {
	// Tool is the tool name as supplied in the request.
	Tool string `json:"tool"`

	// Metrics maps each evaluation dimension to its score.
	Metrics map[Metric]MetricScore `json:"metrics"`

	// Overall is the mean of the four derived metric scores,
	// rounded half-to-even to three decimals.
	Overall float64 `json:"overall"`

	// Rank is this tool's position in the final ordering, 1 being best.
	// Ties keep request order.
	Rank int `json:"rank"`
}

// EvaluationResult is the canonical outcome of one successful evaluation.
// It is immutable once produced. The storage collaborator may attach a
// sequence id and share identifier afterwards; the core never reads those.
type EvaluationResult struct {
	// Question echoes the evaluated question.
	Question string `json:"question"`

	// Judge echoes the provider that scored the answers.
	Judge string `json:"judge"`

	// Results lists every tool's scores sorted by rank.
	Results []ToolResult `json:"results"`

	// Winner names the rank-1 tool.
	Winner string `json:"winner"`

	// WinnerReason carries the judge's explanation for the winner, or a
	// neutral statement when the judge did not supply one.
	WinnerReason string `json:"winner_reason"`

	// JudgeAnswer is the judge's own answer to the question. Present only
	// when the request enabled judge-answer generation.
	JudgeAnswer string `json:"judge_answer,omitempty"`

	// Category is the open-vocabulary topic label from the best-effort
	// categorization call. Absent when categorization failed or was skipped.
	Category string `json:"category,omitempty"`

	// CreatedAt records when the result was produced.
	CreatedAt time.Time `json:"created_at"`
}
