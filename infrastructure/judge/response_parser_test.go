package judge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrutinium/scrutinium/internal/domain"
)

func validJudgeJSON(toolA, toolB string) string {
	return fmt.Sprintf(`{
		%q: {
			"truthfulness": 862, "truthfulness_reason": "accurate",
			"creativity": 700, "creativity_reason": "solid",
			"coherence": 910, "coherence_reason": "clear",
			"utility": 845, "utility_reason": "useful"
		},
		%q: {
			"truthfulness": 540, "truthfulness_reason": "some errors",
			"creativity": 620, "creativity_reason": "plain",
			"coherence": 580, "coherence_reason": "rambling",
			"utility": 500, "utility_reason": "partial"
		},
		"winner": %q,
		"winner_reason": "more accurate and better organized"
	}`, toolA, toolB, toolA)
}

func TestResponseParserParse(t *testing.T) {
	expected := []string{"gpt", "claude"}

	tests := []struct {
		name    string
		reply   string
		wantErr string
	}{
		{
			name:  "bare json",
			reply: validJudgeJSON("gpt", "claude"),
		},
		{
			name:  "json fenced block",
			reply: "Here are my scores:\n```json\n" + validJudgeJSON("gpt", "claude") + "\n```\nHope that helps!",
		},
		{
			name:  "generic fenced block",
			reply: "```\n" + validJudgeJSON("gpt", "claude") + "\n```",
		},
		{
			name:  "json embedded in prose",
			reply: "After careful consideration, " + validJudgeJSON("gpt", "claude") + " is my verdict.",
		},
		{
			name:    "no json at all",
			reply:   "I cannot evaluate these answers.",
			wantErr: "no JSON object",
		},
		{
			name:    "missing tool entry",
			reply:   `{"gpt": {"truthfulness": 800, "creativity": 800, "coherence": 800, "utility": 800}}`,
			wantErr: `no entry for tool "claude"`,
		},
		{
			name: "missing metric",
			reply: `{
				"gpt": {"truthfulness": 800, "creativity": 800, "coherence": 800, "utility": 800},
				"claude": {"truthfulness": 700, "creativity": 700, "coherence": 700}
			}`,
			wantErr: `missing metric "utility"`,
		},
		{
			name: "non-numeric score",
			reply: `{
				"gpt": {"truthfulness": "high", "creativity": 800, "coherence": 800, "utility": 800},
				"claude": {"truthfulness": 700, "creativity": 700, "coherence": 700, "utility": 700}
			}`,
			wantErr: "not numeric",
		},
		{
			name: "fractional score",
			reply: `{
				"gpt": {"truthfulness": 850.5, "creativity": 800, "coherence": 800, "utility": 800},
				"claude": {"truthfulness": 700, "creativity": 700, "coherence": 700, "utility": 700}
			}`,
			wantErr: "not an integer",
		},
		{
			name: "score above range",
			reply: `{
				"gpt": {"truthfulness": 1001, "creativity": 800, "coherence": 800, "utility": 800},
				"claude": {"truthfulness": 700, "creativity": 700, "coherence": 700, "utility": 700}
			}`,
			wantErr: "outside [0, 1000]",
		},
		{
			name: "negative score",
			reply: `{
				"gpt": {"truthfulness": -5, "creativity": 800, "coherence": 800, "utility": 800},
				"claude": {"truthfulness": 700, "creativity": 700, "coherence": 700, "utility": 700}
			}`,
			wantErr: "outside [0, 1000]",
		},
	}

	parser := NewResponseParser()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parser.Parse(tt.reply, expected)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				evalErr, ok := domain.AsEvalError(err)
				require.True(t, ok)
				assert.Equal(t, domain.KindMalformedResponse, evalErr.Kind)
				assert.Equal(t, tt.reply, evalErr.Raw, "malformed errors must keep the raw reply")
				return
			}

			require.NoError(t, err)
			require.Len(t, parsed.Scores, 2)
			assert.Equal(t, 862, parsed.Scores["gpt"][domain.MetricTruthfulness].Raw)
			assert.Equal(t, "accurate", parsed.Scores["gpt"][domain.MetricTruthfulness].Reason)
			assert.Equal(t, 500, parsed.Scores["claude"][domain.MetricUtility].Raw)
			assert.Equal(t, "gpt", parsed.Winner)
			assert.Equal(t, "more accurate and better organized", parsed.WinnerReason)
		})
	}
}

func TestResponseParserToolNameTolerance(t *testing.T) {
	parser := NewResponseParser()

	tests := []struct {
		name     string
		jsonKey  string
		expected string
		found    bool
	}{
		{name: "exact match", jsonKey: "ChatGPT", expected: "ChatGPT", found: true},
		{name: "case difference", jsonKey: "chatgpt", expected: "ChatGPT", found: true},
		{name: "one character slip", jsonKey: "chatgptt", expected: "chatgpt", found: true},
		{name: "too far off", jsonKey: "gemini", expected: "chatgpt", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := fmt.Sprintf(
				`{%q: {"truthfulness": 800, "creativity": 800, "coherence": 800, "utility": 800}}`,
				tt.jsonKey)

			parsed, err := parser.Parse(reply, []string{tt.expected})

			if !tt.found {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "no entry for tool")
				return
			}

			require.NoError(t, err)
			// Scores are keyed by the caller's name, not the judge's spelling.
			assert.Contains(t, parsed.Scores, tt.expected)
		})
	}
}

func TestResponseParserNearNamedTools(t *testing.T) {
	parser := NewResponseParser()

	t.Run("missing sibling does not inherit a near-named entry", func(t *testing.T) {
		reply := `{"gpt4": {"truthfulness": 800, "creativity": 800, "coherence": 800, "utility": 800}}`

		_, err := parser.Parse(reply, []string{"gpt4", "gpt5"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), `no entry for tool "gpt5"`)
		evalErr, ok := domain.AsEvalError(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindMalformedResponse, evalErr.Kind)
		assert.Equal(t, reply, evalErr.Raw)
	})

	t.Run("reserved keys never hold tool scores", func(t *testing.T) {
		reply := `{"winner": "winners", "winner_reason": "best overall"}`

		_, err := parser.Parse(reply, []string{"winners", "other"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), `no entry for tool "winners"`)
	})

	t.Run("each near-miss key serves exactly one tool", func(t *testing.T) {
		reply := `{
			"gpt-4": {"truthfulness": 900, "creativity": 900, "coherence": 900, "utility": 900},
			"gpt-5": {"truthfulness": 600, "creativity": 600, "coherence": 600, "utility": 600}
		}`

		parsed, err := parser.Parse(reply, []string{"gpt4", "gpt5"})

		require.NoError(t, err)
		assert.Equal(t, 900, parsed.Scores["gpt4"][domain.MetricTruthfulness].Raw)
		assert.Equal(t, 600, parsed.Scores["gpt5"][domain.MetricTruthfulness].Raw)
	})
}

func TestResponseParserNumericStringCoercion(t *testing.T) {
	parser := NewResponseParser()
	reply := `{
		"tool-a": {"truthfulness": "862", "creativity": " 700 ", "coherence": 910, "utility": "845"},
		"tool-b": {"truthfulness": 500, "creativity": 500, "coherence": 500, "utility": 500}
	}`

	parsed, err := parser.Parse(reply, []string{"tool-a", "tool-b"})
	require.NoError(t, err)

	assert.Equal(t, 862, parsed.Scores["tool-a"][domain.MetricTruthfulness].Raw)
	assert.Equal(t, 700, parsed.Scores["tool-a"][domain.MetricCreativity].Raw)
	assert.Equal(t, 845, parsed.Scores["tool-a"][domain.MetricUtility].Raw)
}

func TestResponseParserOptionalFields(t *testing.T) {
	parser := NewResponseParser()
	reply := `{
		"a": {"truthfulness": 800, "creativity": 800, "coherence": 800, "utility": 800},
		"b": {"truthfulness": 700, "creativity": 700, "coherence": 700, "utility": 700},
		"judge_answer": "My own take on the question."
	}`

	parsed, err := parser.Parse(reply, []string{"a", "b"})
	require.NoError(t, err)

	assert.Empty(t, parsed.Winner)
	assert.Empty(t, parsed.WinnerReason)
	assert.Equal(t, "My own take on the question.", parsed.JudgeAnswer)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "nested braces in string",
			input: `prefix {"text": "has { braces } inside"} suffix`,
			want:  `{"text": "has { braces } inside"}`,
		},
		{
			name:  "escaped quote in string",
			input: `{"text": "quote \" and brace }"}`,
			want:  `{"text": "quote \" and brace }"}`,
		},
		{
			name:  "unterminated object",
			input: `{"a": 1`,
			want:  "",
		},
		{
			name:  "no object",
			input: "just words",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.input))
		})
	}
}
