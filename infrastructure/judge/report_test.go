package judge

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrutinium/scrutinium/internal/domain"
)

func sampleResult() *domain.EvaluationResult {
	metrics := func(tr, cr, co, ut int) map[domain.Metric]domain.MetricScore {
		normalizer := NewScoreNormalizer()
		return map[domain.Metric]domain.MetricScore{
			domain.MetricTruthfulness: {Raw: tr, Score: normalizer.Normalize(tr)},
			domain.MetricCreativity:   {Raw: cr, Score: normalizer.Normalize(cr)},
			domain.MetricCoherence:    {Raw: co, Score: normalizer.Normalize(co)},
			domain.MetricUtility:      {Raw: ut, Score: normalizer.Normalize(ut)},
		}
	}

	return &domain.EvaluationResult{
		Question: "q",
		Judge:    "gemini",
		Results: []domain.ToolResult{
			{Tool: "gpt", Metrics: metrics(862, 700, 910, 845), Overall: 8.293, Rank: 1},
			{Tool: "claude", Metrics: metrics(540, 620, 580, 500), Overall: 5.6, Rank: 2},
		},
		Winner:       "gpt",
		WinnerReason: "more accurate",
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReportWriter().WriteCSV(&buf, sampleResult()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"Rank", "Tool", "Truthfulness", "Creativity", "Coherence", "Utility", "Overall",
	}, records[0])
	assert.Equal(t, []string{"1", "gpt", "8.620", "7.000", "9.100", "8.450", "8.293"}, records[1])
	assert.Equal(t, []string{"2", "claude", "5.400", "6.200", "5.800", "5.000", "5.600"}, records[2])
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReportWriter().WriteTable(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "gpt")
	assert.Contains(t, out, "8.620")
	assert.Contains(t, out, "5.600")
	assert.Contains(t, out, "Winner: gpt (more accurate)")
}
