package judge

import (
	"math"

	"github.com/scrutinium/scrutinium/internal/domain"
)

// ScoreNormalizer converts the judge's 0-1000 integer scores to the 0-10
// display scale. It is pure: identical input always yields identical
// output.
//
// Round-half-to-even at three decimals is the single rounding rule used
// everywhere scores are derived, displayed, or stored.
type ScoreNormalizer struct{}

// NewScoreNormalizer returns a ScoreNormalizer.
func NewScoreNormalizer() *ScoreNormalizer { return &ScoreNormalizer{} }

// Normalize derives the 0-10 score from a raw 0-1000 integer.
func (sn *ScoreNormalizer) Normalize(raw int) float64 {
	return roundHalfEven3(float64(raw) / 100.0)
}

// BuildToolResults turns parsed raw scores into ToolResults in request
// order, with every metric normalized and the overall score computed as
// the mean of the four derived values. Ranks are not assigned here; that
// is the RankingEngine's job.
func (sn *ScoreNormalizer) BuildToolResults(parsed *ParsedJudgeOutput, toolOrder []string) []domain.ToolResult {
	results := make([]domain.ToolResult, 0, len(toolOrder))

	for _, tool := range toolOrder {
		rawScores := parsed.Scores[tool]
		metrics := make(map[domain.Metric]domain.MetricScore, len(domain.Metrics))

		var sum float64
		for _, metric := range domain.Metrics {
			raw := rawScores[metric]
			score := sn.Normalize(raw.Raw)
			metrics[metric] = domain.MetricScore{
				Raw:    raw.Raw,
				Score:  score,
				Reason: raw.Reason,
			}
			sum += score
		}

		results = append(results, domain.ToolResult{
			Tool:    tool,
			Metrics: metrics,
			Overall: roundHalfEven3(sum / float64(len(domain.Metrics))),
		})
	}

	return results
}

// roundHalfEven3 rounds to three decimal places using banker's rounding.
func roundHalfEven3(v float64) float64 {
	return math.RoundToEven(v*1000) / 1000
}
