package judge

import (
	"sort"

	"github.com/scrutinium/scrutinium/internal/domain"
)

// NeutralWinnerReason is used when the judge did not explain its winner
// choice.
const NeutralWinnerReason = "Highest overall score"

// RankingEngine orders tool results by overall score and determines the
// winner. The sort is stable: tools with exactly equal overall scores at
// three-decimal precision keep their input order, so ranking is
// deterministic.
type RankingEngine struct{}

// NewRankingEngine returns a RankingEngine.
func NewRankingEngine() *RankingEngine { return &RankingEngine{} }

// Rank sorts results by overall score descending, ties broken by input
// order, and assigns ranks starting at 1. The input slice is not
// modified. All-zero scores still produce a valid ranking with the first
// input tool at rank 1.
func (re *RankingEngine) Rank(results []domain.ToolResult) []domain.ToolResult {
	ranked := make([]domain.ToolResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Overall > ranked[j].Overall
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}

// Winner returns the rank-1 tool name and the explanation to display.
// The judge's winner_reason is used when present; otherwise a neutral
// statement. The judge's own winner pick is advisory only: the computed
// ranking decides.
func (re *RankingEngine) Winner(ranked []domain.ToolResult, judgeReason string) (string, string) {
	if len(ranked) == 0 {
		return "", ""
	}

	reason := judgeReason
	if reason == "" {
		reason = NeutralWinnerReason
	}

	return ranked[0].Tool, reason
}
