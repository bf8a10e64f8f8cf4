package judge

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/scrutinium/scrutinium/internal/domain"
)

// foldCaser is a package-level Unicode case folder used for tolerant
// tool-name matching against the judge's JSON keys.
var foldCaser = cases.Fold()

// maxNameDistance is the largest Levenshtein distance between a folded
// JSON key and a folded expected tool name still treated as the same
// tool. Distance 1 absorbs the single-character slips judges make
// without letting distinct tool names collide.
const maxNameDistance = 1

// RawMetricScore is one metric's verdict exactly as the judge returned
// it, before normalization.
type RawMetricScore struct {
	// Raw is the integer score on the 0-1000 scale.
	Raw int
	// Reason is the judge's justification, possibly empty.
	Reason string
}

// ParsedJudgeOutput is the validated structure extracted from the
// judge's reply. Scores are keyed by the caller's tool names, not the
// judge's spelling of them.
type ParsedJudgeOutput struct {
	// Scores maps each expected tool to its four raw metric scores.
	Scores map[string]map[domain.Metric]RawMetricScore
	// Winner is the tool the judge named best, possibly empty.
	Winner string
	// WinnerReason is the judge's explanation for the winner, possibly empty.
	WinnerReason string
	// JudgeAnswer is the judge's own answer, present only when requested.
	JudgeAnswer string
}

// ResponseParser extracts and validates the judge's structured JSON
// payload from raw reply text.
type ResponseParser struct{}

// NewResponseParser returns a ResponseParser.
func NewResponseParser() *ResponseParser { return &ResponseParser{} }

// Parse locates the first well-formed JSON object in the raw reply,
// tolerating markdown fences and surrounding prose, and validates that
// every expected tool has an integer in [0,1000] for all four metrics.
// Numeric strings are coerced; anything structurally missing, non-numeric,
// or out of range fails with a MalformedResponse error carrying the raw
// text. Unknown keys are ignored; a missing winner_reason or judge_answer
// is not an error.
func (rp *ResponseParser) Parse(rawText string, expectedTools []string) (*ParsedJudgeOutput, error) {
	jsonStr := extractJSON(rawText)
	if jsonStr == "" {
		return nil, domain.NewMalformedResponseError("no JSON object found in judge reply", rawText, nil)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, domain.NewMalformedResponseError("judge reply is not a JSON object", rawText, err)
	}

	out := &ParsedJudgeOutput{
		Scores: make(map[string]map[domain.Metric]RawMetricScore, len(expectedTools)),
	}

	// Optional top-level fields; absence is tolerated.
	out.Winner = decodeOptionalString(payload, "winner")
	out.WinnerReason = decodeOptionalString(payload, "winner_reason")
	out.JudgeAnswer = decodeOptionalString(payload, "judge_answer")

	entries, missing := rp.resolveToolEntries(payload, expectedTools)
	if missing != "" {
		return nil, domain.NewMalformedResponseError(
			fmt.Sprintf("judge reply has no entry for tool %q", missing), rawText, nil)
	}

	for _, tool := range expectedTools {
		entryRaw := entries[tool]

		var entry map[string]any
		if err := json.Unmarshal(entryRaw, &entry); err != nil {
			return nil, domain.NewMalformedResponseError(
				fmt.Sprintf("entry for tool %q is not an object", tool), rawText, err)
		}

		scores, err := rp.parseMetrics(tool, entry)
		if err != nil {
			if ee, ok := domain.AsEvalError(err); ok {
				ee.Raw = rawText
			}
			return nil, err
		}
		out.Scores[tool] = scores
	}

	return out, nil
}

// reservedKeys are top-level payload fields that can never hold a
// tool's scores.
var reservedKeys = map[string]struct{}{
	"winner":        {},
	"winner_reason": {},
	"judge_answer":  {},
}

// resolveToolEntries matches each expected tool to a payload key: exact
// match first, then Unicode case folding, then a small Levenshtein
// tolerance for near-miss spellings. Every payload key serves at most
// one tool, and the fuzzy pass never touches reserved keys or keys that
// name another expected tool, so a missing entry stays missing instead
// of aliasing onto a sibling's. Returns the first tool with no entry,
// or "" when all resolved.
func (rp *ResponseParser) resolveToolEntries(payload map[string]json.RawMessage, expectedTools []string) (map[string]json.RawMessage, string) {
	entries := make(map[string]json.RawMessage, len(expectedTools))
	claimed := make(map[string]struct{}, len(expectedTools))

	foldedTools := make(map[string]struct{}, len(expectedTools))
	for _, tool := range expectedTools {
		foldedTools[foldCaser.String(tool)] = struct{}{}
	}

	// Exact and fold matches claim their keys before any fuzzy matching.
	for _, tool := range expectedTools {
		if key, ok := exactOrFoldedKey(payload, tool, claimed); ok {
			entries[tool] = payload[key]
			claimed[key] = struct{}{}
		}
	}

	for _, tool := range expectedTools {
		if _, ok := entries[tool]; ok {
			continue
		}
		key, ok := fuzzyKey(payload, tool, claimed, foldedTools)
		if !ok {
			return nil, tool
		}
		entries[tool] = payload[key]
		claimed[key] = struct{}{}
	}

	return entries, ""
}

func exactOrFoldedKey(payload map[string]json.RawMessage, tool string, claimed map[string]struct{}) (string, bool) {
	if _, ok := payload[tool]; ok {
		if _, taken := claimed[tool]; !taken {
			return tool, true
		}
	}

	folded := foldCaser.String(tool)
	best := ""
	for key := range payload {
		if _, taken := claimed[key]; taken {
			continue
		}
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		if foldCaser.String(key) == folded && (best == "" || key < best) {
			best = key
		}
	}
	return best, best != ""
}

// fuzzyKey picks the unclaimed, non-reserved payload key closest to the
// tool name within maxNameDistance. Keys that fold to a different
// expected tool's name are off limits. Ties break on distance, then on
// the lexicographically smallest key, keeping the result independent of
// map iteration order.
func fuzzyKey(payload map[string]json.RawMessage, tool string, claimed map[string]struct{}, foldedTools map[string]struct{}) (string, bool) {
	folded := foldCaser.String(tool)
	best := ""
	bestDist := maxNameDistance + 1

	for key := range payload {
		if _, taken := claimed[key]; taken {
			continue
		}
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		foldedKey := foldCaser.String(key)
		if foldedKey != folded {
			if _, other := foldedTools[foldedKey]; other {
				continue
			}
		}
		dist := levenshtein.ComputeDistance(foldedKey, folded)
		if dist > maxNameDistance {
			continue
		}
		if dist < bestDist || (dist == bestDist && key < best) {
			best = key
			bestDist = dist
		}
	}

	return best, best != ""
}

func (rp *ResponseParser) parseMetrics(tool string, entry map[string]any) (map[domain.Metric]RawMetricScore, error) {
	scores := make(map[domain.Metric]RawMetricScore, len(domain.Metrics))

	for _, metric := range domain.Metrics {
		value, ok := entry[string(metric)]
		if !ok {
			return nil, domain.NewMalformedResponseError(
				fmt.Sprintf("tool %q is missing metric %q", tool, metric), "", nil)
		}

		raw, err := coerceScore(value)
		if err != nil {
			return nil, domain.NewMalformedResponseError(
				fmt.Sprintf("tool %q metric %q: %v", tool, metric, err), "", nil)
		}

		if raw < domain.RawScoreMin || raw > domain.RawScoreMax {
			return nil, domain.NewMalformedResponseError(
				fmt.Sprintf("tool %q metric %q score %d outside [%d, %d]",
					tool, metric, raw, domain.RawScoreMin, domain.RawScoreMax), "", nil)
		}

		reason, _ := entry[string(metric)+"_reason"].(string)
		scores[metric] = RawMetricScore{Raw: raw, Reason: reason}
	}

	return scores, nil
}

// coerceScore converts a decoded JSON value into an integer score.
// JSON numbers and numeric strings are accepted; fractional values are
// rejected because the scale is integral.
func coerceScore(value any) (int, error) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("score %v is not an integer", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("score %q is not numeric", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("score has unsupported type %T", value)
	}
}

func decodeOptionalString(payload map[string]json.RawMessage, key string) string {
	raw, ok := payload[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// extractJSON pulls a JSON object out of a reply that may wrap it in
// markdown code fences or surround it with prose. It prefers fenced
// blocks, then falls back to brace matching that respects strings and
// escape sequences.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.Contains(response, "```json") {
		start := strings.Index(response, "```json") + len("```json")
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	}

	if strings.Contains(response, "```") {
		start := strings.Index(response, "```") + 3
		// Skip a language identifier on the fence line.
		if nl := strings.Index(response[start:], "\n"); nl != -1 {
			candidateStart := start + nl + 1
			if end := strings.Index(response[candidateStart:], "```"); end != -1 {
				candidate := strings.TrimSpace(response[candidateStart : candidateStart+end])
				if strings.HasPrefix(candidate, "{") {
					return candidate
				}
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(response); i++ {
		char := response[i]

		if escapeNext {
			escapeNext = false
			continue
		}
		if char == '\\' {
			escapeNext = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return response[start : i+1]
				}
			}
		}
	}

	return ""
}
