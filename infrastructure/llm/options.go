package llm

import (
	"fmt"
	"net/url"
	"time"
)

// Bounds shared by all providers when validating request parameters.
const (
	// MinTemperature is the lowest accepted sampling temperature.
	MinTemperature = 0.0
	// MaxTemperature is the highest accepted sampling temperature.
	// Set to 2.0 to accommodate Gemini's extended range.
	MaxTemperature = 2.0
	// DefaultMaxTokens bounds reply length when the caller does not.
	DefaultMaxTokens = 4000
	// MinTimeout is the shortest honored request timeout.
	MinTimeout = 1 * time.Second
	// MaxTimeout is the longest honored request timeout.
	MaxTimeout = 10 * time.Minute
)

// RequestOptions is the standardized set of per-request parameters shared
// by all providers.
type RequestOptions struct {
	// MaxTokens caps the number of tokens the judge may generate.
	MaxTokens int
	// Model overrides the client's configured model for this request.
	Model string
	// Temperature controls sampling randomness. Nil uses the provider default.
	Temperature *float64
	// System carries an optional system prompt.
	System string
	// JSONMode asks the provider for a JSON-object response format when
	// the backend supports it.
	JSONMode bool
}

// ParseRequestOptions extracts standardized parameters from a generic
// options map, falling back to defaults for missing or invalid entries.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: extractOptionalInt(opts, "max_tokens", DefaultMaxTokens, isPositiveInt),
		Model:     extractOptionalString(opts, "model", defaultModel, isNonEmptyString),
		System:    extractOptionalString(opts, "system", "", nil),
	}

	if temp := extractOptionalFloat64(opts, "temperature", -1, isValidTemperature); temp != -1 {
		options.Temperature = &temp
	}

	if opts != nil {
		if jm, ok := opts["json_mode"].(bool); ok {
			options.JSONMode = jm
		}
	}

	return options
}

func extractOptionalInt(opts map[string]any, key string, defaultVal int, valid func(int) bool) int {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key].(int)
	if !ok || (valid != nil && !valid(val)) {
		return defaultVal
	}
	return val
}

func extractOptionalString(opts map[string]any, key string, defaultVal string, valid func(string) bool) string {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key].(string)
	if !ok || (valid != nil && !valid(val)) {
		return defaultVal
	}
	return val
}

func extractOptionalFloat64(opts map[string]any, key string, defaultVal float64, valid func(float64) bool) float64 {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key].(float64)
	if !ok || (valid != nil && !valid(val)) {
		return defaultVal
	}
	return val
}

func isPositiveInt(val int) bool { return val > 0 }

func isNonEmptyString(val string) bool { return val != "" }

func isValidTemperature(val float64) bool {
	return val >= MinTemperature && val <= MaxTemperature
}

// ValidateBaseURL normalizes a base URL override. Empty is valid and
// means the provider default endpoint.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}

	return parsed.String(), nil
}

// ValidateTimeout clamps a request timeout to the honored range.
// Zero or negative means no client-side bound.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

// clampFloat64 restricts a value to the given range.
func clampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
