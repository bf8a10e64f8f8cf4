package llm

import "time"

// Ollama provider constants. The local runtime needs no network
// credential and answers on the OpenAI-compatible endpoint it exposes.
const (
	OllamaDefaultModel = "llama3.1"
	OllamaBaseURL      = "http://localhost:11434/v1"

	// ollamaDefaultTimeout is longer than the hosted defaults because
	// local inference routinely takes minutes on modest hardware.
	ollamaDefaultTimeout = 120 * time.Second
)

func init() {
	RegisterProviderFactory("ollama", newOllamaProvider)
}

func newOllamaProvider(config ClientConfig) (CoreLLM, error) {
	model := config.Model
	if model == "" {
		model = OllamaDefaultModel
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = OllamaBaseURL
	}

	if config.Timeout <= 0 {
		config.Timeout = ollamaDefaultTimeout
	}

	// Ollama ignores the bearer token but the client requires one.
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = "ollama"
	}

	return newOpenAICompatProvider("ollama", apiKey, baseURL, model, config)
}
