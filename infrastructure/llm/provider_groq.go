package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Groq provider constants. Groq exposes an OpenAI-compatible API and is
// the free but aggressively rate-limited judge backend.
const (
	GroqDefaultModel = "llama-3.3-70b-versatile"
	GroqBaseURL      = "https://api.groq.com/openai/v1"
)

func init() {
	RegisterProviderFactory("groq", newGroqProvider)
}

func newGroqProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GroqDefaultModel
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = GroqBaseURL
	}

	return newOpenAICompatProvider("groq", config.APIKey, baseURL, model, config)
}

// openAICompatProvider implements CoreLLM for backends speaking the
// OpenAI chat-completion wire format (Groq, Ollama).
type openAICompatProvider struct {
	client          *openai.Client
	provider        string
	model           string
	errorClassifier *ErrorClassifier
}

func newOpenAICompatProvider(provider, apiKey, baseURL, model string, config ClientConfig) (CoreLLM, error) {
	clientConfig := openai.DefaultConfig(apiKey)

	validated, err := ValidateBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	clientConfig.BaseURL = validated

	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: ValidateTimeout(config.Timeout)}
	}

	return &openAICompatProvider{
		client:          openai.NewClientWithConfig(clientConfig),
		provider:        provider,
		model:           model,
		errorClassifier: &ErrorClassifier{Provider: provider},
	}, nil
}

// DoRequest sends a chat-completion request and returns the reply text.
func (p *openAICompatProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	options := ParseRequestOptions(opts, p.model)

	req := openai.ChatCompletionRequest{
		Model:     options.Model,
		Messages:  p.buildMessages(prompt, options),
		MaxTokens: options.MaxTokens,
	}
	if options.Temperature != nil {
		req.Temperature = float32(clampFloat64(*options.Temperature, 0.0, 2.0))
	}
	if options.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", p.handleError(err)
	}

	if len(resp.Choices) == 0 {
		return "", NewProviderError(p.provider, ErrorTypeServerError, 0, "no choices", ErrNoResponseChoice)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", NewProviderError(p.provider, ErrorTypeServerError, 0, "empty response", ErrEmptyResponse)
	}

	return content, nil
}

// GetModel returns the configured model name.
func (p *openAICompatProvider) GetModel() string { return p.model }

func (p *openAICompatProvider) buildMessages(prompt string, options RequestOptions) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2)

	if options.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: options.System,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	return messages
}

func (p *openAICompatProvider) handleError(err error) error {
	if IsContextError(err) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "unknown error"
		}
		return p.errorClassifier.ClassifyHTTPError(apiErr.HTTPStatusCode, message, err)
	}

	// go-openai wraps transport-level failures without an APIError.
	return NewProviderError(p.provider, ErrorTypeNetwork, 0, "request failed", err)
}
