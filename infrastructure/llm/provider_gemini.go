package llm

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiDefaultModel is the default model for the Gemini provider, the
// primary free-tier judge backend.
const GeminiDefaultModel = "gemini-2.5-flash"

func init() {
	RegisterProviderFactory("gemini", newGeminiProvider)
}

// geminiProvider implements CoreLLM for Google's Gemini API. Gemini is
// the fallback judge when neither the request nor the environment names
// a provider.
type geminiProvider struct {
	client          *genai.Client
	model           string
	errorClassifier *ErrorClassifier
}

func newGeminiProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GeminiDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiProvider{
		client:          client,
		model:           model,
		errorClassifier: &ErrorClassifier{Provider: "gemini"},
	}, nil
}

// DoRequest sends a prompt to the Gemini API and returns the reply text.
func (p *geminiProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	options := ParseRequestOptions(opts, p.model)

	contents := p.buildContents(prompt, options)
	config := p.buildGenerationConfig(options)

	resp, err := p.client.Models.GenerateContent(ctx, options.Model, contents, config)
	if err != nil {
		return "", p.handleError(err)
	}

	content := resp.Text()
	if content == "" {
		return "", NewProviderError("gemini", ErrorTypeServerError, 0, "empty response", ErrEmptyResponse)
	}

	return content, nil
}

// GetModel returns the configured Gemini model name.
func (p *geminiProvider) GetModel() string { return p.model }

// buildContents folds an optional system prompt into the user prompt,
// since the Gemini API has no separate system role on this path.
func (p *geminiProvider) buildContents(prompt string, options RequestOptions) []*genai.Content {
	finalPrompt := prompt
	if options.System != "" {
		finalPrompt = fmt.Sprintf("System: %s\n\nUser: %s", options.System, prompt)
	}

	return []*genai.Content{
		genai.NewContentFromText(finalPrompt, genai.RoleUser),
	}
}

func (p *geminiProvider) buildGenerationConfig(options RequestOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if options.Temperature != nil {
		temp := clampFloat64(*options.Temperature, 0.0, 2.0)
		config.Temperature = genai.Ptr(float32(temp))
	}

	if options.MaxTokens > 0 {
		if options.MaxTokens > math.MaxInt32 {
			config.MaxOutputTokens = math.MaxInt32
		} else {
			config.MaxOutputTokens = int32(options.MaxTokens)
		}
	}

	if options.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	return config
}

func (p *geminiProvider) handleError(err error) error {
	if IsContextError(err) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	if apiErr, ok := err.(*googleapi.Error); ok {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}
		return p.errorClassifier.ClassifyHTTPError(apiErr.Code, message, err)
	}

	return NewProviderError("gemini", ErrorTypeUnknown, 0, "request failed", err)
}
