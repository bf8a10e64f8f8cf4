package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/scrutinium/scrutinium/internal/ports"
)

// CoreLLM is the minimal contract a provider must implement. The
// middleware chain wraps any conforming implementation, so providers only
// translate prompts into upstream calls and classify failures.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the raw reply.
	// The opts map carries tunables such as temperature, max_tokens, or a
	// model override. Failures are returned as *ProviderError.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Middleware wraps a CoreLLM to add cross-cutting behavior such as
// timeouts, retries, rate limiting, metrics, or tracing without touching
// provider logic.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds everything needed to construct a provider client.
type ClientConfig struct {
	// APIKey authenticates requests. The local runtime accepts an empty key.
	APIKey string

	// Model selects the provider model. Empty means the provider default.
	Model string

	// BaseURL overrides the provider's default endpoint. Required for the
	// local runtime, optional elsewhere.
	BaseURL string

	// Timeout bounds each request. Zero means no client-side bound.
	Timeout time.Duration

	// Middleware is applied outermost-first around the provider core.
	Middleware []Middleware
}

// Client adapts a middleware-wrapped CoreLLM to the ports.LLMClient
// interface consumed by the judge pipeline.
type Client struct {
	core CoreLLM
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient builds a client for the named provider type, assembling the
// middleware chain around the provider core. A configured Timeout is
// installed as the innermost timeout middleware so every request is
// bounded regardless of caller-supplied middleware.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", providerType, err)
	}

	if config.Timeout > 0 {
		core = TimeoutMiddleware(ValidateTimeout(config.Timeout))(core)
	}

	// Apply middleware in reverse order so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core}, nil
}

// Complete sends a prompt through the middleware chain to the provider
// and returns the raw response text.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// GetModel returns the model name of the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// ProviderFactory creates a provider core from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

// providerFactories maps provider type names to their factories.
// Providers self-register from their init functions.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider factory under a type name.
// Later registrations replace earlier ones, which lets tests install
// stub providers.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
