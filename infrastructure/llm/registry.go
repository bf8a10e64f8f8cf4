package llm

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/scrutinium/scrutinium/internal/ports"
)

// Registry manages the judge provider clients. Process-default clients
// (built from environment credentials) are created lazily and cached;
// clients built around a caller-supplied credential are one-shot and
// never enter the cache.
type Registry struct {
	providers         map[string]ProviderConfig
	clients           map[string]ports.LLMClient
	defaultProvider   string
	defaultTimeout    time.Duration
	defaultMiddleware func(provider string) []Middleware
	mu                sync.RWMutex
}

// ProviderConfig holds per-provider settings, overriding registry
// defaults where set.
type ProviderConfig struct {
	// Type names the provider factory (gemini, anthropic, groq, ollama).
	Type string
	// EnvVars lists environment variables consulted in order for the
	// process-default credential.
	EnvVars []string
	// DefaultModel is used when a request does not name a model.
	DefaultModel string
	// BaseURL overrides the provider's default endpoint.
	BaseURL string
	// CredentialOptional marks providers that work without an API key,
	// such as the local runtime.
	CredentialOptional bool
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Providers defines the available judge backends.
	Providers map[string]ProviderConfig
	// DefaultProvider is used when a request names no judge. Empty falls
	// back to "gemini".
	DefaultProvider string
	// DefaultTimeout bounds every provider request.
	DefaultTimeout time.Duration
	// DefaultMiddleware, when set, supplies the middleware chain for each
	// provider's clients.
	DefaultMiddleware func(provider string) []Middleware
}

// FallbackProvider is the judge used when neither the request nor the
// registry configuration names one.
const FallbackProvider = "gemini"

var (
	// ErrUnknownProvider is returned when a request names a provider the
	// registry does not know.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNoCredential is returned when no process-default credential can
	// be resolved for a provider that requires one.
	ErrNoCredential = errors.New("no credential available")
)

// DefaultProviders enumerates the supported judge backends with their
// credential sources.
var DefaultProviders = map[string]ProviderConfig{
	"gemini": {
		Type:         "gemini",
		EnvVars:      []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
		DefaultModel: GeminiDefaultModel,
	},
	"anthropic": {
		Type:         "anthropic",
		EnvVars:      []string{"ANTHROPIC_API_KEY"},
		DefaultModel: AnthropicDefaultModel,
	},
	"groq": {
		Type:         "groq",
		EnvVars:      []string{"GROQ_API_KEY"},
		DefaultModel: GroqDefaultModel,
	},
	"ollama": {
		Type:               "ollama",
		EnvVars:            nil,
		DefaultModel:       OllamaDefaultModel,
		CredentialOptional: true,
	},
}

// NewRegistry builds a Registry. An unknown default provider is rejected
// so misconfiguration fails at startup rather than per request.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	providers := config.Providers
	if providers == nil {
		providers = DefaultProviders
	}

	defaultProvider := config.DefaultProvider
	if defaultProvider == "" {
		defaultProvider = FallbackProvider
	}
	if _, ok := providers[defaultProvider]; !ok {
		return nil, fmt.Errorf("default provider %q not found in providers configuration", defaultProvider)
	}

	return &Registry{
		providers:         providers,
		clients:           make(map[string]ports.LLMClient),
		defaultProvider:   defaultProvider,
		defaultTimeout:    config.DefaultTimeout,
		defaultMiddleware: config.DefaultMiddleware,
	}, nil
}

// DefaultProvider returns the provider used when a request names none.
func (r *Registry) DefaultProvider() string { return r.defaultProvider }

// Providers returns the configured provider names.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// ClientFor resolves the client for one request. Selection precedence:
// the explicit provider name wins, then the registry default. When
// credential is non-empty a one-shot client is built around it and
// discarded by the caller; it never enters the cache.
func (r *Registry) ClientFor(provider, credential string) (ports.LLMClient, error) {
	if provider == "" {
		provider = r.defaultProvider
	}

	providerConfig, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	if credential != "" {
		return r.buildClient(provider, providerConfig, credential)
	}

	r.mu.RLock()
	if client, exists := r.clients[provider]; exists {
		r.mu.RUnlock()
		return client, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if client, exists := r.clients[provider]; exists {
		return client, nil
	}

	apiKey, err := r.resolveCredential(providerConfig)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", provider, err)
	}

	client, err := r.buildClient(provider, providerConfig, apiKey)
	if err != nil {
		return nil, err
	}

	r.clients[provider] = client
	return client, nil
}

func (r *Registry) resolveCredential(config ProviderConfig) (string, error) {
	for _, envVar := range config.EnvVars {
		if key := os.Getenv(envVar); key != "" {
			return key, nil
		}
	}
	if config.CredentialOptional {
		return "", nil
	}
	return "", fmt.Errorf("%w: checked %v", ErrNoCredential, config.EnvVars)
}

func (r *Registry) buildClient(provider string, config ProviderConfig, apiKey string) (ports.LLMClient, error) {
	clientConfig := ClientConfig{
		APIKey:  apiKey,
		Model:   config.DefaultModel,
		BaseURL: config.BaseURL,
		Timeout: r.defaultTimeout,
	}
	if r.defaultMiddleware != nil {
		clientConfig.Middleware = r.defaultMiddleware(provider)
	}

	client, err := NewClient(config.Type, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %q: %w", provider, err)
	}
	return client, nil
}
