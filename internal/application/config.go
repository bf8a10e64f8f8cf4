// Package application wires the evaluation pipeline together: it loads
// configuration, resolves judge clients, and orchestrates a full
// evaluation run from request to ranked, persisted result.
package application

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration for the evaluation service.
// Values come from the environment; an optional YAML file supplies
// per-provider overrides.
type Config struct {
	// Port is the HTTP listen port for the API server.
	Port int `env:"PORT,default=8080" validate:"min=1,max=65535"`

	// DatabasePath locates the SQLite results database. ":memory:"
	// keeps results for the lifetime of the process only.
	DatabasePath string `env:"DATABASE_PATH,default=scrutinium.db" validate:"required"`

	// DefaultProvider is the judge used when a request names none.
	DefaultProvider string `env:"DEFAULT_PROVIDER,default=gemini" validate:"required,oneof=gemini anthropic groq ollama"`

	// RequestTimeout bounds each judge model request.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=90s" validate:"min=1s,max=10m"`

	// MaxRetries is the retry budget for transient provider failures.
	MaxRetries int `env:"MAX_RETRIES,default=2" validate:"min=0,max=10"`

	// RateLimit caps judge requests per second per provider. Zero
	// disables rate limiting.
	RateLimit float64 `env:"RATE_LIMIT,default=0" validate:"min=0"`

	// ShowJudgeAnswerDefault controls whether the judge writes its own
	// answer when a request does not say.
	ShowJudgeAnswerDefault bool `env:"SHOW_JUDGE_ANSWER_DEFAULT,default=false"`

	// ProvidersFile optionally points at a YAML file of provider
	// overrides (models, endpoints).
	ProvidersFile string `env:"PROVIDERS_FILE"`
}

// ProviderOverride adjusts a single provider's defaults from the
// providers file.
type ProviderOverride struct {
	// Model replaces the provider's default model.
	Model string `yaml:"model" validate:"omitempty,min=1,max=255"`
	// BaseURL replaces the provider's default endpoint.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
}

// ProvidersFileConfig is the schema of the optional providers file,
// keyed by provider name.
type ProvidersFileConfig struct {
	Providers map[string]ProviderOverride `yaml:"providers" validate:"dive"`
}

// LoadConfig reads configuration from the environment and validates it.
func LoadConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process environment configuration: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadProviderOverrides parses the providers file named by the config.
// A missing path returns an empty map.
func (c *Config) LoadProviderOverrides() (map[string]ProviderOverride, error) {
	if c.ProvidersFile == "" {
		return map[string]ProviderOverride{}, nil
	}

	data, err := os.ReadFile(c.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("read providers file %q: %w", c.ProvidersFile, err)
	}

	var fileConfig ProvidersFileConfig
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parse providers file %q: %w", c.ProvidersFile, err)
	}
	if err := validator.New().Struct(&fileConfig); err != nil {
		return nil, fmt.Errorf("invalid providers file %q: %w", c.ProvidersFile, err)
	}

	if fileConfig.Providers == nil {
		return map[string]ProviderOverride{}, nil
	}
	return fileConfig.Providers, nil
}
