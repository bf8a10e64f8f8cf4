// Package main runs the Scrutinium evaluation service: an HTTP API that
// benchmarks competing LLM tool answers with an LLM judge.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/time/rate"

	"github.com/scrutinium/scrutinium/infrastructure/llm"
	"github.com/scrutinium/scrutinium/infrastructure/metrics"
	"github.com/scrutinium/scrutinium/infrastructure/storage"
	"github.com/scrutinium/scrutinium/internal/application"
	"github.com/scrutinium/scrutinium/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := application.LoadConfig(ctx)
	if err != nil {
		clog.FatalContextf(ctx, "loading config: %v", err)
	}

	overrides, err := cfg.LoadProviderOverrides()
	if err != nil {
		clog.FatalContextf(ctx, "loading provider overrides: %v", err)
	}

	providers := make(map[string]llm.ProviderConfig, len(llm.DefaultProviders))
	for name, providerConfig := range llm.DefaultProviders {
		if override, ok := overrides[name]; ok {
			if override.Model != "" {
				providerConfig.DefaultModel = override.Model
			}
			if override.BaseURL != "" {
				providerConfig.BaseURL = override.BaseURL
			}
		}
		providers[name] = providerConfig
	}

	collector := metrics.NewPrometheusMetrics()

	registry, err := llm.NewRegistry(llm.RegistryConfig{
		Providers:       providers,
		DefaultProvider: cfg.DefaultProvider,
		DefaultTimeout:  cfg.RequestTimeout,
		DefaultMiddleware: func(provider string) []llm.Middleware {
			chain := []llm.Middleware{
				llm.TracingMiddleware(provider),
				llm.MetricsMiddleware(provider, collector),
				llm.RetryMiddleware(cfg.MaxRetries, 500*time.Millisecond, 10*time.Second),
			}
			if cfg.RateLimit > 0 {
				chain = append(chain, llm.RateLimitMiddleware(rate.Limit(cfg.RateLimit), 1))
			}
			return chain
		},
	})
	if err != nil {
		clog.FatalContextf(ctx, "building provider registry: %v", err)
	}

	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		clog.FatalContextf(ctx, "opening result store: %v", err)
	}

	orchestrator := application.NewOrchestrator(registry, store, collector)

	clog.InfoContextf(ctx, "starting scrutinium on port %d (default judge: %s)",
		cfg.Port, cfg.DefaultProvider)
	srv := server.New(orchestrator, store, cfg.Port).
		WithShowJudgeAnswerDefault(cfg.ShowJudgeAnswerDefault)
	if err := srv.Run(ctx); err != nil {
		clog.FatalContextf(ctx, "server exited: %v", err)
	}
}
