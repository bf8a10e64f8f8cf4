package llm

import (
	"context"
	"errors"
	"time"

	"github.com/scrutinium/scrutinium/internal/ports"
)

// metricsLLM records latency and outcome counters for every provider
// call, labeled by provider, model, and failure classification.
type metricsLLM struct {
	next      CoreLLM
	provider  string
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports request metrics to
// the given collector. A nil collector disables collection.
func MetricsMiddleware(provider string, collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{next: next, provider: provider, collector: collector}
	}
}

// DoRequest executes the request while recording latency and outcome.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	start := time.Now()
	response, err := m.next.DoRequest(ctx, prompt, opts)

	if m.collector != nil {
		labels := map[string]string{
			"provider": m.provider,
			"model":    m.next.GetModel(),
			"status":   statusLabel(err),
		}
		m.collector.RecordLatency("judge_request", time.Since(start), labels)
		m.collector.RecordCounter("judge_requests_total", 1, labels)
	}

	return response, err
}

func statusLabel(err error) string {
	if err == nil {
		return "success"
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		if s := pe.typeString(); s != "" {
			return s
		}
	}
	return "error"
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }
