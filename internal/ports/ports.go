// Package ports declares the interfaces through which the evaluation core
// talks to the outside world: LLM providers, result storage, and metrics.
// Implementations live under infrastructure/.
package ports

import (
	"context"
	"time"

	"github.com/scrutinium/scrutinium/internal/domain"
)

// LLMClient is the capability the judge pipeline needs from a provider:
// turn a prompt into raw text. Implementations handle authentication,
// request formatting, retries, and timeouts; failures surface as
// classified provider errors.
type LLMClient interface {
	// Complete sends a prompt to the provider and returns the raw reply.
	// The options map carries provider-tunable settings such as
	// "temperature" (float64), "max_tokens" (int), and "model" (string).
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// GetModel returns the model identifier this client is configured
	// with, for logging and diagnostics.
	GetModel() string
}

// StoredResult is an EvaluationResult as persisted: the storage layer
// attaches a sequence id and a public share identifier. The core produces
// the embedded result and never depends on the added fields.
type StoredResult struct {
	// SCID is the auto-incrementing sequence id assigned on insert.
	SCID uint `json:"scid"`

	// ShareID is the generated public sharing identifier.
	ShareID string `json:"share_id"`

	domain.EvaluationResult
}

// ResultStore persists evaluation results. Implementations assign the
// SCID and share identifier; callers treat both as opaque.
type ResultStore interface {
	// Save persists a result and returns it with SCID and ShareID set.
	Save(ctx context.Context, result domain.EvaluationResult) (StoredResult, error)

	// Get retrieves a result by its SCID.
	Get(ctx context.Context, scid uint) (StoredResult, error)

	// GetByShareID retrieves a result by its public share identifier.
	GetByShareID(ctx context.Context, shareID string) (StoredResult, error)

	// List returns all stored results, newest first.
	List(ctx context.Context) ([]StoredResult, error)

	// Delete removes a result by its SCID.
	Delete(ctx context.Context, scid uint) error
}

// MetricsCollector records operational metrics for evaluations and
// provider calls. Implementations integrate with Prometheus or another
// monitoring backend; a nil collector disables collection.
type MetricsCollector interface {
	// RecordLatency records the duration of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)
}
