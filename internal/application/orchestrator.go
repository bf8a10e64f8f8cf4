package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/scrutinium/scrutinium/infrastructure/judge"
	"github.com/scrutinium/scrutinium/infrastructure/llm"
	"github.com/scrutinium/scrutinium/internal/domain"
	"github.com/scrutinium/scrutinium/internal/ports"
)

// categorizationTimeout bounds the best-effort side call so a slow judge
// cannot hold a finished evaluation hostage.
const categorizationTimeout = 20 * time.Second

// ClientResolver resolves a judge client for one request. The concrete
// implementation is the provider registry; tests substitute a stub.
type ClientResolver interface {
	ClientFor(provider, credential string) (ports.LLMClient, error)
	DefaultProvider() string
}

// Orchestrator runs the full evaluation pipeline: validate the request,
// obtain a judge client, build the prompt, call the judge, parse and
// normalize its scores, rank the tools, and attach a best-effort topic
// category. All judge collaborators are stateless, so one Orchestrator
// serves concurrent evaluations.
type Orchestrator struct {
	clients    ClientResolver
	prompts    *judge.PromptBuilder
	parser     *judge.ResponseParser
	normalizer *judge.ScoreNormalizer
	ranker     *judge.RankingEngine
	store      ports.ResultStore
	metrics    ports.MetricsCollector
}

// NewOrchestrator builds an Orchestrator. The store and metrics
// collector are optional; nil disables persistence or collection.
func NewOrchestrator(
	clients ClientResolver,
	store ports.ResultStore,
	metrics ports.MetricsCollector,
) *Orchestrator {
	return &Orchestrator{
		clients:    clients,
		prompts:    judge.NewPromptBuilder(),
		parser:     judge.NewResponseParser(),
		normalizer: judge.NewScoreNormalizer(),
		ranker:     judge.NewRankingEngine(),
		store:      store,
		metrics:    metrics,
	}
}

// Evaluate runs one evaluation and returns the ranked result. Errors are
// always *domain.EvalError so callers can branch on the failure kind.
// The request's caller credential, when present, is used for this call
// only and never persisted.
func (o *Orchestrator) Evaluate(
	ctx context.Context, req domain.EvaluationRequest,
) (*domain.EvaluationResult, error) {
	provider := req.Judge
	if provider == "" {
		provider = o.clients.DefaultProvider()
	}

	result, err := o.evaluate(ctx, req, provider)
	o.recordOutcome(provider, err)
	return result, err
}

func (o *Orchestrator) evaluate(
	ctx context.Context, req domain.EvaluationRequest, provider string,
) (*domain.EvaluationResult, error) {
	log := clog.FromContext(ctx).With("provider", provider)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	client, err := o.clients.ClientFor(req.Judge, req.UserCredential)
	if err != nil {
		return nil, classifyResolveError(err)
	}

	prompt, err := o.prompts.BuildEvaluationPrompt(req.Question, req.Tools, req.ShowJudgeAnswer)
	if err != nil {
		return nil, domain.NewEvalError(domain.KindInvalidRequest,
			fmt.Sprintf("failed to build evaluation prompt: %v", err), err)
	}

	rawReply, err := client.Complete(ctx, prompt, map[string]any{
		"temperature": 0.0,
		"json_mode":   true,
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}

	parsed, err := o.parser.Parse(rawReply, req.ToolNames())
	if err != nil {
		log.Warn("judge reply failed to parse", "error", err)
		return nil, err
	}

	ranked := o.ranker.Rank(o.normalizer.BuildToolResults(parsed, req.ToolNames()))
	winner, winnerReason := o.ranker.Winner(ranked, parsed.WinnerReason)

	result := &domain.EvaluationResult{
		Question:     req.Question,
		Judge:        provider,
		Results:      ranked,
		Winner:       winner,
		WinnerReason: winnerReason,
		CreatedAt:    time.Now().UTC(),
	}
	if req.ShowJudgeAnswer {
		result.JudgeAnswer = parsed.JudgeAnswer
	}

	result.Category = o.categorize(ctx, client, req.Question)

	log.Info("evaluation complete",
		"winner", result.Winner,
		"tools", len(result.Results),
		"category", result.Category)
	return result, nil
}

// EvaluateAndStore runs an evaluation and persists the result, returning
// it with its assigned sequence id and share identifier. Persistence
// failures after a successful evaluation surface as unavailable errors.
func (o *Orchestrator) EvaluateAndStore(
	ctx context.Context, req domain.EvaluationRequest,
) (ports.StoredResult, error) {
	result, err := o.Evaluate(ctx, req)
	if err != nil {
		return ports.StoredResult{}, err
	}
	if o.store == nil {
		return ports.StoredResult{EvaluationResult: *result}, nil
	}

	stored, err := o.store.Save(ctx, *result)
	if err != nil {
		return ports.StoredResult{}, domain.NewEvalError(domain.KindUnavailable,
			fmt.Sprintf("failed to persist result: %v", err), err)
	}
	return stored, nil
}

// categorize runs the best-effort topic classification. Any failure is
// logged and absorbed: a lost category never fails an evaluation.
func (o *Orchestrator) categorize(
	ctx context.Context, client ports.LLMClient, question string,
) string {
	catCtx, cancel := context.WithTimeout(ctx, categorizationTimeout)
	defer cancel()

	category, err := judge.NewCategorizer(client, o.prompts).Categorize(catCtx, question)
	if err != nil {
		clog.FromContext(ctx).Warn("question categorization failed", "error", err)
		return ""
	}
	return category
}

func (o *Orchestrator) recordOutcome(provider string, err error) {
	if o.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
		if evalErr, ok := domain.AsEvalError(err); ok {
			status = string(evalErr.Kind)
		}
	}
	o.metrics.RecordCounter("evaluations_total", 1, map[string]string{
		"provider": provider,
		"status":   status,
	})
}

// classifyResolveError maps registry failures onto the error taxonomy:
// an unknown provider is the caller's mistake, a missing credential is
// an authorization problem.
func classifyResolveError(err error) *domain.EvalError {
	switch {
	case errors.Is(err, llm.ErrUnknownProvider):
		return domain.NewEvalError(domain.KindInvalidRequest, err.Error(), err)
	case errors.Is(err, llm.ErrNoCredential):
		return domain.NewEvalError(domain.KindAuthRejected, err.Error(), err)
	default:
		return domain.NewEvalError(domain.KindUnavailable, err.Error(), err)
	}
}

// classifyProviderError maps transport-level failures onto the error
// taxonomy via the provider error classification.
func classifyProviderError(err error) *domain.EvalError {
	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		return domain.NewEvalError(provErr.Kind(), provErr.Message, err)
	}
	return domain.NewEvalError(domain.KindUnavailable,
		fmt.Sprintf("judge request failed: %v", err), err)
}
