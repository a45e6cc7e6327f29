package lambda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dwsmith1983/workflow-conclusion/internal/config"
	"github.com/dwsmith1983/workflow-conclusion/internal/engine"
	"github.com/dwsmith1983/workflow-conclusion/internal/github"
	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// ErrInvalidRequest is returned for payloads that cannot be evaluated.
var ErrInvalidRequest = errors.New("invalid conclusion request")

// HandleConclusion evaluates the run named by req and notifies the
// configured sinks.
func HandleConclusion(ctx context.Context, d *Deps, req ConclusionRequest) (ConclusionResponse, error) {
	if req.RunID <= 0 {
		return ConclusionResponse{}, fmt.Errorf("%w: runId must be positive", ErrInvalidRequest)
	}
	fallback, err := config.ParseFallback(req.FallbackConclusion)
	if err != nil {
		return ConclusionResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	opts := []github.Option{
		github.WithBaseURL(d.Settings.APIURL),
		github.WithFilter(d.Settings.JobFilter),
		github.WithPerPage(d.Settings.PerPage),
	}
	if d.Settings.RateLimitRPS != 0 {
		opts = append(opts, github.WithRateLimit(d.Settings.RateLimitRPS, 1))
	}
	if d.HTTPClient != nil {
		opts = append(opts, github.WithHTTPClient(d.HTTPClient))
	}
	client, err := github.New(req.Repository, d.Token, opts...)
	if err != nil {
		return ConclusionResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var lister github.Lister = client
	if d.Breaker != nil {
		lister = github.NewBreakerLister(client, d.Breaker)
	}

	result, err := engine.New(lister, d.Logger, engine.WithMetrics(d.Metrics)).Evaluate(ctx, engine.Request{
		Repository:               req.Repository,
		RunID:                    req.RunID,
		Fallback:                 fallback,
		Additional:               req.AdditionalConclusions,
		SuppressFallbackWarnings: req.SuppressFallbackWarnings,
	})
	if err != nil {
		return ConclusionResponse{}, err
	}

	if d.Dispatcher != nil && d.Dispatcher.Len() > 0 {
		d.Dispatcher.Dispatch(ctx, types.NewConclusionEvent(result, time.Now()))
	}

	return ConclusionResponse{
		InvocationID:       result.InvocationID,
		Conclusion:         result.Conclusion,
		JobOutcomes:        result.JobOutcomes,
		AdditionalOutcomes: result.AdditionalOutcomes,
		CollectError:       result.CollectError,
	}, nil
}
