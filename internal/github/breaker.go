package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gh "github.com/google/go-github/v66/github"
	"github.com/sony/gobreaker"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// Breaker defaults.
const (
	breakerFailThreshold = 5
	breakerCooldown      = 30 * time.Second
	breakerFailWindow    = 60 * time.Second
)

// Lister lists the jobs of a workflow run.
type Lister interface {
	ListJobs(ctx context.Context, runID int64) ([]types.Job, error)
}

// NewBreaker creates a circuit breaker for job listing. It opens after five
// consecutive server-side failures and probes again after 30s. Client errors
// (4xx) and cancelled contexts do not count as failures.
func NewBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: breakerFailWindow,
		Timeout:  breakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= breakerFailThreshold
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("github circuit breaker changed state",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var resp *gh.ErrorResponse
	if errors.As(err, &resp) && resp.Response != nil {
		code := resp.Response.StatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests
	}
	return false
}

// BreakerLister guards a Lister with a circuit breaker. While the breaker is
// open, ListJobs fails fast without calling the API.
type BreakerLister struct {
	next Lister
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerLister wraps next with cb.
func NewBreakerLister(next Lister, cb *gobreaker.CircuitBreaker) *BreakerLister {
	return &BreakerLister{next: next, cb: cb}
}

// ListJobs delegates to the wrapped Lister through the breaker.
func (b *BreakerLister) ListJobs(ctx context.Context, runID int64) ([]types.Job, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.ListJobs(ctx, runID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("github jobs: %s: %w", b.cb.Name(), err)
		}
		return nil, err
	}
	jobs, _ := out.([]types.Job)
	return jobs, nil
}
