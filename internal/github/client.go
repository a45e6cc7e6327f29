// Package github lists the jobs of a GitHub Actions workflow run.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/time/rate"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// Client defaults.
const (
	defaultPerPage = 100
	defaultRPS     = 10
	defaultBurst   = 1
	defaultTimeout = 30 * time.Second

	// FilterLatest returns the most recent attempt of each job; FilterAll
	// returns every attempt.
	FilterLatest = "latest"
	FilterAll    = "all"
)

// Client lists workflow jobs through the GitHub REST API.
type Client struct {
	owner   string
	repo    string
	api     *gh.Client
	limiter *rate.Limiter
	perPage int
	filter  string
}

type options struct {
	baseURL    string
	httpClient *http.Client
	rps        float64
	burst      int
	perPage    int
	filter     string
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at a GitHub Enterprise or test API root.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRateLimit paces page requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rps = rps
		o.burst = burst
	}
}

// WithPerPage sets the page size (GitHub caps it at 100).
func WithPerPage(n int) Option {
	return func(o *options) { o.perPage = n }
}

// WithFilter selects FilterLatest or FilterAll.
func WithFilter(f string) Option {
	return func(o *options) { o.filter = f }
}

// New creates a client for repository ("owner/name").
func New(repository, token string, opts ...Option) (*Client, error) {
	owner, repo, err := SplitRepository(repository)
	if err != nil {
		return nil, err
	}

	o := options{
		httpClient: &http.Client{Timeout: defaultTimeout},
		rps:        defaultRPS,
		burst:      defaultBurst,
		perPage:    defaultPerPage,
		filter:     FilterLatest,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.perPage <= 0 || o.perPage > defaultPerPage {
		o.perPage = defaultPerPage
	}
	if o.filter != FilterLatest && o.filter != FilterAll {
		return nil, fmt.Errorf("github: unsupported job filter %q", o.filter)
	}

	api := gh.NewClient(o.httpClient)
	if token != "" {
		api = api.WithAuthToken(token)
	}
	if o.baseURL != "" {
		u, err := url.Parse(strings.TrimRight(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: invalid api url %q: %w", o.baseURL, err)
		}
		api.BaseURL = u
	}

	limit := rate.Inf
	if o.rps > 0 {
		limit = rate.Limit(o.rps)
	}
	if o.burst < 1 {
		o.burst = 1
	}

	return &Client{
		owner:   owner,
		repo:    repo,
		api:     api,
		limiter: rate.NewLimiter(limit, o.burst),
		perPage: o.perPage,
		filter:  o.filter,
	}, nil
}

// ListJobs returns every job of runID, following the Link header until no
// next page is reported.
func (c *Client) ListJobs(ctx context.Context, runID int64) ([]types.Job, error) {
	opts := &gh.ListWorkflowJobsOptions{
		Filter:      c.filter,
		ListOptions: gh.ListOptions{PerPage: c.perPage},
	}

	var jobs []types.Job
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("github jobs: waiting for rate limiter: %w", err)
		}

		page, resp, err := c.api.Actions.ListWorkflowJobs(ctx, c.owner, c.repo, runID, opts)
		if err != nil {
			return nil, fmt.Errorf("github jobs: listing run %d page %d: %w", runID, max(opts.Page, 1), err)
		}

		for _, j := range page.Jobs {
			jobs = append(jobs, types.Job{
				Name:       j.GetName(),
				Conclusion: j.GetConclusion(),
			})
		}

		if resp.NextPage == 0 {
			return jobs, nil
		}
		opts.Page = resp.NextPage
	}
}

// SplitRepository splits "owner/name".
func SplitRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("github: repository must look like owner/name, got %q", repository)
	}
	return owner, repo, nil
}
