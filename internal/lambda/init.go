package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"

	"github.com/dwsmith1983/workflow-conclusion/internal/alert"
	"github.com/dwsmith1983/workflow-conclusion/internal/github"
	"github.com/dwsmith1983/workflow-conclusion/internal/metrics"
	"github.com/dwsmith1983/workflow-conclusion/internal/secrets"
	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// Settings is the Lambda environment.
type Settings struct {
	GitHubToken   string  `env:"GITHUB_TOKEN"`
	TokenSecretID string  `env:"TOKEN_SECRET_ID"`
	APIURL        string  `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	RateLimitRPS  float64 `env:"GITHUB_API_RPS"`
	PerPage       int     `env:"GITHUB_API_PER_PAGE" envDefault:"100"`
	JobFilter     string  `env:"JOB_FILTER" envDefault:"latest"`
	EventBusName  string  `env:"EVENT_BUS_NAME"`
	QueueURL      string  `env:"QUEUE_URL"`
	EventSource   string  `env:"EVENT_SOURCE"`
}

// Deps holds shared dependencies for the Lambda handler. They outlive a
// single invocation, so the breaker sees failures across warm invocations.
type Deps struct {
	Token      string
	Settings   Settings
	HTTPClient *http.Client
	Breaker    *gobreaker.CircuitBreaker
	Dispatcher *alert.Dispatcher
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
}

// Clients are the injectable AWS clients used by Init. Nil fields are built
// from the default AWS configuration.
type Clients struct {
	Secrets     secrets.SecretsAPI
	EventBridge alert.EventBridgeAPI
	SQS         alert.SQSAPI
}

// Init creates shared dependencies from environment variables.
// Reads: GITHUB_TOKEN or TOKEN_SECRET_ID, GITHUB_API_URL, GITHUB_API_RPS,
// GITHUB_API_PER_PAGE, JOB_FILTER, EVENT_BUS_NAME, QUEUE_URL, EVENT_SOURCE.
func Init(ctx context.Context, clients Clients) (*Deps, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	token, err := secrets.Resolve(ctx, s.GitHubToken, s.TokenSecretID, clients.Secrets)
	if err != nil {
		return nil, fmt.Errorf("resolving github token: %w", err)
	}

	var sinks []types.SinkConfig
	if s.EventBusName != "" {
		sinks = append(sinks, types.SinkConfig{Type: types.SinkEventBridge, BusName: s.EventBusName})
	}
	if s.QueueURL != "" {
		sinks = append(sinks, types.SinkConfig{Type: types.SinkSQS, QueueURL: s.QueueURL})
	}
	dispatcher, err := alert.NewDispatcher(sinks, logger, alert.Options{
		EventBridge: clients.EventBridge,
		SQS:         clients.SQS,
		Source:      s.EventSource,
	})
	if err != nil {
		return nil, fmt.Errorf("creating notification sinks: %w", err)
	}

	recorder, err := metrics.New(otel.Meter("workflow-conclusion"))
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	return &Deps{
		Token:      token,
		Settings:   s,
		Breaker:    github.NewBreaker("github-jobs", logger),
		Dispatcher: dispatcher,
		Metrics:    recorder,
		Logger:     logger,
	}, nil
}
