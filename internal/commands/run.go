package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/dwsmith1983/workflow-conclusion/internal/actions"
	"github.com/dwsmith1983/workflow-conclusion/internal/alert"
	"github.com/dwsmith1983/workflow-conclusion/internal/config"
	"github.com/dwsmith1983/workflow-conclusion/internal/engine"
	"github.com/dwsmith1983/workflow-conclusion/internal/github"
	"github.com/dwsmith1983/workflow-conclusion/internal/metrics"
	"github.com/dwsmith1983/workflow-conclusion/internal/secrets"
	"github.com/dwsmith1983/workflow-conclusion/internal/telemetry"
	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

type runOptions struct {
	configPath string
	envFile    string
	timeout    time.Duration
}

func (o *runOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.configPath, "config", "", "optional YAML configuration file")
	cmd.Flags().StringVar(&o.envFile, "env-file", "", "optional .env file loaded before the environment is read")
	cmd.Flags().DurationVar(&o.timeout, "timeout", defaultTimeout, "overall time limit for the evaluation")
}

// NewRunCmd creates the run command.
func NewRunCmd(rt *Runtime) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate the current workflow run and publish its conclusion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd.Context(), rt, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

// runAction evaluates the run named by the environment. Configuration and
// credential errors abort before any output is set.
func runAction(ctx context.Context, rt *Runtime, opts *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	action := rt.action()
	logger := rt.newLogger(action)

	cfg, err := config.Load(config.LoadOptions{
		ConfigPath:  opts.configPath,
		DotEnvPath:  opts.envFile,
		Environment: rt.Env,
	})
	if err != nil {
		logger.ErrorContext(ctx, err.Error())
		return fmt.Errorf("loading config: %w", err)
	}

	token, err := secrets.Resolve(ctx, cfg.Token, cfg.TokenSecretID, rt.Secrets)
	if err != nil {
		logger.ErrorContext(ctx, err.Error())
		return fmt.Errorf("resolving github token: %w", err)
	}

	shutdown, err := telemetry.Setup(ctx, serviceName, rt.getenv)
	if err != nil {
		logger.WarnContext(ctx, "telemetry disabled", "error", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.DebugContext(ctx, "telemetry shutdown", "error", err)
		}
	}()

	clientOpts := []github.Option{
		github.WithBaseURL(cfg.APIURL),
		github.WithFilter(cfg.JobFilter),
	}
	if cfg.RateLimitRPS != 0 {
		clientOpts = append(clientOpts, github.WithRateLimit(cfg.RateLimitRPS, 1))
	}
	if rt.HTTPClient != nil {
		clientOpts = append(clientOpts, github.WithHTTPClient(rt.HTTPClient))
	}
	client, err := github.New(cfg.Repository, token, clientOpts...)
	if err != nil {
		logger.ErrorContext(ctx, err.Error())
		return fmt.Errorf("creating github client: %w", err)
	}

	dispatcher, err := alert.NewDispatcher(cfg.Sinks, logger, rt.Alerts)
	if err != nil {
		logger.ErrorContext(ctx, err.Error())
		return fmt.Errorf("creating notification sinks: %w", err)
	}

	recorder, err := metrics.New(otel.Meter(serviceName))
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	eng := engine.New(client, logger, engine.WithMetrics(recorder))
	result, err := eng.Evaluate(ctx, engine.Request{
		Repository:               cfg.Repository,
		RunID:                    cfg.RunID,
		Fallback:                 cfg.Fallback,
		Additional:               cfg.Additional,
		SuppressFallbackWarnings: cfg.SuppressFallbackWarnings,
	})
	if err != nil {
		logger.ErrorContext(ctx, err.Error())
		return fmt.Errorf("evaluation failed: %w", err)
	}

	actions.NewOutputs(action, logger).Publish(ctx, result.Conclusion)

	if dispatcher.Len() > 0 {
		dispatcher.Dispatch(ctx, types.NewConclusionEvent(result, rt.now()))
	}
	return nil
}
