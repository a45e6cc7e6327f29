// conclusion Lambda evaluates the conclusion of a GitHub Actions workflow run.
package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	intlambda "github.com/dwsmith1983/workflow-conclusion/internal/lambda"
	"github.com/dwsmith1983/workflow-conclusion/internal/telemetry"
)

var (
	deps     *intlambda.Deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps() (*intlambda.Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = intlambda.Init(context.Background(), intlambda.Clients{})
	})
	return deps, depsErr
}

func handler(ctx context.Context, req intlambda.ConclusionRequest) (intlambda.ConclusionResponse, error) {
	// lambda.Start never returns, so export before the sandbox is frozen.
	defer func() {
		if err := telemetry.Flush(ctx); err != nil {
			slog.Warn("telemetry flush failed", "error", err)
		}
	}()

	d, err := getDeps()
	if err != nil {
		return intlambda.ConclusionResponse{}, err
	}

	resp, err := intlambda.HandleConclusion(ctx, d, req)
	if err != nil {
		d.Logger.Error("conclusion failed",
			"repository", req.Repository,
			"runID", req.RunID,
			"error", err,
		)
		return intlambda.ConclusionResponse{}, err
	}
	return resp, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if _, err := telemetry.Setup(context.Background(), "workflow-conclusion-lambda", os.Getenv); err != nil {
		slog.Warn("telemetry disabled", "error", err)
	}

	awslambda.Start(handler)
}
