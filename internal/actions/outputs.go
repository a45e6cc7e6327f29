package actions

import (
	"context"
	"log/slog"
	"os"

	"github.com/sethvargo/go-githubactions"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// Names under which the conclusion is published.
const (
	OutputName = "workflow_conclusion"
	EnvName    = "WORKFLOW_CONCLUSION"
)

// Outputs publishes the final conclusion to the runner.
type Outputs struct {
	action *githubactions.Action
	logger *slog.Logger
	setenv func(key, value string) error
}

// NewOutputs creates an Outputs. A nil logger uses slog.Default().
func NewOutputs(action *githubactions.Action, logger *slog.Logger) *Outputs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outputs{action: action, logger: logger, setenv: os.Setenv}
}

// Publish sets the step output and exports the environment variable for
// later steps and for this process, then logs where the value can be read
// from.
func (o *Outputs) Publish(ctx context.Context, c types.Conclusion) {
	v := string(c)
	o.action.SetOutput(OutputName, v)
	o.action.SetEnv(EnvName, v)
	if err := o.setenv(EnvName, v); err != nil {
		o.logger.WarnContext(ctx, "could not export "+EnvName+" to the process environment", "error", err)
	}

	o.logger.InfoContext(ctx, "The outputs have been set")
	o.logger.InfoContext(ctx, "\tsteps.step-id."+OutputName+" = "+v)
	o.logger.InfoContext(ctx, "\tenv."+EnvName+" = "+v)
}
