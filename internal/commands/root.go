package commands

import (
	"time"

	"github.com/spf13/cobra"
)

const defaultTimeout = 5 * time.Minute

// NewRootCmd creates the workflow-conclusion command. Without a subcommand
// it behaves like run.
func NewRootCmd(version string, rt *Runtime) *cobra.Command {
	if rt == nil {
		rt = &Runtime{}
	}
	opts := &runOptions{}

	root := &cobra.Command{
		Use:   "workflow-conclusion",
		Short: "Aggregate the job conclusions of a GitHub Actions workflow run",
		Long: `workflow-conclusion lists the jobs of the current workflow run, folds in any
additional conclusions supplied as input and reduces them to one conclusion
(cancelled > failure > success > fallback). The result is published as the
step output workflow_conclusion and the environment variable
WORKFLOW_CONCLUSION.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd.Context(), rt, opts)
		},
	}
	opts.bind(root)

	root.AddCommand(
		NewRunCmd(rt),
		NewEvaluateCmd(),
	)
	return root
}
