package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/workflow-conclusion/internal/collector"
	"github.com/dwsmith1983/workflow-conclusion/internal/config"
	"github.com/dwsmith1983/workflow-conclusion/internal/engine"
	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

type evaluateOptions struct {
	fallback   string
	additional string
	suppress   bool
	asJSON     bool
}

// NewEvaluateCmd creates the evaluate command, which applies the aggregation
// policy to job conclusions given on the command line.
func NewEvaluateCmd() *cobra.Command {
	opts := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate [conclusion...]",
		Short: "Reduce job conclusions offline, without calling GitHub",
		Example: `  workflow-conclusion evaluate success failure
  workflow-conclusion evaluate success --additional '[{"name":"gate","conclusion":"cancelled"}]'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.fallback, "fallback", string(types.DefaultFallback), "conclusion used when no outcome is determinative")
	cmd.Flags().StringVar(&opts.additional, "additional", "", `JSON array of {"name","conclusion"} objects`)
	cmd.Flags().BoolVar(&opts.suppress, "suppress-fallback-warnings", false, "log fallback and empty labels at info level")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	return cmd
}

func runEvaluate(cmd *cobra.Command, opts *evaluateOptions, args []string) error {
	fallback, err := config.ParseFallback(opts.fallback)
	if err != nil {
		return err
	}
	additional, err := config.ParseAdditionalConclusions(opts.additional)
	if err != nil {
		return err
	}

	jobs := make(collector.StaticJobs, len(args))
	for i, c := range args {
		jobs[i] = types.Job{Name: "job-" + strconv.Itoa(i+1), Conclusion: c}
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelInfo}))
	result, err := engine.New(jobs, logger).Evaluate(cmd.Context(), engine.Request{
		Fallback:                 fallback,
		Additional:               additional,
		SuppressFallbackWarnings: opts.suppress,
	})
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printResult(w io.Writer, result types.Result) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(w, "\nConclusion: ")

	var c *color.Color
	switch result.Conclusion {
	case types.Success:
		c = color.New(color.FgGreen)
	case types.Failure:
		c = color.New(color.FgRed)
	case types.Cancelled:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgCyan)
	}
	_, _ = c.Fprintln(w, string(result.Conclusion))

	_, _ = fmt.Fprintf(w, "  job outcomes:        %v\n", result.JobOutcomes)
	_, _ = fmt.Fprintf(w, "  additional outcomes: %v\n", result.AdditionalOutcomes)
	_, _ = fmt.Fprintf(w, "  fallback:            %s\n", result.Fallback)
}
