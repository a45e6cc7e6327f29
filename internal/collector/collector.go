// Package collector gathers the conclusions of the jobs of a workflow run.
package collector

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// JobLister lists every job of a workflow run, following pagination until the
// source reports no further pages.
type JobLister interface {
	ListJobs(ctx context.Context, runID int64) ([]types.Job, error)
}

// Collect returns the lowercased conclusions of the concluded jobs of runID.
// Jobs still running are logged and left out. A retrieval failure is logged
// and yields an empty set; the error is returned for the caller to record,
// not to abort on.
func Collect(ctx context.Context, lister JobLister, runID int64, logger *slog.Logger) ([]types.Conclusion, error) {
	if logger == nil {
		logger = slog.Default()
	}

	jobs, err := lister.ListJobs(ctx, runID)
	if err != nil {
		logger.ErrorContext(ctx, "An error occurred getting the jobs for the workflow run: "+err.Error(),
			"runID", runID,
			"error", err,
		)
		return nil, err
	}

	if len(jobs) == 0 {
		logger.InfoContext(ctx, "There were no jobs associated with the workflow run.", "runID", runID)
		return nil, nil
	}

	logger.InfoContext(ctx, "Individual Job Statuses:", "runID", runID, "jobs", len(jobs))
	outcomes := make([]types.Conclusion, 0, len(jobs))
	for _, j := range jobs {
		if !j.Concluded() {
			logger.InfoContext(ctx, "\t"+j.Name+": Has not concluded yet.", "job", j.Name)
			continue
		}
		logger.InfoContext(ctx, "\t"+j.Name+": "+j.Conclusion, "job", j.Name, "conclusion", j.Conclusion)
		outcomes = append(outcomes, types.Conclusion(strings.ToLower(j.Conclusion)))
	}
	return outcomes, nil
}

// StaticJobs is a JobLister over a fixed job list, for offline evaluation.
type StaticJobs []types.Job

// ListJobs returns the jobs regardless of runID.
func (s StaticJobs) ListJobs(context.Context, int64) ([]types.Job, error) {
	return s, nil
}
