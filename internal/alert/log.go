package alert

import (
	"context"
	"log/slog"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// LogSink writes conclusion events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log sink. A nil logger uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Name returns the sink identifier.
func (s *LogSink) Name() string { return "log" }

// Send logs the event at info, or warn when the run did not succeed.
func (s *LogSink) Send(ctx context.Context, event types.ConclusionEvent) error {
	level := slog.LevelInfo
	if event.Conclusion != types.Success {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "workflow concluded",
		"invocation", event.InvocationID,
		"repository", event.Repository,
		"runId", event.RunID,
		"conclusion", string(event.Conclusion),
		"jobs", event.JobCount,
		"additional", event.Additional,
	)
	return nil
}
