// Package alert delivers conclusion notifications to configured sinks.
package alert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// Sink is a notification destination.
type Sink interface {
	Send(ctx context.Context, event types.ConclusionEvent) error
	Name() string
}

// Options carries the injectable clients used when building sinks.
type Options struct {
	EventBridge EventBridgeAPI
	SQS         SQSAPI
	Source      string
}

// Dispatcher routes conclusion events to configured sinks.
type Dispatcher struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher from sink configs.
func NewDispatcher(configs []types.SinkConfig, logger *slog.Logger, opts Options) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sinks := make([]Sink, 0, len(configs))
	for _, cfg := range configs {
		sink, err := newSink(cfg, logger, opts)
		if err != nil {
			return nil, fmt.Errorf("creating %s sink: %w", cfg.Type, err)
		}
		sinks = append(sinks, sink)
	}
	return NewDispatcherWithSinks(logger, sinks...), nil
}

// NewDispatcherWithSinks creates a dispatcher over already built sinks.
func NewDispatcherWithSinks(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sinks: sinks, logger: logger}
}

// Len returns the number of configured sinks.
func (d *Dispatcher) Len() int { return len(d.sinks) }

// Dispatch sends the event to every sink in order. Failures are logged and
// counted; they never stop delivery to the remaining sinks.
func (d *Dispatcher) Dispatch(ctx context.Context, event types.ConclusionEvent) int {
	failed := 0
	for _, sink := range d.sinks {
		if err := sink.Send(ctx, event); err != nil {
			failed++
			d.logger.WarnContext(ctx, "notification failed",
				"sink", sink.Name(),
				"invocation", event.InvocationID,
				"error", err,
			)
		}
	}
	return failed
}

func newSink(cfg types.SinkConfig, logger *slog.Logger, opts Options) (Sink, error) {
	source := cfg.Source
	if source == "" {
		source = opts.Source
	}

	switch cfg.Type {
	case types.SinkLog:
		return NewLogSink(logger), nil
	case types.SinkWebhook:
		if cfg.URL == "" {
			return nil, fmt.Errorf("webhook URL required")
		}
		return NewWebhookSink(cfg.URL), nil
	case types.SinkFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file path required")
		}
		return NewFileSink(cfg.Path)
	case types.SinkEventBridge:
		var o []EventBridgeSinkOption
		if opts.EventBridge != nil {
			o = append(o, WithEventBridgeClient(opts.EventBridge))
		}
		if source != "" {
			o = append(o, WithEventSource(source))
		}
		return NewEventBridgeSink(cfg.BusName, o...)
	case types.SinkSQS:
		var o []SQSSinkOption
		if opts.SQS != nil {
			o = append(o, WithSQSClient(opts.SQS))
		}
		return NewSQSSink(cfg.QueueURL, o...)
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Type)
	}
}
