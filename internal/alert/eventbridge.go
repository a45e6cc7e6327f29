package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebTypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// EventBridge defaults.
const (
	DetailType    = "WorkflowConclusion"
	DefaultSource = "workflow-conclusion"
	awsTimeout    = 10 * time.Second
)

// EventBridgeAPI is the subset of the EventBridge client used by EventBridgeSink.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, input *eventbridge.PutEventsInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgeSink puts conclusion events on an event bus.
type EventBridgeSink struct {
	client  EventBridgeAPI
	busName string
	source  string
}

// EventBridgeSinkOption configures an EventBridgeSink.
type EventBridgeSinkOption func(*EventBridgeSink)

// WithEventBridgeClient sets a custom EventBridge client.
func WithEventBridgeClient(c EventBridgeAPI) EventBridgeSinkOption {
	return func(s *EventBridgeSink) { s.client = c }
}

// WithEventSource overrides the event source field.
func WithEventSource(source string) EventBridgeSinkOption {
	return func(s *EventBridgeSink) { s.source = source }
}

// NewEventBridgeSink creates an EventBridge sink for busName.
func NewEventBridgeSink(busName string, opts ...EventBridgeSinkOption) (*EventBridgeSink, error) {
	if busName == "" {
		return nil, fmt.Errorf("event bus name required")
	}
	s := &EventBridgeSink{busName: busName, source: DefaultSource}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		s.client = eventbridge.NewFromConfig(cfg)
	}
	return s, nil
}

// Name returns the sink identifier.
func (s *EventBridgeSink) Name() string { return "eventbridge" }

// Send puts one event with detail-type WorkflowConclusion.
func (s *EventBridgeSink) Send(ctx context.Context, event types.ConclusionEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, awsTimeout)
	defer cancel()
	out, err := s.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebTypes.PutEventsRequestEntry{{
			EventBusName: aws.String(s.busName),
			Source:       aws.String(s.source),
			DetailType:   aws.String(DetailType),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.Timestamp),
		}},
	})
	if err != nil {
		return fmt.Errorf("putting event on %s: %w", s.busName, err)
	}
	if out != nil && out.FailedEntryCount > 0 {
		msg := "unknown"
		if len(out.Entries) > 0 && out.Entries[0].ErrorMessage != nil {
			msg = *out.Entries[0].ErrorMessage
		}
		return fmt.Errorf("event rejected by %s: %s", s.busName, msg)
	}
	return nil
}
