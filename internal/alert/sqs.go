package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// SQSAPI is the subset of the SQS client used by SQSSink.
type SQSAPI interface {
	SendMessage(ctx context.Context, input *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSink sends conclusion events to a queue.
type SQSSink struct {
	client   SQSAPI
	queueURL string
}

// SQSSinkOption configures an SQSSink.
type SQSSinkOption func(*SQSSink)

// WithSQSClient sets a custom SQS client.
func WithSQSClient(c SQSAPI) SQSSinkOption {
	return func(s *SQSSink) { s.client = c }
}

// NewSQSSink creates an SQS sink for queueURL.
func NewSQSSink(queueURL string, opts ...SQSSinkOption) (*SQSSink, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("SQS queue URL required")
	}
	s := &SQSSink{queueURL: queueURL}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		s.client = sqs.NewFromConfig(cfg)
	}
	return s, nil
}

// Name returns the sink identifier.
func (s *SQSSink) Name() string { return "sqs" }

// Send sends the event as the message body with the conclusion as a message
// attribute for subscription filtering.
func (s *SQSSink) Send(ctx context.Context, event types.ConclusionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, awsTimeout)
	defer cancel()
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"conclusion": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Conclusion)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sending to SQS: %w", err)
	}
	return nil
}
