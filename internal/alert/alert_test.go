package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebTypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/workflow-conclusion/internal/testutil"
	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

func testEvent() types.ConclusionEvent {
	return types.ConclusionEvent{
		InvocationID: "01J9Z8X7W6V5T4S3R2Q1P0N9M8",
		Repository:   "octo/repo",
		RunID:        42,
		Conclusion:   types.Failure,
		JobCount:     3,
		Additional:   1,
		Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

type mockEventBridge struct {
	inputs []*eventbridge.PutEventsInput
	out    *eventbridge.PutEventsOutput
	err    error
}

func (m *mockEventBridge) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.out == nil {
		return &eventbridge.PutEventsOutput{}, m.err
	}
	return m.out, m.err
}

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, in)
	return &sqs.SendMessageOutput{}, m.err
}

func TestWebhookSink_Send_Success(t *testing.T) {
	var received []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	sink := NewWebhookSink(ts.URL)
	assert.Equal(t, "webhook", sink.Name())
	require.NoError(t, sink.Send(context.Background(), testEvent()))

	var got types.ConclusionEvent
	require.NoError(t, json.Unmarshal(received, &got))
	assert.Equal(t, testEvent(), got)
}

func TestWebhookSink_Send_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := NewWebhookSink(ts.URL).Send(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFileSink_Send(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conclusions.jsonl")

	sink, err := NewFileSink(path)
	require.NoError(t, err)
	assert.Equal(t, "file", sink.Name())

	require.NoError(t, sink.Send(context.Background(), testEvent()))
	second := testEvent()
	second.Conclusion = types.Success
	require.NoError(t, sink.Send(context.Background(), second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var got types.ConclusionEvent
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, types.Success, got.Conclusion)
}

func TestFileSink_BadPath(t *testing.T) {
	_, err := NewFileSink(filepath.Join(t.TempDir(), "missing", "x.jsonl"))
	assert.ErrorContains(t, err, "opening notification file")
}

func TestLogSink_Send(t *testing.T) {
	rec, logger := testutil.NewLogRecorder()
	sink := NewLogSink(logger)

	require.NoError(t, sink.Send(context.Background(), testEvent()))
	ok := testEvent()
	ok.Conclusion = types.Success
	require.NoError(t, sink.Send(context.Background(), ok))

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, slog.LevelWarn, entries[0].Level)
	assert.Equal(t, "failure", entries[0].Attrs["conclusion"])
	assert.Equal(t, slog.LevelInfo, entries[1].Level)
	assert.Equal(t, "octo/repo", entries[1].Attrs["repository"])
}

func TestEventBridgeSink_Send(t *testing.T) {
	client := &mockEventBridge{}
	sink, err := NewEventBridgeSink("ci-events", WithEventBridgeClient(client))
	require.NoError(t, err)
	assert.Equal(t, "eventbridge", sink.Name())

	require.NoError(t, sink.Send(context.Background(), testEvent()))
	require.Len(t, client.inputs, 1)
	require.Len(t, client.inputs[0].Entries, 1)

	entry := client.inputs[0].Entries[0]
	assert.Equal(t, "ci-events", aws.ToString(entry.EventBusName))
	assert.Equal(t, DefaultSource, aws.ToString(entry.Source))
	assert.Equal(t, DetailType, aws.ToString(entry.DetailType))

	var got types.ConclusionEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &got))
	assert.Equal(t, testEvent(), got)
}

func TestEventBridgeSink_Errors(t *testing.T) {
	_, err := NewEventBridgeSink("")
	assert.Error(t, err)

	client := &mockEventBridge{err: errors.New("throttled")}
	sink, err := NewEventBridgeSink("bus", WithEventBridgeClient(client), WithEventSource("ci"))
	require.NoError(t, err)
	assert.ErrorContains(t, sink.Send(context.Background(), testEvent()), "throttled")
	assert.Equal(t, "ci", aws.ToString(client.inputs[0].Entries[0].Source))

	client = &mockEventBridge{out: &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []ebTypes.PutEventsResultEntry{{ErrorMessage: aws.String("bad detail")}},
	}}
	sink, err = NewEventBridgeSink("bus", WithEventBridgeClient(client))
	require.NoError(t, err)
	assert.ErrorContains(t, sink.Send(context.Background(), testEvent()), "bad detail")
}

func TestSQSSink_Send(t *testing.T) {
	client := &mockSQS{}
	sink, err := NewSQSSink("https://sqs.eu-west-1.amazonaws.com/1/q", WithSQSClient(client))
	require.NoError(t, err)
	assert.Equal(t, "sqs", sink.Name())

	require.NoError(t, sink.Send(context.Background(), testEvent()))
	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "https://sqs.eu-west-1.amazonaws.com/1/q", aws.ToString(in.QueueUrl))
	assert.Equal(t, "failure", aws.ToString(in.MessageAttributes["conclusion"].StringValue))
	assert.Contains(t, aws.ToString(in.MessageBody), `"conclusion":"failure"`)

	client.err = errors.New("denied")
	assert.ErrorContains(t, sink.Send(context.Background(), testEvent()), "sending to SQS")

	_, err = NewSQSSink("")
	assert.Error(t, err)
}

type errSink struct{}

func (s *errSink) Send(context.Context, types.ConclusionEvent) error { return fmt.Errorf("sink error") }
func (s *errSink) Name() string                                      { return "error-sink" }

type recordSink struct {
	events []types.ConclusionEvent
}

func (s *recordSink) Send(_ context.Context, e types.ConclusionEvent) error {
	s.events = append(s.events, e)
	return nil
}
func (s *recordSink) Name() string { return "record-sink" }

func TestDispatcher_MultiSink(t *testing.T) {
	s1, s2 := &recordSink{}, &recordSink{}
	d := NewDispatcherWithSinks(nil, s1, s2)
	assert.Equal(t, 2, d.Len())

	assert.Zero(t, d.Dispatch(context.Background(), testEvent()))
	assert.Len(t, s1.events, 1)
	assert.Len(t, s2.events, 1)
}

func TestDispatcher_SinkError_ContinuesOthers(t *testing.T) {
	rec, logger := testutil.NewLogRecorder()
	recording := &recordSink{}
	d := NewDispatcherWithSinks(logger, &errSink{}, recording)

	assert.Equal(t, 1, d.Dispatch(context.Background(), testEvent()))
	assert.Len(t, recording.events, 1)

	e, ok := rec.Find("notification failed")
	require.True(t, ok)
	assert.Equal(t, slog.LevelWarn, e.Level)
	assert.Equal(t, "error-sink", e.Attrs["sink"])
}

func TestNewDispatcher_FromConfigs(t *testing.T) {
	eb, q := &mockEventBridge{}, &mockSQS{}
	d, err := NewDispatcher([]types.SinkConfig{
		{Type: types.SinkLog},
		{Type: types.SinkFile, Path: filepath.Join(t.TempDir(), "c.jsonl")},
		{Type: types.SinkEventBridge, BusName: "bus", Source: "custom"},
		{Type: types.SinkSQS, QueueURL: "https://q"},
	}, nil, Options{EventBridge: eb, SQS: q, Source: "default"})
	require.NoError(t, err)
	assert.Equal(t, 4, d.Len())

	assert.Zero(t, d.Dispatch(context.Background(), testEvent()))
	require.Len(t, eb.inputs, 1)
	assert.Equal(t, "custom", aws.ToString(eb.inputs[0].Entries[0].Source))
	assert.Len(t, q.inputs, 1)

	_, err = NewDispatcher([]types.SinkConfig{{Type: "pager"}}, nil, Options{})
	assert.ErrorContains(t, err, `unknown sink type "pager"`)

	_, err = NewDispatcher([]types.SinkConfig{{Type: types.SinkWebhook}}, nil, Options{})
	assert.ErrorContains(t, err, "webhook URL required")
}
