package types

import "time"

// Job is one job of a workflow run as reported by the job-listing source.
// An empty Conclusion means the job has not concluded yet.
type Job struct {
	Name       string `json:"name"`
	Conclusion string `json:"conclusion,omitempty"`
}

// Concluded reports whether the job has reached a terminal state.
func (j Job) Concluded() bool { return j.Conclusion != "" }

// AdditionalConclusion is an externally supplied outcome, such as a manual gate
// or a step outcome, that takes part in the final conclusion like a job would.
type AdditionalConclusion struct {
	Name       string `json:"name" yaml:"name"`
	Conclusion string `json:"conclusion" yaml:"conclusion"`
}

// Result is the outcome of evaluating one workflow run.
type Result struct {
	InvocationID       string       `json:"invocationId"`
	Repository         string       `json:"repository,omitempty"`
	RunID              int64        `json:"runId,omitempty"`
	Conclusion         Conclusion   `json:"conclusion"`
	Fallback           Conclusion   `json:"fallback"`
	JobOutcomes        []Conclusion `json:"jobOutcomes"`
	AdditionalOutcomes []Conclusion `json:"additionalOutcomes"`
	CollectError       string       `json:"collectError,omitempty"`
}

// ConclusionEvent is the notification payload delivered to sinks once the
// conclusion of a run is known.
type ConclusionEvent struct {
	InvocationID string     `json:"invocationId"`
	Repository   string     `json:"repository,omitempty"`
	RunID        int64      `json:"runId,omitempty"`
	Conclusion   Conclusion `json:"conclusion"`
	JobCount     int        `json:"jobCount"`
	Additional   int        `json:"additionalCount"`
	Timestamp    time.Time  `json:"timestamp"`
}

// NewConclusionEvent builds the notification payload for a result.
func NewConclusionEvent(r Result, now time.Time) ConclusionEvent {
	return ConclusionEvent{
		InvocationID: r.InvocationID,
		Repository:   r.Repository,
		RunID:        r.RunID,
		Conclusion:   r.Conclusion,
		JobCount:     len(r.JobOutcomes),
		Additional:   len(r.AdditionalOutcomes),
		Timestamp:    now.UTC(),
	}
}

// SinkConfig configures one notification sink.
type SinkConfig struct {
	Type     SinkType `yaml:"type" json:"type"`
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`
	Path     string   `yaml:"path,omitempty" json:"path,omitempty"`
	BusName  string   `yaml:"busName,omitempty" json:"busName,omitempty"`
	QueueURL string   `yaml:"queueUrl,omitempty" json:"queueUrl,omitempty"`
	Source   string   `yaml:"source,omitempty" json:"source,omitempty"`
}
