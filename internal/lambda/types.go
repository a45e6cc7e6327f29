// Package lambda provides shared types and initialization for the Lambda
// entry point.
package lambda

import (
	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// ConclusionRequest is the Lambda input payload.
type ConclusionRequest struct {
	Repository               string                       `json:"repository"`
	RunID                    int64                        `json:"runId"`
	FallbackConclusion       string                       `json:"fallbackConclusion,omitempty"`
	AdditionalConclusions    []types.AdditionalConclusion `json:"additionalConclusions,omitempty"`
	SuppressFallbackWarnings bool                         `json:"suppressFallbackWarnings,omitempty"`
}

// ConclusionResponse is the Lambda output payload.
type ConclusionResponse struct {
	InvocationID       string             `json:"invocationId"`
	Conclusion         types.Conclusion   `json:"conclusion"`
	JobOutcomes        []types.Conclusion `json:"jobOutcomes"`
	AdditionalOutcomes []types.Conclusion `json:"additionalOutcomes"`
	CollectError       string             `json:"collectError,omitempty"`
}
