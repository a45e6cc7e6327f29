// Package types defines the public domain types for workflow conclusion evaluation.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Conclusion is the terminal outcome of a job or of a whole workflow run.
type Conclusion string

// Conclusion values enumerate the canonical outcomes.
const (
	Success   Conclusion = "success"
	Failure   Conclusion = "failure"
	Cancelled Conclusion = "cancelled"
	Skipped   Conclusion = "skipped"
)

// DefaultFallback is used when no fallback conclusion is configured.
const DefaultFallback = Skipped

// ErrUnknownConclusion is returned when a value is not one of the canonical conclusions.
var ErrUnknownConclusion = errors.New("unknown conclusion")

// Conclusions lists the canonical values in declaration order.
var Conclusions = []Conclusion{Success, Failure, Cancelled, Skipped}

// Valid reports whether c is one of the canonical conclusions.
func (c Conclusion) Valid() bool {
	switch c {
	case Success, Failure, Cancelled, Skipped:
		return true
	default:
		return false
	}
}

func (c Conclusion) String() string { return string(c) }

// ParseConclusion lowercases and trims s and accepts only canonical values.
func ParseConclusion(s string) (Conclusion, error) {
	c := Conclusion(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q (expected one of success, failure, cancelled, skipped)", ErrUnknownConclusion, s)
	}
	return c, nil
}

// SinkType defines the notification sink type.
type SinkType string

// SinkType values enumerate the supported notification backends.
const (
	SinkLog         SinkType = "log"
	SinkFile        SinkType = "file"
	SinkWebhook     SinkType = "webhook"
	SinkEventBridge SinkType = "eventbridge"
	SinkSQS         SinkType = "sqs"
)

// OutcomeSource tells where an outcome in the set came from.
type OutcomeSource string

const (
	SourceJob        OutcomeSource = "job"
	SourceAdditional OutcomeSource = "additional"
)
