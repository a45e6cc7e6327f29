// Package conclusion implements the outcome aggregation policy: label
// normalization, classification of additional conclusions and the precedence
// reduction that yields one workflow conclusion.
package conclusion

import (
	"strings"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// vocabulary maps normalized labels to canonical conclusions.
var vocabulary = map[string]types.Conclusion{
	"failing": types.Failure,
	"failed":  types.Failure,
	"failure": types.Failure,
	"fail":    types.Failure,

	"passing": types.Success,
	"passed":  types.Success,
	"pass":    types.Success,
	"success": types.Success,

	"cancelled": types.Cancelled,
	"canceled":  types.Cancelled,
	"cancel":    types.Cancelled,

	"skipped": types.Skipped,
	"skip":    types.Skipped,
}

// severityPolicy decides the log level of a classified label.
type severityPolicy int

const (
	alwaysInfo severityPolicy = iota
	alwaysWarn
	warnUnlessSuppressed
)

// policies holds the severity policy per canonical conclusion. Failure and
// success are never subject to fallback suppression.
var policies = map[types.Conclusion]severityPolicy{
	types.Failure:   alwaysWarn,
	types.Success:   alwaysInfo,
	types.Cancelled: warnUnlessSuppressed,
	types.Skipped:   warnUnlessSuppressed,
}

// Normalize lowercases and trims a conclusion label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Lookup maps a label in any case or padding to its canonical conclusion.
func Lookup(label string) (types.Conclusion, bool) {
	c, ok := vocabulary[Normalize(label)]
	return c, ok
}
