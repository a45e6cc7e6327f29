package conclusion

import (
	"slices"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// precedence is checked in order; the first conclusion present wins.
// Skipped is deliberately absent: a run of skipped jobs resolves to the fallback.
var precedence = []types.Conclusion{
	types.Cancelled,
	types.Failure,
	types.Success,
}

// Reduce selects the workflow conclusion from an outcome set. Duplicates and
// order do not matter; when no outcome in the precedence list is present the
// fallback is returned unchanged.
func Reduce(outcomes []types.Conclusion, fallback types.Conclusion) types.Conclusion {
	for _, c := range precedence {
		if slices.Contains(outcomes, c) {
			return c
		}
	}
	return fallback
}
