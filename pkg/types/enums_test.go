package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConclusion(t *testing.T) {
	for in, want := range map[string]Conclusion{
		"success":   Success,
		" Failure ": Failure,
		"CANCELLED": Cancelled,
		"skipped\n": Skipped,
	} {
		got, err := ParseConclusion(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "canceled", "neutral", "pass"} {
		_, err := ParseConclusion(in)
		assert.ErrorIs(t, err, ErrUnknownConclusion, in)
	}
}

func TestConclusionValid(t *testing.T) {
	for _, c := range Conclusions {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Conclusion("timed_out").Valid())
}

func TestNewConclusionEvent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	ev := NewConclusionEvent(Result{
		InvocationID:       "01J",
		Repository:         "octo/repo",
		RunID:              42,
		Conclusion:         Failure,
		JobOutcomes:        []Conclusion{Success, Failure},
		AdditionalOutcomes: []Conclusion{Skipped},
	}, now)

	assert.Equal(t, "01J", ev.InvocationID)
	assert.Equal(t, int64(42), ev.RunID)
	assert.Equal(t, 2, ev.JobCount)
	assert.Equal(t, 1, ev.Additional)
	assert.Equal(t, time.UTC, ev.Timestamp.Location())
}
