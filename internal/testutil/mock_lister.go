// Package testutil provides shared test utilities for workflow-conclusion.
package testutil

import (
	"context"
	"sync"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// MockJobLister is an in-memory job source for testing.
type MockJobLister struct {
	mu    sync.Mutex
	jobs  map[int64][]types.Job
	err   error
	calls []int64
}

// NewMockJobLister creates an empty mock job source.
func NewMockJobLister() *MockJobLister {
	return &MockJobLister{jobs: make(map[int64][]types.Job)}
}

// SetJobs registers the jobs returned for runID.
func (m *MockJobLister) SetJobs(runID int64, jobs ...types.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[runID] = jobs
}

// SetError makes every ListJobs call fail with err.
func (m *MockJobLister) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ListJobs returns the registered jobs for runID.
func (m *MockJobLister) ListJobs(_ context.Context, runID int64) ([]types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, runID)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]types.Job, len(m.jobs[runID]))
	copy(out, m.jobs[runID])
	return out, nil
}

// Calls returns the run IDs ListJobs was called with.
func (m *MockJobLister) Calls() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.calls))
	copy(out, m.calls)
	return out
}
