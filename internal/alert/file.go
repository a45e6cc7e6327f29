package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// FileSink appends conclusion events as JSON lines to a file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink creates a file sink, creating the file if needed.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening notification file: %w", err)
	}
	_ = f.Close()

	return &FileSink{path: path}, nil
}

// Name returns the sink identifier.
func (s *FileSink) Name() string { return "file" }

// Send appends the event as one JSON line.
func (s *FileSink) Send(_ context.Context, event types.ConclusionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.Write(append(data, '\n'))
	return err
}
