package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogRecorder is an slog.Handler that keeps every record in memory.
type LogRecorder struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	attrs   []slog.Attr
}

// NewLogRecorder returns a recorder and a logger writing to it.
func NewLogRecorder() (*LogRecorder, *slog.Logger) {
	r := &LogRecorder{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
	return r, slog.New(r)
}

// Enabled accepts every level, debug included.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle stores the record.
func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	e := LogEntry{Level: rec.Level, Message: rec.Message, Attrs: map[string]string{}}
	for _, a := range r.attrs {
		e.Attrs[a.Key] = a.Value.String()
	}
	rec.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.String()
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, e)
	return nil
}

// WithAttrs returns a recorder sharing storage with r.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(r.attrs)+len(attrs))
	merged = append(merged, r.attrs...)
	merged = append(merged, attrs...)
	return &LogRecorder{mu: r.mu, entries: r.entries, attrs: merged}
}

// WithGroup ignores groups; tests only look at flat keys.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Entries returns a copy of the captured records.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(*r.entries))
	copy(out, *r.entries)
	return out
}

// Messages returns captured messages in order.
func (r *LogRecorder) Messages() []string {
	entries := r.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

// Find returns the first entry whose message contains substr.
func (r *LogRecorder) Find(substr string) (LogEntry, bool) {
	for _, e := range r.Entries() {
		if strings.Contains(e.Message, substr) {
			return e, true
		}
	}
	return LogEntry{}, false
}

// CountLevel returns how many records were logged at level.
func (r *LogRecorder) CountLevel(level slog.Level) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
