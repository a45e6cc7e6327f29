// Package actions bridges the evaluation to the GitHub Actions runner: log
// records become workflow commands and the conclusion is published as a step
// output and an environment variable.
package actions

import (
	"context"
	"log/slog"

	"github.com/sethvargo/go-githubactions"
)

// Handler is an slog.Handler that renders records as workflow commands.
// Only the message is printed; attributes are kept for other handlers.
type Handler struct {
	action *githubactions.Action
	level  slog.Leveler
}

// NewHandler creates a Handler writing through action. A nil level enables
// debug records, which the runner hides unless step debugging is on.
func NewHandler(action *githubactions.Action, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelDebug
	}
	return &Handler{action: action, level: level}
}

// Enabled reports whether level is at or above the handler's minimum.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes one record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	switch {
	case r.Level >= slog.LevelError:
		h.action.Errorf("%s", r.Message)
	case r.Level >= slog.LevelWarn:
		h.action.Warningf("%s", r.Message)
	case r.Level >= slog.LevelInfo:
		h.action.Infof("%s", r.Message)
	default:
		h.action.Debugf("%s", r.Message)
	}
	return nil
}

// WithAttrs returns h; workflow commands carry no structured fields.
func (h *Handler) WithAttrs([]slog.Attr) slog.Handler { return h }

// WithGroup returns h.
func (h *Handler) WithGroup(string) slog.Handler { return h }

// InActions reports whether the process runs inside a GitHub Actions job.
func InActions(getenv func(string) string) bool {
	return getenv("GITHUB_ACTIONS") == "true"
}
