// Package commands implements the CLI subcommands for the workflow-conclusion
// binary.
package commands

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/sethvargo/go-githubactions"

	"github.com/dwsmith1983/workflow-conclusion/internal/actions"
	"github.com/dwsmith1983/workflow-conclusion/internal/alert"
	"github.com/dwsmith1983/workflow-conclusion/internal/secrets"
)

const serviceName = "workflow-conclusion"

// Runtime carries the process surroundings a command runs in. The zero value
// uses the real process environment and standard streams.
type Runtime struct {
	// Env replaces the process environment when non-nil.
	Env    map[string]string
	Stdout io.Writer
	Stderr io.Writer

	HTTPClient *http.Client
	Secrets    secrets.SecretsAPI
	Alerts     alert.Options
	Now        func() time.Time
}

func (rt *Runtime) getenv(key string) string {
	if rt.Env != nil {
		return rt.Env[key]
	}
	return os.Getenv(key)
}

func (rt *Runtime) stdout() io.Writer {
	if rt.Stdout != nil {
		return rt.Stdout
	}
	return os.Stdout
}

func (rt *Runtime) stderr() io.Writer {
	if rt.Stderr != nil {
		return rt.Stderr
	}
	return os.Stderr
}

func (rt *Runtime) now() time.Time {
	if rt.Now != nil {
		return rt.Now()
	}
	return time.Now()
}

// action returns a workflow-command writer bound to the runtime.
func (rt *Runtime) action() *githubactions.Action {
	return githubactions.New(
		githubactions.WithWriter(rt.stdout()),
		githubactions.WithGetenv(rt.getenv),
	)
}

// newLogger renders records as workflow commands inside Actions and as text
// on stderr elsewhere. RUNNER_DEBUG=1 enables debug records.
func (rt *Runtime) newLogger(action *githubactions.Action) *slog.Logger {
	level := slog.LevelInfo
	if rt.getenv("RUNNER_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	if actions.InActions(rt.getenv) {
		return slog.New(actions.NewHandler(action, level))
	}
	return slog.New(slog.NewTextHandler(rt.stderr(), &slog.HandlerOptions{Level: level}))
}
