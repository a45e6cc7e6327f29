package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/workflow-conclusion/internal/config"
	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

func runEvaluateCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true

	var stdout, stderr bytes.Buffer
	root := NewRootCmd("test", &Runtime{})
	root.SetArgs(append([]string{"evaluate"}, args...))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEvaluate_Text(t *testing.T) {
	out, logs, err := runEvaluateCmd(t, "success", "FAILURE")
	require.NoError(t, err)
	assert.Contains(t, out, "Conclusion: failure")
	assert.Contains(t, logs, "Individual Job Statuses:")
}

func TestEvaluate_JSON(t *testing.T) {
	out, _, err := runEvaluateCmd(t, "success",
		"--additional", `[{"name":"gate","conclusion":"Canceled"}]`,
		"--fallback", "failure",
		"--json")
	require.NoError(t, err)

	var res types.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, types.Cancelled, res.Conclusion)
	assert.Equal(t, types.Failure, res.Fallback)
	assert.Equal(t, []types.Conclusion{types.Success}, res.JobOutcomes)
	assert.Equal(t, []types.Conclusion{types.Cancelled}, res.AdditionalOutcomes)
}

func TestEvaluate_NoInputsYieldsFallback(t *testing.T) {
	out, _, err := runEvaluateCmd(t, "--fallback", "Success")
	require.NoError(t, err)
	assert.Contains(t, out, "Conclusion: success")
}

func TestEvaluate_InvalidInput(t *testing.T) {
	_, _, err := runEvaluateCmd(t, "--additional", "nope")
	assert.ErrorIs(t, err, config.ErrInvalidAdditional)

	_, _, err = runEvaluateCmd(t, "--fallback", "neutral")
	assert.ErrorIs(t, err, types.ErrUnknownConclusion)
}
