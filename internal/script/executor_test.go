package script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsgate/fsgate/internal/config"
	"github.com/fsgate/fsgate/internal/logging"
	"github.com/fsgate/fsgate/internal/pathsec"
	"github.com/fsgate/fsgate/internal/protocol"
)

func newTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.AllowedDirs = []string{root}
	cfg.ScriptTimeout = 2 * time.Second

	policy, err := pathsec.NewPolicy(cfg.AllowedDirs, false)
	require.NoError(t, err)
	return New(policy, cfg, logging.NewNop()), root
}

func TestExecuteSuccess(t *testing.T) {
	exec, _ := newTestExecutor(t)

	result, err := exec.Execute(context.Background(), "1 + 2", "")
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "3", result["output"])
}

func TestExecuteConsoleCapture(t *testing.T) {
	exec, _ := newTestExecutor(t)

	result, err := exec.Execute(context.Background(), `console.log("a", 1); console.warn("b");`, "")
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "a 1\nb", result["output"])
}

func TestExecuteScriptFailure(t *testing.T) {
	exec, _ := newTestExecutor(t)

	result, err := exec.Execute(context.Background(), `throw new Error("boom")`, "")
	require.NoError(t, err)
	assert.Equal(t, false, result["success"])
	assert.Contains(t, result["error"], "boom")
}

func TestExecuteDangerousGlobalsRemoved(t *testing.T) {
	exec, _ := newTestExecutor(t)

	result, err := exec.Execute(context.Background(),
		`[typeof require, typeof process, typeof module].join(",")`, "")
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "undefined,undefined,undefined", result["output"])
}

func TestExecuteWorkingDirExposed(t *testing.T) {
	exec, root := newTestExecutor(t)

	result, err := exec.Execute(context.Background(), "workingDir", root)
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
	assert.NotEmpty(t, result["output"])
}

func TestExecuteWorkingDirDenied(t *testing.T) {
	exec, _ := newTestExecutor(t)

	var secErr *protocol.SecurityError
	_, err := exec.Execute(context.Background(), "1", "/etc")
	require.Error(t, err)
	assert.ErrorAs(t, err, &secErr)
}

func TestExecuteEmptyScript(t *testing.T) {
	exec, _ := newTestExecutor(t)

	var argErr *protocol.InvalidArgumentError
	_, err := exec.Execute(context.Background(), "", "")
	require.Error(t, err)
	assert.ErrorAs(t, err, &argErr)
}

func TestExecuteTimeout(t *testing.T) {
	exec, _ := newTestExecutor(t)
	exec.timeout = 100 * time.Millisecond

	result, err := exec.Execute(context.Background(), "while (true) {}", "")
	require.NoError(t, err)
	assert.Equal(t, false, result["success"])
	assert.Contains(t, result["error"], "timeout")
}
