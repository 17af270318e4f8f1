// Package script runs untrusted scripts inside a goja sandbox.
//
// The executor is consumed opaquely by the dispatcher: script plus
// working directory in, a structured success/failure result out. The
// VM has no module system, no process access, and no timers; console
// output is captured into the result.
package script

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/config"
	"github.com/fsgate/fsgate/internal/logging"
	"github.com/fsgate/fsgate/internal/pathsec"
	"github.com/fsgate/fsgate/internal/protocol"
)

// Executor runs scripts with a wall-clock interrupt timeout.
type Executor struct {
	policy  *pathsec.Policy
	timeout time.Duration
	log     *logging.Logger
}

// New creates an executor.
func New(policy *pathsec.Policy, cfg *config.Config, log *logging.Logger) *Executor {
	return &Executor{policy: policy, timeout: cfg.ScriptTimeout, log: log}
}

// Execute runs the script in a fresh sandboxed VM with workingDir
// exposed read-only. Script failures come back as a structured
// result, not an error; only invalid arguments are raised.
func (e *Executor) Execute(ctx context.Context, script, workingDir string) (map[string]interface{}, error) {
	if script == "" {
		return nil, &protocol.InvalidArgumentError{Reason: "script parameter must be a non-empty string"}
	}

	normalizedDir := ""
	if workingDir != "" {
		normalized, err := pathsec.Normalize(workingDir)
		if err != nil {
			return nil, err
		}
		if err := e.policy.Check("executeScript", normalized); err != nil {
			return nil, err
		}
		normalizedDir = normalized
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(1024)

	var console strings.Builder
	if err := setupGlobals(vm, &console, normalizedDir); err != nil {
		return failure("", fmt.Sprintf("sandbox setup failed: %v", err)), nil
	}

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-timer.C:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	value, err := vm.RunString(script)
	if err != nil {
		e.log.Debug("script execution failed", zap.Error(err))
		return failure(console.String(), err.Error()), nil
	}

	output := console.String()
	if value != nil && !goja.IsUndefined(value) && !goja.IsNull(value) {
		if output != "" {
			output += "\n"
		}
		output += value.String()
	}
	return map[string]interface{}{
		"success": true,
		"output":  output,
	}, nil
}

func failure(output, message string) map[string]interface{} {
	return map[string]interface{}{
		"success": false,
		"output":  output,
		"error":   message,
	}
}

// setupGlobals strips the dangerous globals and wires console capture.
func setupGlobals(vm *goja.Runtime, console *strings.Builder, workingDir string) error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	logFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		if console.Len() > 0 {
			console.WriteString("\n")
		}
		console.WriteString(strings.Join(parts, " "))
		return goja.Undefined()
	}

	consoleObj := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		if err := consoleObj.Set(level, logFn); err != nil {
			return err
		}
	}
	if err := vm.Set("console", consoleObj); err != nil {
		return err
	}

	// Timers are no-ops inside the sandbox.
	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }
	if err := vm.Set("setTimeout", noop); err != nil {
		return err
	}
	if err := vm.Set("setInterval", noop); err != nil {
		return err
	}

	return vm.Set("workingDir", workingDir)
}
