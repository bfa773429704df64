package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ProcessAlive fails when no process with the given name is running.
// Liveness is queried with `pidof -x <name>`, so the name must match the
// process name as it appears in the process table (scripts included).
type ProcessAlive struct {
	Name string

	pidof func(ctx context.Context, name string) (string, error)
}

// NewProcessAlive creates a liveness check for the named process.
func NewProcessAlive(name string) *ProcessAlive {
	return &ProcessAlive{
		Name:  name,
		pidof: runPidof,
	}
}

// Evaluate implements Check.
func (c *ProcessAlive) Evaluate(ctx context.Context) (Result, error) {
	lookup := c.pidof
	if lookup == nil {
		lookup = runPidof
	}

	pids, err := lookup(ctx, c.Name)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// pidof exits non-zero when no matching process exists.
			return Result{
				Passed: false,
				Detail: fmt.Sprintf("process %s not running", c.Name),
			}, nil
		}
		return Result{}, fmt.Errorf("pidof %s: %w", c.Name, err)
	}

	return Result{
		Passed: true,
		Detail: fmt.Sprintf("process %s running (pid %s)", c.Name, pids),
	}, nil
}

func runPidof(ctx context.Context, name string) (string, error) {
	out, err := exec.CommandContext(ctx, "pidof", "-x", name).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
