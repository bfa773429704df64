// Package restart defines the remediation capability invoked when a
// babysat process has died.
package restart

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrNoCommand is returned when a Command has an empty argv.
var ErrNoCommand = errors.New("restart: no command configured")

// Action attempts to bring a failed target back. Implementations must be
// safe to invoke repeatedly; the engine spaces invocations by cooldown.
type Action interface {
	Invoke(ctx context.Context) error
}

// Func adapts a plain function into an Action.
type Func func(ctx context.Context) error

// Invoke implements Action.
func (f Func) Invoke(ctx context.Context) error {
	return f(ctx)
}

// Command restarts a target by spawning a command. The spawned process is
// not waited on for completion: the restarted daemon outlives the
// invocation, so success means "started", not "exited cleanly".
type Command struct {
	Argv []string
}

// Invoke implements Action. The context gates only the spawn itself; the
// started process is deliberately detached from it, otherwise the end of a
// poll cycle would kill the daemon that was just brought back.
func (c Command) Invoke(_ context.Context) error {
	if len(c.Argv) == 0 {
		return ErrNoCommand
	}

	cmd := exec.Command(c.Argv[0], c.Argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.Argv[0], err)
	}

	// Reap the child in the background so it cannot linger as a zombie.
	go func() { _ = cmd.Wait() }()

	return nil
}
