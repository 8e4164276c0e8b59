package portapack

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Executor provides a consistent interface for executing external tools,
// wiring stdio and killing the whole process group on cancellation.
type Executor struct {
	Context context.Context // The context to use for cancellation
	Quiet   bool            // Quiet discards subprocess stdout/stderr unless the caller wired its own
}

func NewExecutor(ctx context.Context) *Executor {
	return &Executor{Context: ctx}
}

// Run executes cmd and blocks until it exits or the executor context is
// cancelled, in which case the process group is killed.
func (e *Executor) Run(cmd *exec.Cmd) error {
	return e.runCtx(e.Context, cmd)
}

// RunTimeout executes cmd under an additional deadline. The returned bool
// reports whether the deadline fired; the subprocess is killed, never left
// running.
func (e *Executor) RunTimeout(cmd *exec.Cmd, timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(e.Context, timeout)
	defer cancel()

	err := e.runCtx(ctx, cmd)
	if ctx.Err() == context.DeadlineExceeded {
		return true, err
	}
	return false, err
}

func (e *Executor) runCtx(ctx context.Context, cmd *exec.Cmd) error {
	// Phase 0: wire up stdio
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		if e.Quiet {
			cmd.Stdout = nil
		} else {
			cmd.Stdout = os.Stdout
		}
	}
	if cmd.Stderr == nil && !e.Quiet {
		cmd.Stderr = os.Stderr
	}

	// Phase 1: build the actual invocation with our context
	finalCmd := exec.Command(cmd.Path, cmd.Args[1:]...)

	// inherit or copy environment
	if len(cmd.Env) > 0 {
		finalCmd.Env = cmd.Env
	} else {
		finalCmd.Env = os.Environ()
	}

	// carry over working dir and stdio
	finalCmd.Dir = cmd.Dir
	finalCmd.Stdin = cmd.Stdin
	finalCmd.Stdout = cmd.Stdout
	finalCmd.Stderr = cmd.Stderr

	// Phase 2: isolate process-group so we can clean up on cancel
	finalCmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Phase 3: start, cancel watcher, wait
	if err := finalCmd.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}
	pgid := finalCmd.Process.Pid

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			syscall.Kill(-pgid, syscall.SIGKILL)
		case <-done:
		}
	}()

	if waitErr := finalCmd.Wait(); waitErr != nil {
		if ctx.Err() != nil {
			time.Sleep(100 * time.Millisecond)
			return fmt.Errorf("command aborted: %v", ctx.Err())
		}
		return waitErr
	}
	return nil
}
