package dispatch

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// Runner launches a Command and waits for it. The returned error is non-nil only
// when the command never ran; a child exiting non-zero is reported through the
// exit code alone.
type Runner interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

// ExecRunner runs commands as local child processes. Zero-valued streams fall
// back to the dispatcher's own stdio and a nil Env inherits the environment.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Env    []string
}

func (r *ExecRunner) Run(_ context.Context, c Command) (int, error) {
	cmd := exec.Command(c.Name(), c.Args()...)
	cmd.Stdin = orReader(r.Stdin, os.Stdin)
	cmd.Stdout = orWriter(r.Stdout, os.Stdout)
	cmd.Stderr = orWriter(r.Stderr, os.Stderr)
	cmd.Env = r.Env

	// The child shares our process group, so a terminal or group-wide signal
	// already reaches it. Catch those signals only to outlive the child.
	stop := ForwardSignals(func(os.Signal) {})
	defer stop()

	if err := cmd.Start(); err != nil {
		return 0, NewLaunchError(c.Name(), err)
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return exitStatus(ee), nil
	}
	// Wait failed for a reason other than the child's status (e.g. a stdio copy
	// error). The child did run; surface its state if there is one.
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode(), nil
	}
	return ExitLaunchFailed, err
}

// exitStatus maps a child killed by a signal onto 128+signo, as a shell does,
// since ExitCode reports -1 for that case.
func exitStatus(ee *exec.ExitError) int {
	if code := ee.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ExitLaunchFailed
}

// ForwardSignals relays SIGINT and SIGTERM to fn until stop is called. While it is
// active the dispatcher itself is not terminated by those signals, so it can
// still report the child's exit status.
func ForwardSignals(fn func(os.Signal)) (stop func()) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				fn(sig)
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}

func orReader(r, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orWriter(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
