package dispatch

import (
	"context"
	"time"
)

// DefaultTool is the orchestrator launched when no other tool is configured.
const DefaultTool = "tox"

// Dispatcher builds the command for a mode, traces it and runs it once.
type Dispatcher struct {
	Tool   string
	Runner Runner
	// Tracer may be nil to disable command echo.
	Tracer Tracer
}

// Run executes the invocation selected by mode and returns the exit status the
// dispatcher should terminate with. A non-nil error is a launch failure; the
// returned code is already the matching exit status.
func (d *Dispatcher) Run(ctx context.Context, mode Mode, forwarded []string) (int, error) {
	tool := d.Tool
	if tool == "" {
		tool = DefaultTool
	}
	runner := d.Runner
	if runner == nil {
		runner = &ExecRunner{}
	}
	cmd := BuildCommand(tool, mode, forwarded)
	if d.Tracer != nil {
		d.Tracer.Command(cmd)
	}
	start := time.Now()
	code, err := runner.Run(ctx, cmd)
	if err != nil {
		code = ExitCode(err)
	}
	if d.Tracer != nil {
		d.Tracer.Exit(cmd, code, time.Since(start), err)
	}
	return code, err
}
