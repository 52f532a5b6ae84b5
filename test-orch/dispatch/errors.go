package dispatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// Exit codes reported when the tool never ran. They follow the shell's
// conventions so CI logs read the same as a failed `sh -c`.
const (
	ExitLaunchFailed  = 1
	ExitNotExecutable = 126
	ExitNotFound      = 127
)

// LaunchError reports that the tool could not be found or started. A tool that
// starts and exits non-zero is not a LaunchError.
type LaunchError struct {
	Tool string
	Code int
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Tool, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// NewLaunchError classifies a start failure into the matching exit code.
func NewLaunchError(tool string, err error) *LaunchError {
	code := ExitLaunchFailed
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		code = ExitNotFound
	case errors.Is(err, fs.ErrPermission):
		code = ExitNotExecutable
	}
	return &LaunchError{Tool: tool, Code: code, Err: err}
}

// ExitCode returns the process exit status matching err: the LaunchError code
// when err is a launch failure, 1 for any other error and 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var le *LaunchError
	if errors.As(err, &le) {
		return le.Code
	}
	return ExitLaunchFailed
}
