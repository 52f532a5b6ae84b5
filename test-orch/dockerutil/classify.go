package dockerutil

import (
	"os"
	"strings"
	"syscall"

	"github.com/MatthieuDartiailh/pathvalidate/test-orch/dispatch"
)

// ExitDaemonFailed is reported when the daemon or image, not the tool, failed.
const ExitDaemonFailed = 125

// classifyStartError infers the exit code a shell would report for a container
// whose command could not be started, from the daemon's error text.
func classifyStartError(err error) int {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "executable file not found"),
		strings.Contains(msg, "no such file or directory"):
		return dispatch.ExitNotFound
	case strings.Contains(msg, "permission denied"):
		return dispatch.ExitNotExecutable
	}
	return ExitDaemonFailed
}

// signalName converts a forwarded signal into the name the kill endpoint expects.
func signalName(sig os.Signal) string {
	switch sig {
	case os.Interrupt:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "SIGKILL"
}
