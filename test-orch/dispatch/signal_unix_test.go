//go:build unix

package dispatch

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A Ctrl-C delivered to the dispatcher's process group must reach the child once,
// and the dispatcher must survive it to report the child's status.
func TestGroupInterruptReachesChildOnce(t *testing.T) {
	self, err := os.Executable()
	require.NoError(t, err)
	dir := t.TempDir()
	ready := filepath.Join(dir, "ready")
	count := filepath.Join(dir, "count")

	cmd := exec.Command(self)
	cmd.Env = append(os.Environ(),
		helperEnv+"=dispatcher",
		helperReadyEnv+"="+ready,
		helperCountEnv+"="+count,
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	require.NoError(t, cmd.Start())

	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, err := os.Stat(ready); err == nil {
			break
		}
		if time.Now().After(deadline) {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			t.Fatal("child never became ready")
		}
		time.Sleep(20 * time.Millisecond)
	}

	require.NoError(t, syscall.Kill(-cmd.Process.Pid, syscall.SIGINT))
	require.NoError(t, cmd.Wait(), "dispatcher should exit with the child's status 0")

	got, err := os.ReadFile(count)
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))
}
