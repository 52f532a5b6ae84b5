package dockerutil

import (
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/fatih/color"

	"github.com/MatthieuDartiailh/pathvalidate/test-orch/dispatch"
)

// DefaultWorkdir is where the repository is mounted inside the container.
const DefaultWorkdir = "/workspace"

// RunOptions encapsulates configuration to construct the container for a run.
type RunOptions struct {
	Image         string
	RootDir       string
	Workdir       string
	EnvVars       []string
	KeepContainer bool
	// Tty allocates a pseudo-terminal; output is then a raw stream rather than
	// the multiplexed stdout/stderr framing.
	Tty      bool
	Selected dispatch.Verb
	Col      *color.Color
	// RunID is an optional, stable identifier for this run. When set, it names the
	// container to make it easy to find in `docker ps -a`.
	RunID string
}

// BuildContainerConfig assembles the container and host configuration that run
// cmd's argv verbatim as the container command.
func BuildContainerConfig(opts RunOptions, cmd dispatch.Command) (*container.Config, *container.HostConfig, string) {
	workdir := opts.Workdir
	if workdir == "" {
		workdir = DefaultWorkdir
	}
	cfg := &container.Config{
		Image:        opts.Image,
		Cmd:          cmd.Argv(),
		Env:          append([]string(nil), opts.EnvVars...),
		WorkingDir:   workdir,
		Tty:          opts.Tty,
		AttachStdout: true,
		AttachStderr: true,
	}
	hostCfg := &container.HostConfig{AutoRemove: !opts.KeepContainer}
	if opts.RootDir != "" {
		hostCfg.Binds = []string{fmt.Sprintf("%s:%s", opts.RootDir, workdir)}
	}
	name := ""
	if opts.RunID != "" {
		name = fmt.Sprintf("tox-dispatch-%s", opts.RunID)
	}
	return cfg, hostCfg, name
}

// waitCondition picks a condition that is satisfied once for this container:
// an auto-removed container is gone after it exits, so waiting for "not
// running" could race the removal.
func waitCondition(opts RunOptions) container.WaitCondition {
	if opts.KeepContainer {
		return container.WaitConditionNextExit
	}
	return container.WaitConditionRemoved
}
