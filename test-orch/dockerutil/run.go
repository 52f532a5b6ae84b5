package dockerutil

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/MatthieuDartiailh/pathvalidate/test-orch/dispatch"
)

// Runner runs a dispatch.Command inside a container and reports the exit status
// of the command as its own.
type Runner struct {
	Opts   RunOptions
	Stdout io.Writer
	Stderr io.Writer
	// Engine defaults to a client configured from the environment.
	Engine Engine
}

var _ dispatch.Runner = (*Runner)(nil)

func (r *Runner) logf(lvl dispatch.Verb, format string, args ...any) {
	if !dispatch.Allowed(r.Opts.Selected, lvl) {
		return
	}
	p := dispatch.Prefix(lvl, "HOST")
	if r.Opts.Col != nil {
		p = r.Opts.Col.Sprint(p)
	}
	log.Printf("%s %s", p, fmt.Sprintf(format, args...))
}

func (r *Runner) launchErr(code int, err error) *dispatch.LaunchError {
	return &dispatch.LaunchError{Tool: r.Opts.Image, Code: code, Err: err}
}

func (r *Runner) Run(ctx context.Context, cmd dispatch.Command) (int, error) {
	stdout := r.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := r.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	if r.Opts.RootDir == "" {
		return ExitDaemonFailed, r.launchErr(ExitDaemonFailed, fmt.Errorf("no workspace directory to mount at %s", DefaultWorkdir))
	}
	cli := r.Engine
	if cli == nil {
		var err error
		if cli, err = NewEngine(); err != nil {
			return ExitDaemonFailed, r.launchErr(ExitDaemonFailed, fmt.Errorf("docker client: %w", err))
		}
	}

	exists, err := ImageExists(ctx, cli, r.Opts.Image)
	if err != nil {
		return ExitDaemonFailed, r.launchErr(ExitDaemonFailed, err)
	}
	if !exists {
		r.logf(dispatch.V1, "image %s not found locally; pulling...", r.Opts.Image)
		var progress io.Writer = io.Discard
		if dispatch.Allowed(r.Opts.Selected, dispatch.V2) {
			progress = stderr
		}
		if err := PullImage(ctx, cli, r.Opts.Image, progress); err != nil {
			return ExitDaemonFailed, r.launchErr(ExitDaemonFailed, err)
		}
	}

	cfg, hostCfg, name := BuildContainerConfig(r.Opts, cmd)
	r.logf(dispatch.V2, "CTX> image=%s workdir=%s binds=%v", cfg.Image, cfg.WorkingDir, hostCfg.Binds)
	created, err := cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		return ExitDaemonFailed, r.launchErr(ExitDaemonFailed, fmt.Errorf("container create: %w", err))
	}
	id := created.ID
	cleanup := func() {
		if !r.Opts.KeepContainer {
			_ = cli.ContainerRemove(context.Background(), id, types.ContainerRemoveOptions{Force: true})
		}
	}

	attach, err := cli.ContainerAttach(ctx, id, types.ContainerAttachOptions{
		Stream: true, Stdout: true, Stderr: true,
	})
	if err != nil {
		cleanup()
		return ExitDaemonFailed, r.launchErr(ExitDaemonFailed, fmt.Errorf("container attach: %w", err))
	}
	defer attach.Close()

	// Register the wait before starting so a fast exit is not missed.
	statusCh, errCh := cli.ContainerWait(ctx, id, waitCondition(r.Opts))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if r.Opts.Tty {
			_, _ = io.Copy(stdout, attach.Reader)
			return
		}
		_, _ = stdcopy.StdCopy(stdout, stderr, attach.Reader)
	}()

	if err := cli.ContainerStart(ctx, id, types.ContainerStartOptions{}); err != nil {
		attach.Close()
		wg.Wait()
		cleanup()
		code := classifyStartError(err)
		return code, r.launchErr(code, fmt.Errorf("container start: %w", err))
	}

	stop := dispatch.ForwardSignals(func(sig os.Signal) {
		_ = cli.ContainerKill(context.Background(), id, signalName(sig))
	})
	defer stop()

	select {
	case st := <-statusCh:
		// Drain output before returning so nothing printed last is lost.
		wg.Wait()
		if st.Error != nil && st.Error.Message != "" {
			r.logf(dispatch.V2, "container wait reported: %s", st.Error.Message)
		}
		return int(st.StatusCode), nil
	case err := <-errCh:
		attach.Close()
		wg.Wait()
		return ExitDaemonFailed, r.launchErr(ExitDaemonFailed, fmt.Errorf("container wait: %w", err))
	}
}
