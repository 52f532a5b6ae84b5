// Command test-orch is the CI entry point for the pathvalidate test suite.
//
// It runs tox in one of two variants chosen by TOXENV:
//
//	TOXENV=cov   tox
//	otherwise    tox -- --md-report-color never --md-report-zeros empty [ARGS...] empty
//
// Every argument is forwarded to tox untouched, so the entry point takes no flags
// of its own; it is configured through TOX_DISPATCH_* variables or an optional
// .tox-dispatch.yaml. The process exits with tox's exit status.
//
// Usage examples:
//
//	go run ./test-orch
//	TOXENV=cov go run ./test-orch
//	go run ./test-orch tests/test_file.py -k validate
//	TOX_DISPATCH_IMAGE=python:3.12 go run ./test-orch
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/moby/term"

	"github.com/MatthieuDartiailh/pathvalidate/test-orch/dispatch"
	"github.com/MatthieuDartiailh/pathvalidate/test-orch/dockerutil"
)

// exitConfig is returned when the dispatcher cannot configure itself and never
// builds a command.
const exitConfig = 125

func main() {
	log.SetFlags(0)
	os.Exit(run(os.Args[1:], os.Getenv))
}

func run(args []string, getenv func(string) string) int {
	cfg, err := loadConfig(getenv)
	if err != nil {
		hostLog(dispatch.V0, "❌ config: %v", err)
		return exitConfig
	}
	setVerbosity(cfg.Verbosity)

	// The mode is derived once here and passed down explicitly.
	mode := dispatch.ModeFor(getenv(envToxenv))
	runID := time.Now().UTC().Format("20060102-150405Z")

	tracers := dispatch.Tracers{&dispatch.LogTracer{
		Logger:   log.Default(),
		Selected: selectedVerb,
		Col:      hostCol,
	}}
	if cfg.EventLog.Path != "" {
		el, err := dispatch.OpenEventLog(cfg.EventLog, runID)
		if err != nil {
			hostLog(dispatch.V0, "❌ config: %v", err)
			return exitConfig
		}
		defer el.Close()
		tracers = append(tracers, el)
	}

	d := &dispatch.Dispatcher{
		Tool:   cfg.Tool,
		Runner: newRunner(cfg, getenv, runID),
		Tracer: tracers,
	}
	code, _ := d.Run(context.Background(), mode, args)
	return code
}

// newRunner runs on the host unless a container image is configured.
func newRunner(cfg Config, getenv func(string) string, runID string) dispatch.Runner {
	if cfg.Container.Image == "" {
		return &dispatch.ExecRunner{}
	}
	rootDir, err := detectRepoRoot()
	if err != nil {
		warn("repo root not found, mounting the working directory: ", err)
		if rootDir, err = os.Getwd(); err != nil {
			// The runner refuses an empty RootDir rather than run without the repo.
			warn("working directory unavailable, nothing to mount: ", err)
		}
	}
	env := append([]string(nil), cfg.Container.Env...)
	if v := getenv(envToxenv); v != "" {
		env = append(env, envToxenv+"="+v)
	}
	_, isTerm := term.GetFdInfo(os.Stdout)
	return &dockerutil.Runner{Opts: dockerutil.RunOptions{
		Image:         cfg.Container.Image,
		RootDir:       rootDir,
		Workdir:       cfg.Container.Workdir,
		EnvVars:       env,
		KeepContainer: cfg.Container.Keep,
		Tty:           isTerm,
		Selected:      selectedVerb,
		Col:           hostCol,
		RunID:         runID,
	}}
}
