package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/MatthieuDartiailh/pathvalidate/test-orch/dispatch"
)

// Verbosity controls
// 0 = quiet (tox command echo and launch failures only)
// 1 = normal (default)
// 2 = verbose
// 3 = trace
var (
	selectedVerb = dispatch.V1
	hostCol      = color.New(color.FgCyan)
)

func setVerbosity(lvl int) { selectedVerb = dispatch.ClampVerb(lvl) }

// hostLog prints a host-scoped line when lvl is enabled by the current verbosity.
func hostLog(lvl dispatch.Verb, format string, args ...any) {
	if !dispatch.Allowed(selectedVerb, lvl) {
		return
	}
	log.Printf("%s %s", hostCol.Sprint(dispatch.Prefix(lvl, "HOST")), fmt.Sprintf(format, args...))
}

func warn(v ...any) {
	if selectedVerb == dispatch.V0 {
		return
	}
	log.Println("WARN:", fmt.Sprint(v...))
}

func have(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// detectRepoRoot finds the repository root, or returns an error.
func detectRepoRoot() (string, error) {
	// Prefer `git rev-parse --show-toplevel`
	if have("git") {
		out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
		if err == nil && len(out) > 0 {
			return strings.TrimSpace(string(out)), nil
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findRootFrom(wd)
}

// findRootFrom searches upwards for a .git directory or a tox/Python project file.
func findRootFrom(dir string) (string, error) {
	for i := 0; i < 6; i++ { // don't traverse indefinitely
		for _, marker := range []string{".git", "tox.ini", "pyproject.toml", "setup.py"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("could not detect repo root")
}
