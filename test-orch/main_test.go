package main

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatthieuDartiailh/pathvalidate/test-orch/dispatch"
)

const (
	stubExitEnv = "TEST_ORCH_STUB_EXIT"
	stubArgsEnv = "TEST_ORCH_STUB_ARGS"
)

// TestMain doubles as a fake tox: re-executed with the stub env set, the test
// binary records its arguments and exits with the requested status.
func TestMain(m *testing.M) {
	if code, ok := os.LookupEnv(stubExitEnv); ok {
		if path := os.Getenv(stubArgsEnv); path != "" {
			data, _ := json.Marshal(os.Args[1:])
			_ = os.WriteFile(path, data, 0o644)
		}
		n, _ := strconv.Atoi(code)
		os.Exit(n)
	}
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func envMap(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

// useStub points the dispatcher at the test binary and returns the file its argv
// will be written to.
func useStub(t *testing.T, exitCode int) (map[string]string, string) {
	t.Helper()
	self, err := os.Executable()
	require.NoError(t, err)
	argsFile := filepath.Join(t.TempDir(), "argv.json")
	t.Setenv(stubExitEnv, strconv.Itoa(exitCode))
	t.Setenv(stubArgsEnv, argsFile)
	return map[string]string{envTool: self}, argsFile
}

func readArgv(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var args []string
	require.NoError(t, json.Unmarshal(data, &args))
	return args
}

func TestRunStandardNoArgs(t *testing.T) {
	env, argsFile := useStub(t, 0)
	code := run(nil, envMap(env))
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"--", "--md-report-color", "never", "--md-report-zeros", "empty", "empty"}, readArgv(t, argsFile))
}

func TestRunCoverageIgnoresArgs(t *testing.T) {
	env, argsFile := useStub(t, 1)
	env[envToxenv] = "cov"
	code := run([]string{"-k", "foo"}, envMap(env))
	assert.Equal(t, 1, code)
	assert.Empty(t, readArgv(t, argsFile))
}

func TestRunStandardForwardsArgs(t *testing.T) {
	env, argsFile := useStub(t, 2)
	env[envToxenv] = "ci"
	code := run([]string{"tests/unit"}, envMap(env))
	assert.Equal(t, 2, code)
	assert.Equal(t, []string{"--", "--md-report-color", "never", "--md-report-zeros", "empty", "tests/unit", "empty"}, readArgv(t, argsFile))
}

func TestRunMissingTool(t *testing.T) {
	code := run(nil, envMap(map[string]string{envTool: "tox-dispatch-no-such-tool"}))
	assert.Equal(t, dispatch.ExitNotFound, code)
}

func TestRunConfigError(t *testing.T) {
	code := run(nil, envMap(map[string]string{envVerbosity: "loud"}))
	assert.Equal(t, exitConfig, code)

	code = run(nil, envMap(map[string]string{envConfig: filepath.Join(t.TempDir(), "missing.yaml")}))
	assert.Equal(t, exitConfig, code)
}

func TestRunWritesEventLog(t *testing.T) {
	env, _ := useStub(t, 0)
	path := filepath.Join(t.TempDir(), "events.jsonl")
	env[envEventLog] = path
	assert.Equal(t, 0, run(nil, envMap(env)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event":"command"`)
	assert.Contains(t, string(data), `"event":"exit"`)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "tox", cfg.Tool)
	assert.Equal(t, 1, cfg.Verbosity)
	assert.Empty(t, cfg.Container.Image)
	assert.Empty(t, cfg.EventLog.Path)
	assert.Equal(t, 10, cfg.EventLog.MaxSizeMB)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tool: /opt/venv/bin/tox
verbosity: 2
container:
  image: python:3.12
  env: [PIP_NO_CACHE_DIR=1]
  keep: true
event_log:
  path: logs/events.jsonl
  max_backups: 5
`), 0o644))

	cfg, err := loadConfig(envMap(map[string]string{envConfig: path}))
	require.NoError(t, err)
	assert.Equal(t, "/opt/venv/bin/tox", cfg.Tool)
	assert.Equal(t, 2, cfg.Verbosity)
	assert.Equal(t, "python:3.12", cfg.Container.Image)
	assert.Equal(t, []string{"PIP_NO_CACHE_DIR=1"}, cfg.Container.Env)
	assert.True(t, cfg.Container.Keep)
	assert.Equal(t, "logs/events.jsonl", cfg.EventLog.Path)
	assert.Equal(t, 5, cfg.EventLog.MaxBackups)
	assert.Equal(t, 10, cfg.EventLog.MaxSizeMB)

	cfg, err = loadConfig(envMap(map[string]string{
		envConfig:    path,
		envTool:      "tox4",
		envVerbosity: "7",
		envImage:     "python:3.13",
		envEventLog:  "/tmp/e.jsonl",
	}))
	require.NoError(t, err)
	assert.Equal(t, "tox4", cfg.Tool)
	assert.Equal(t, 3, cfg.Verbosity)
	assert.Equal(t, "python:3.13", cfg.Container.Image)
	assert.Equal(t, "/tmp/e.jsonl", cfg.EventLog.Path)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tool: [unterminated\n"), 0o644))
	_, err := loadConfig(envMap(map[string]string{envConfig: path}))
	assert.Error(t, err)
}

func TestFindRootFrom(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tox.ini"), []byte("[tox]\n"), 0o644))
	nested := filepath.Join(root, "test", "unit")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := findRootFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}
