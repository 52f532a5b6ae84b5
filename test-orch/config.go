package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/MatthieuDartiailh/pathvalidate/test-orch/dispatch"
)

// Environment variables read at startup. TOXENV is the only one that affects
// which command is built; the rest configure how it is run and logged.
const (
	envToxenv    = "TOXENV"
	envConfig    = "TOX_DISPATCH_CONFIG"
	envTool      = "TOX_DISPATCH_TOOL"
	envVerbosity = "TOX_DISPATCH_VERBOSITY"
	envImage     = "TOX_DISPATCH_IMAGE"
	envEventLog  = "TOX_DISPATCH_EVENT_LOG"
)

// defaultConfigFile is read from the working directory when present.
const defaultConfigFile = ".tox-dispatch.yaml"

// Config holds everything the dispatcher needs besides the mode and arguments.
type Config struct {
	Tool      string                  `yaml:"tool"`
	Verbosity int                     `yaml:"verbosity"`
	Container ContainerConfig         `yaml:"container"`
	EventLog  dispatch.EventLogConfig `yaml:"event_log"`
}

// ContainerConfig runs the tool inside Image instead of on the host when set.
type ContainerConfig struct {
	Image   string   `yaml:"image"`
	Workdir string   `yaml:"workdir"`
	Env     []string `yaml:"env"`
	Keep    bool     `yaml:"keep"`
}

func defaultConfig() Config {
	return Config{
		Tool:      dispatch.DefaultTool,
		Verbosity: int(dispatch.V1),
		EventLog: dispatch.EventLogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// loadConfig layers defaults, the optional YAML file and the environment.
func loadConfig(getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	path, explicit := getenv(envConfig), true
	if path == "" {
		path, explicit = defaultConfigFile, false
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if v := getenv(envTool); v != "" {
		cfg.Tool = v
	}
	if v := getenv(envVerbosity); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", envVerbosity, err)
		}
		cfg.Verbosity = n
	}
	if v := getenv(envImage); v != "" {
		cfg.Container.Image = v
	}
	if v := getenv(envEventLog); v != "" {
		cfg.EventLog.Path = v
	}
	if cfg.Tool == "" {
		cfg.Tool = dispatch.DefaultTool
	}
	cfg.Verbosity = int(dispatch.ClampVerb(cfg.Verbosity))
	return cfg, nil
}
