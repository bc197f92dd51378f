package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"symgen/internal/errors"
	"symgen/internal/util"
)

const (
	// AppName is the name of the application
	AppName = "symgen"
	// FileName is the settings file looked up in the application directory
	FileName = "config.yaml"

	DefaultMemory   = "8G"
	DefaultCPUs     = 2.0
	DefaultPlatform = "linux/amd64"
	DefaultTimeout  = "30m"

	// MinCPUs is the smallest CPU share the daemon accepts.
	MinCPUs = 0.01
)

// Settings are the user-tunable knobs for a generation run.
type Settings struct {
	Memory    string  `yaml:"memory"`
	CPUs      float64 `yaml:"cpus"`
	Platform  string  `yaml:"platform"`
	OutputDir string  `yaml:"output_dir"`
	// Timeout bounds one container run; "0" disables it.
	Timeout string `yaml:"timeout"`
}

// Config holds the application's configuration.
type Config struct {
	homeDir string
	Settings
}

// New creates a new Config instance with default settings.
var New = func() (*Config, error) {
	var home string
	var err error

	// Check for the override environment variable first.
	// This is useful for testing.
	homeOverride := os.Getenv("SYMGEN_HOME")
	if homeOverride != "" {
		home = homeOverride
	} else {
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		homeDir: home,
		Settings: Settings{
			Memory:   DefaultMemory,
			CPUs:     DefaultCPUs,
			Platform: DefaultPlatform,
		},
	}, nil
}

// GetAppDir returns the path to the application's hidden directory.
func (c *Config) GetAppDir() string {
	return filepath.Join(c.homeDir, "."+AppName)
}

// DefaultPath is the settings file used when none is given explicitly.
func (c *Config) DefaultPath() string {
	return filepath.Join(c.GetAppDir(), FileName)
}

// Load overlays the settings file at path, or the default file when path is
// empty, and then the environment. A missing default file is not an error.
func (c *Config) Load(path string) error {
	explicit := path != ""
	if !explicit {
		path = c.DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := c.decode(data); err != nil {
			return fmt.Errorf("%w: %s: %v", errors.ErrInvalidInput, path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return fmt.Errorf("%w: reading %s: %v", errors.ErrInvalidInput, path, err)
	}

	return c.applyEnv()
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c.Settings); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SYMGEN_MEMORY"); v != "" {
		c.Memory = v
	}
	if v := os.Getenv("SYMGEN_CPUS"); v != "" {
		cpus, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: SYMGEN_CPUS=%q is not a number", errors.ErrInvalidInput, v)
		}
		c.CPUs = cpus
	}
	if v := os.Getenv("SYMGEN_PLATFORM"); v != "" {
		c.Platform = v
	}
	if v := os.Getenv("SYMGEN_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("SYMGEN_TIMEOUT"); v != "" {
		c.Timeout = v
	}
	return nil
}

// MemoryBytes returns the container memory ceiling in bytes.
func (c *Config) MemoryBytes() (int64, error) {
	return util.ParseSize(c.Memory)
}

// RunTimeout returns the container run timeout; zero means none.
func (c *Config) RunTimeout() (time.Duration, error) {
	if c.Timeout == "" || c.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout: %v", errors.ErrInvalidInput, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: timeout must not be negative, got %q", errors.ErrInvalidInput, c.Timeout)
	}
	return d, nil
}

// Validate rejects settings a container could not be started with.
func (c *Config) Validate() error {
	mem, err := c.MemoryBytes()
	if err != nil {
		return fmt.Errorf("%w: memory: %v", errors.ErrInvalidInput, err)
	}
	if mem <= 0 {
		return fmt.Errorf("%w: memory must be positive, got %q", errors.ErrInvalidInput, c.Memory)
	}
	if c.CPUs <= 0 {
		return fmt.Errorf("%w: cpus must be positive, got %v", errors.ErrInvalidInput, c.CPUs)
	}
	if c.CPUs < MinCPUs {
		return fmt.Errorf("%w: cpus must be at least %v, got %v", errors.ErrInvalidInput, MinCPUs, c.CPUs)
	}
	if _, err := c.RunTimeout(); err != nil {
		return err
	}
	if goos, arch, ok := strings.Cut(c.Platform, "/"); !ok || goos == "" || arch == "" {
		return fmt.Errorf("%w: platform %q is not os/arch", errors.ErrInvalidInput, c.Platform)
	}
	return nil
}
