package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"symgen/internal/errors"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("SYMGEN_HOME", t.TempDir())
	for _, k := range []string{"SYMGEN_MEMORY", "SYMGEN_CPUS", "SYMGEN_PLATFORM", "SYMGEN_OUTPUT_DIR", "SYMGEN_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() returned an error: %v", err)
	}
	return cfg
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestGetAppDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SYMGEN_HOME", home)

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() returned an error: %v", err)
	}

	expectedAppDir := filepath.Join(home, "."+AppName)
	if got := cfg.GetAppDir(); got != expectedAppDir {
		t.Errorf("GetAppDir() = %v, want %v", got, expectedAppDir)
	}
	if got := cfg.DefaultPath(); got != filepath.Join(expectedAppDir, FileName) {
		t.Errorf("DefaultPath() = %v", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := newTestConfig(t)
	if err := cfg.Load(""); err != nil {
		t.Fatalf("Load() without a settings file returned an error: %v", err)
	}

	mem, err := cfg.MemoryBytes()
	if err != nil {
		t.Fatalf("MemoryBytes() returned an error: %v", err)
	}
	if mem != 8<<30 {
		t.Errorf("MemoryBytes() = %d, want %d", mem, int64(8<<30))
	}
	if cfg.CPUs != DefaultCPUs || cfg.Platform != DefaultPlatform || cfg.OutputDir != "" {
		t.Errorf("unexpected defaults: %+v", cfg.Settings)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults returned an error: %v", err)
	}
	timeout, err := cfg.RunTimeout()
	if err != nil || timeout != 30*time.Minute {
		t.Errorf("RunTimeout() = %v, %v, want 30m", timeout, err)
	}
}

func TestRunTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "45m", want: 45 * time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "0", want: 0},
		{in: "", want: 0},
		{in: "-5m", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := &Config{Settings: Settings{Timeout: tt.in}}
			got, err := cfg.RunTimeout()
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunTimeout() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("RunTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad_TimeoutFromEnv(t *testing.T) {
	cfg := newTestConfig(t)
	t.Setenv("SYMGEN_TIMEOUT", "2h")
	if err := cfg.Load(""); err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if got, _ := cfg.RunTimeout(); got != 2*time.Hour {
		t.Errorf("RunTimeout() = %v, want 2h", got)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	cfg := newTestConfig(t)
	writeConfig(t, cfg.DefaultPath(), "memory: 4G\ncpus: 4\noutput_dir: /tmp/symbols\n")

	if err := cfg.Load(""); err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if cfg.Memory != "4G" || cfg.CPUs != 4 || cfg.OutputDir != "/tmp/symbols" {
		t.Errorf("file settings not applied: %+v", cfg.Settings)
	}
	if cfg.Platform != DefaultPlatform {
		t.Errorf("unset key should keep its default, got %q", cfg.Platform)
	}

	t.Setenv("SYMGEN_MEMORY", "16G")
	t.Setenv("SYMGEN_CPUS", "1.5")
	t.Setenv("SYMGEN_OUTPUT_DIR", "/out")
	if err := cfg.Load(""); err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if cfg.Memory != "16G" || cfg.CPUs != 1.5 || cfg.OutputDir != "/out" {
		t.Errorf("environment did not override the file: %+v", cfg.Settings)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	cfg := newTestConfig(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeConfig(t, path, "platform: linux/arm64\n")

	if err := cfg.Load(path); err != nil {
		t.Fatalf("Load(%q) returned an error: %v", path, err)
	}
	if cfg.Platform != "linux/arm64" {
		t.Errorf("Platform = %q, want linux/arm64", cfg.Platform)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, cfg *Config) string
		wantErr bool
	}{
		{
			name: "missing explicit file",
			setup: func(t *testing.T, cfg *Config) string {
				return filepath.Join(t.TempDir(), "nope.yaml")
			},
			wantErr: true,
		},
		{
			name: "unknown key",
			setup: func(t *testing.T, cfg *Config) string {
				writeConfig(t, cfg.DefaultPath(), "memroy: 4G\n")
				return ""
			},
			wantErr: true,
		},
		{
			name: "malformed yaml",
			setup: func(t *testing.T, cfg *Config) string {
				writeConfig(t, cfg.DefaultPath(), "memory: [4G\n")
				return ""
			},
			wantErr: true,
		},
		{
			name: "empty file",
			setup: func(t *testing.T, cfg *Config) string {
				writeConfig(t, cfg.DefaultPath(), "")
				return ""
			},
		},
		{
			name: "bad cpus env",
			setup: func(t *testing.T, cfg *Config) string {
				t.Setenv("SYMGEN_CPUS", "lots")
				return ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t)
			err := cfg.Load(tt.setup(t, cfg))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !stderrors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("Load() error %v is not ErrInvalidInput", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantErr  bool
	}{
		{"defaults", Settings{Memory: "8G", CPUs: 2, Platform: "linux/amd64"}, false},
		{"fractional cpus", Settings{Memory: "512M", CPUs: 0.5, Platform: "linux/amd64"}, false},
		{"zero memory", Settings{Memory: "0", CPUs: 2, Platform: "linux/amd64"}, true},
		{"garbage memory", Settings{Memory: "lots", CPUs: 2, Platform: "linux/amd64"}, true},
		{"zero cpus", Settings{Memory: "8G", CPUs: 0, Platform: "linux/amd64"}, true},
		{"negative cpus", Settings{Memory: "8G", CPUs: -1, Platform: "linux/amd64"}, true},
		{"cpus below the daemon minimum", Settings{Memory: "8G", CPUs: 0.005, Platform: "linux/amd64"}, true},
		{"smallest cpu share", Settings{Memory: "8G", CPUs: 0.01, Platform: "linux/amd64"}, false},
		{"overflowing memory", Settings{Memory: "99999999999T", CPUs: 2, Platform: "linux/amd64"}, true},
		{"bad timeout", Settings{Memory: "8G", CPUs: 2, Platform: "linux/amd64", Timeout: "forever"}, true},
		{"bad platform", Settings{Memory: "8G", CPUs: 2, Platform: "amd64"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Settings: tt.settings}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
