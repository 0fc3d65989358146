// Package config loads and stores the application configuration. The
// resulting value is created once at process start and passed to
// collaborators explicitly; nothing reads it through a global.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mxtweaks/tweakctl/internal/checkpoint"
)

// Duration marshals as a human-readable string ("24h", "5s") instead of
// raw nanoseconds. Bare integers in the YAML are read as seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got %v", value.Kind)
	}
	s := value.Value
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// WatchConfig tunes the background checkpoint scheduler.
type WatchConfig struct {
	// Interval between periodic checkpoints; zero disables the timer.
	Interval Duration `yaml:"interval"`
	// PollMode forces directory polling instead of fsnotify.
	PollMode bool `yaml:"poll_mode"`
	// PollInterval is the polling cadence when PollMode is on.
	PollInterval Duration `yaml:"poll_interval"`
	// Debounce coalesces bursts of file change events.
	Debounce Duration `yaml:"debounce"`
}

// Config holds all configurable application parameters.
type Config struct {
	// SafeMode enables automatic pre-operation checkpoints. The core may
	// toggle this; everything else here is read-only after load.
	SafeMode bool `yaml:"safe_mode"`
	// MaxCheckpoints bounds the store; older checkpoints are pruned.
	MaxCheckpoints int `yaml:"max_checkpoints"`
	// CheckpointDir is the store root.
	CheckpointDir string `yaml:"checkpoint_dir"`
	// AuditLog is the outcome log path.
	AuditLog string `yaml:"audit_log"`
	// TrackedPaths are snapshotted by the manual checkpoint operation
	// and guarded by the watch scheduler.
	TrackedPaths []string    `yaml:"tracked_paths"`
	Watch        WatchConfig `yaml:"watch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SafeMode:       true,
		MaxCheckpoints: checkpoint.DefaultKeep,
		CheckpointDir:  checkpoint.DefaultDir(),
		Watch: WatchConfig{
			Interval:     Duration(24 * time.Hour),
			PollInterval: Duration(5 * time.Second),
			Debounce:     Duration(2 * time.Second),
		},
	}
}

// Dir returns the application configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tweakctl")
	}
	return filepath.Join(home, ".config", "tweakctl")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads configuration from a YAML file. Empty path falls back to the
// default location. Missing file returns defaults. Invalid YAML returns an
// error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration atomically so a crash mid-write cannot
// corrupt it.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// MarshalDefault returns the built-in configuration as YAML, for
// bootstrapping a new config file.
func MarshalDefault() ([]byte, error) {
	return yaml.Marshal(Default())
}

// SetSafeMode toggles the safe-mode flag and persists the change.
func SetSafeMode(path string, enabled bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.SafeMode = enabled
	if err := Save(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
