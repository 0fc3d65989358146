package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.SafeMode {
		t.Error("safe mode should default on")
	}
	if cfg.MaxCheckpoints != 10 {
		t.Errorf("expected default 10 checkpoints, got %d", cfg.MaxCheckpoints)
	}
}

func TestLoadOverlayKeepsUnspecifiedDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "safe_mode: false\nmax_checkpoints: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SafeMode {
		t.Error("safe_mode: false not applied")
	}
	if cfg.MaxCheckpoints != 3 {
		t.Errorf("max_checkpoints not applied: %d", cfg.MaxCheckpoints)
	}
	if cfg.Watch.Debounce.Std() != 2*time.Second {
		t.Errorf("unspecified watch.debounce lost its default: %s", cfg.Watch.Debounce.Std())
	}
}

func TestDurationParsesHumanStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "watch:\n  interval: 24h\n  poll_interval: 30\n  debounce: 500ms\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Watch.Interval.Std() != 24*time.Hour {
		t.Errorf("interval: 24h parsed as %s", cfg.Watch.Interval.Std())
	}
	// Bare integers are seconds.
	if cfg.Watch.PollInterval.Std() != 30*time.Second {
		t.Errorf("poll_interval: 30 parsed as %s", cfg.Watch.PollInterval.Std())
	}
	if cfg.Watch.Debounce.Std() != 500*time.Millisecond {
		t.Errorf("debounce: 500ms parsed as %s", cfg.Watch.Debounce.Std())
	}
}

func TestDurationMarshalsReadable(t *testing.T) {
	data, err := MarshalDefault()
	if err != nil {
		t.Fatalf("MarshalDefault failed: %v", err)
	}
	if !strings.Contains(string(data), "interval: 24h0m0s") {
		t.Errorf("interval not written as a duration string:\n%s", data)
	}
	if strings.Contains(string(data), "86400000000000") {
		t.Error("duration written as raw nanoseconds")
	}
}

func TestDurationRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("watch:\n  interval: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("safe_mode: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.MaxCheckpoints = 7
	cfg.TrackedPaths = []string{"/etc/fstab"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.MaxCheckpoints != 7 {
		t.Errorf("max_checkpoints lost: %d", got.MaxCheckpoints)
	}
	if len(got.TrackedPaths) != 1 || got.TrackedPaths[0] != "/etc/fstab" {
		t.Errorf("tracked paths lost: %v", got.TrackedPaths)
	}
}

func TestSetSafeModePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := SetSafeMode(path, false)
	if err != nil {
		t.Fatalf("SetSafeMode failed: %v", err)
	}
	if cfg.SafeMode {
		t.Error("returned config still has safe mode on")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SafeMode {
		t.Error("safe mode toggle not persisted")
	}
}
