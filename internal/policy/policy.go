package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mxtweaks/tweakctl/internal/model"
)

// Table maps operation categories to the privilege level they require.
// Every category used anywhere in the catalog must have an entry; a lookup
// miss is treated as requiring root, never as allowed.
type Table struct {
	Require map[model.Category]string `yaml:"require"`
}

// DefaultTable returns the built-in policy table. All categories the catalog
// uses are enumerated explicitly.
func DefaultTable() *Table {
	return &Table{
		Require: map[model.Category]string{
			model.CatSystemCleanup:       "root",
			model.CatPerformance:         "root",
			model.CatNetworkOptimization: "root",
			model.CatSecurityHardening:   "root",
			model.CatAppearance:          "user",
			model.CatInformationDisplay:  "user",
			model.CatBackup:              "user",
		},
	}
}

// RequiredLevel returns the privilege level a category needs.
// Unknown categories and unparseable levels require root (fail-safe).
func (t *Table) RequiredLevel(cat model.Category) model.PrivilegeLevel {
	s, ok := t.Require[cat]
	if !ok {
		return model.LevelRoot
	}
	switch s {
	case "user":
		return model.LevelUser
	case "root":
		return model.LevelRoot
	default:
		return model.LevelRoot
	}
}

// Known reports whether the category has an explicit table entry.
func (t *Table) Known(cat model.Category) bool {
	_, ok := t.Require[cat]
	return ok
}

// DefaultPath returns the default policy file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tweakctl", "policy.yaml")
}

// Load reads the policy table from a YAML file. Empty path falls back to
// ~/.config/tweakctl/policy.yaml. Missing file returns defaults. Invalid
// YAML returns an error.
func Load(path string) (*Table, error) {
	t, _, err := LoadWithHash(path)
	return t, err
}

// LoadWithHash loads the policy table and returns the SHA-256 of the raw
// YAML bytes, for stamping audit entries. When no file exists (defaults
// used), the hash is the SHA-256 of empty input.
func LoadWithHash(path string) (*Table, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if path == "" || os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return DefaultTable(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("failed to read policy table: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified entries.
	t := DefaultTable()
	var overlay Table
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, "", fmt.Errorf("failed to parse policy table: %w", err)
	}
	for cat, lvl := range overlay.Require {
		t.Require[cat] = lvl
	}

	return t, hash, nil
}

// DefaultTableYAML returns a commented YAML string for init-policy.
func DefaultTableYAML() string {
	return `# tweakctl policy table
# Generated by: tweakctl init-policy
#
# Maps operation categories to the privilege level they require.
# Levels: user | root
# Categories absent from this table always require root (fail-safe);
# add an explicit entry rather than relying on the default.
require:
  system_cleanup: root
  performance: root
  network_optimization: root
  security_hardening: root
  appearance: user
  information_display: user
  backup: user
`
}
