package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mxtweaks/tweakctl/internal/model"
)

func TestDefaultTableCoversCatalogCategories(t *testing.T) {
	tbl := DefaultTable()
	cats := []model.Category{
		model.CatSystemCleanup,
		model.CatPerformance,
		model.CatNetworkOptimization,
		model.CatSecurityHardening,
		model.CatAppearance,
		model.CatInformationDisplay,
		model.CatBackup,
	}
	for _, c := range cats {
		if !tbl.Known(c) {
			t.Errorf("category %s missing from default table", c)
		}
	}
}

func TestUnknownCategoryRequiresRoot(t *testing.T) {
	tbl := DefaultTable()
	if got := tbl.RequiredLevel(model.Category("no_such_category")); got != model.LevelRoot {
		t.Errorf("unknown category: expected root, got %s", got)
	}
}

func TestUnparseableLevelRequiresRoot(t *testing.T) {
	tbl := &Table{Require: map[model.Category]string{"weird": "superuser"}}
	if got := tbl.RequiredLevel("weird"); got != model.LevelRoot {
		t.Errorf("bad level string: expected root, got %s", got)
	}
}

func TestRequiredLevels(t *testing.T) {
	tbl := DefaultTable()
	tests := []struct {
		cat  model.Category
		want model.PrivilegeLevel
	}{
		{model.CatSystemCleanup, model.LevelRoot},
		{model.CatAppearance, model.LevelUser},
		{model.CatInformationDisplay, model.LevelUser},
		{model.CatBackup, model.LevelUser},
	}
	for _, tt := range tests {
		if got := tbl.RequiredLevel(tt.cat); got != tt.want {
			t.Errorf("RequiredLevel(%s) = %s, want %s", tt.cat, got, tt.want)
		}
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	tbl, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tbl.RequiredLevel(model.CatAppearance) != model.LevelUser {
		t.Error("defaults not applied for missing file")
	}
}

func TestLoadOverlayKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := "require:\n  appearance: root\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tbl.RequiredLevel(model.CatAppearance) != model.LevelRoot {
		t.Error("overlay did not override appearance")
	}
	if tbl.RequiredLevel(model.CatSystemCleanup) != model.LevelRoot {
		t.Error("default entry lost after overlay")
	}
	if tbl.RequiredLevel(model.CatInformationDisplay) != model.LevelUser {
		t.Error("unrelated default entry changed by overlay")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("require: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadWithHashStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("require:\n  backup: user\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, h1, err := LoadWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	_, h2, err := LoadWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("hash not stable: %s vs %s", h1, h2)
	}
	if !strings.HasPrefix(h1, "sha256:") {
		t.Errorf("hash missing prefix: %s", h1)
	}
}

func TestDefaultTableYAMLParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(DefaultTableYAML()), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("generated YAML does not parse: %v", err)
	}
	if tbl.RequiredLevel(model.CatSystemCleanup) != model.LevelRoot {
		t.Error("generated YAML lost system_cleanup entry")
	}
}
