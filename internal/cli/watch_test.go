package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mxtweaks/tweakctl/internal/checkpoint"
	"github.com/mxtweaks/tweakctl/internal/gate"
	"github.com/mxtweaks/tweakctl/internal/model"
	"github.com/mxtweaks/tweakctl/internal/policy"
	"github.com/mxtweaks/tweakctl/internal/privilege"
)

// The daemon shares its store directory with foreground commands, so its
// checkpoints must never trigger pruning. Retention runs only on the
// foreground paths.
func TestAutosaveDoesNotPrune(t *testing.T) {
	store, err := checkpoint.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	srcDir := t.TempDir()
	tracked := filepath.Join(srcDir, "sysctl.conf")
	if err := os.WriteFile(tracked, []byte("vm.swappiness=10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	seed := checkpoint.DefaultKeep + 2
	for i := 0; i < seed; i++ {
		if _, err := store.Create(fmt.Sprintf("seed%d", i), []string{tracked}); err != nil {
			t.Fatalf("seed checkpoint %d failed: %v", i, err)
		}
	}

	oracle := privilege.NewWithLevel(model.LevelUser, policy.DefaultTable())
	g := gate.New(oracle, store, nil, gate.Config{KeepCheckpoints: checkpoint.DefaultKeep})

	out := g.Execute(context.Background(), autosaveOperation(store, "autosave", []string{tracked}), gate.ExecuteOptions{})
	if out.State != gate.StateSucceeded {
		t.Fatalf("autosave checkpoint failed: %s (%s)", out.State, out.Result.Reason)
	}

	cps, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(cps) != seed+1 {
		t.Errorf("expected %d checkpoints after autosave, got %d: pruning ran", seed+1, len(cps))
	}
}
