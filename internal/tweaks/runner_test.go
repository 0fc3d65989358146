package tweaks

import (
	"strings"
	"testing"
	"time"

	"github.com/mxtweaks/tweakctl/internal/checkpoint"
	"github.com/mxtweaks/tweakctl/internal/model"
	"github.com/mxtweaks/tweakctl/internal/policy"
	"github.com/mxtweaks/tweakctl/internal/registry"
)

func TestRunSuccess(t *testing.T) {
	r := NewRunner()
	res := r.Run("sh", "-c", "exit 0")
	if !res.Succeeded() {
		t.Errorf("expected success, got %s (%s)", res.Status, res.Reason)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := NewRunner()
	res := r.Run("sh", "-c", "echo boom >&2; exit 3")
	if res.Succeeded() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Reason, "exited 3") {
		t.Errorf("reason missing exit code: %q", res.Reason)
	}
	if !strings.Contains(res.Reason, "boom") {
		t.Errorf("reason missing stderr excerpt: %q", res.Reason)
	}
}

func TestRunMissingBinary(t *testing.T) {
	r := NewRunner()
	res := r.Run("tweakctl-no-such-binary")
	if res.Succeeded() {
		t.Fatal("expected failure for missing binary")
	}
}

func TestRunTimeout(t *testing.T) {
	r := Runner{Timeout: 100 * time.Millisecond}
	res := r.Run("sleep", "10")
	if res.Succeeded() {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(res.Reason, "timed out") {
		t.Errorf("reason should mention timeout: %q", res.Reason)
	}
}

func TestChainStopsAtFirstFailure(t *testing.T) {
	r := NewRunner()
	res := r.Chain([][]string{
		{"sh", "-c", "exit 0"},
		{"sh", "-c", "exit 1"},
		{"sh", "-c", "exit 0"},
	})
	if res.Succeeded() {
		t.Fatal("expected chain failure")
	}
	if !strings.Contains(res.Reason, "exited 1") {
		t.Errorf("unexpected reason: %q", res.Reason)
	}
}

func TestCatalogRegisters(t *testing.T) {
	store, err := checkpoint.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	reg := registry.New()
	if err := Register(reg, store, NewRunner(), nil); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ops := reg.List()
	if len(ops) == 0 {
		t.Fatal("catalog registered no operations")
	}

	// Every catalog category must have an explicit policy table entry.
	tbl := policy.DefaultTable()
	for _, op := range ops {
		if !tbl.Known(op.Category) {
			t.Errorf("operation %s uses category %s missing from the policy table", op.ID, op.Category)
		}
	}
}

func TestCheckpointOperationSnapshotsTrackedPaths(t *testing.T) {
	store, err := checkpoint.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	reg := registry.New()

	tracked := []string{"/definitely/not/present.conf"}
	if err := Register(reg, store, NewRunner(), tracked); err != nil {
		t.Fatal(err)
	}

	op, ok := reg.Lookup("create_checkpoint")
	if !ok {
		t.Fatal("create_checkpoint not registered")
	}
	if op.Category != model.CatBackup {
		t.Errorf("expected backup category, got %s", op.Category)
	}

	res := op.Effect()
	if !res.Succeeded() {
		t.Fatalf("checkpoint effect failed: %s", res.Reason)
	}
	if res.CheckpointID == "" {
		t.Fatal("checkpoint effect did not report an ID")
	}

	cp, err := store.Get(res.CheckpointID)
	if err != nil {
		t.Fatal(err)
	}
	// The only tracked path is absent: recorded as skipped, not dropped.
	if len(cp.Meta.Files) != 1 || len(cp.FailedFiles()) != 1 {
		t.Errorf("missing tracked path not recorded: %+v", cp.Meta)
	}
}
