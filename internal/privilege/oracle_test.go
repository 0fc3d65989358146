package privilege

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mxtweaks/tweakctl/internal/model"
	"github.com/mxtweaks/tweakctl/internal/policy"
)

func TestIsAllowedAtUserLevel(t *testing.T) {
	o := NewWithLevel(model.LevelUser, policy.DefaultTable())

	tests := []struct {
		cat  model.Category
		want bool
	}{
		{model.CatInformationDisplay, true},
		{model.CatAppearance, true},
		{model.CatBackup, true},
		{model.CatSystemCleanup, false},
		{model.CatNetworkOptimization, false},
		{model.Category("unknown_category"), false},
	}
	for _, tt := range tests {
		if got := o.IsAllowed(tt.cat); got != tt.want {
			t.Errorf("IsAllowed(%s) at user = %v, want %v", tt.cat, got, tt.want)
		}
	}
}

func TestIsAllowedAtRootLevel(t *testing.T) {
	o := NewWithLevel(model.LevelRoot, policy.DefaultTable())

	for _, cat := range []model.Category{
		model.CatSystemCleanup,
		model.CatAppearance,
		model.Category("unknown_category"),
	} {
		if !o.IsAllowed(cat) {
			t.Errorf("IsAllowed(%s) at root = false, want true", cat)
		}
	}
}

func TestCurrentLevelFixed(t *testing.T) {
	o := NewWithLevel(model.LevelUser, policy.DefaultTable())
	if o.CurrentLevel() != model.LevelUser {
		t.Errorf("expected user level, got %s", o.CurrentLevel())
	}
}

func TestEscalationDeniedWithoutGraphicalSession(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	o := NewWithLevel(model.LevelUser, policy.DefaultTable())
	out := o.RequestEscalation(context.Background(), "test")
	if out.Relaunched {
		t.Fatal("escalation without display must not relaunch")
	}
	if out.Reason == "" {
		t.Error("denial must carry a reason")
	}
}

func TestEscalationDeniedWhenHelperMissing(t *testing.T) {
	t.Setenv("DISPLAY", ":0")

	o := NewWithLevel(model.LevelUser, policy.DefaultTable())
	o.Helper = "tweakctl-no-such-helper"
	out := o.RequestEscalation(context.Background(), "test")
	if out.Relaunched {
		t.Fatal("missing helper must not relaunch")
	}
	if out.Reason == "" {
		t.Error("denial must carry a reason")
	}
}

func TestEscalationDeniedAtRoot(t *testing.T) {
	o := NewWithLevel(model.LevelRoot, policy.DefaultTable())
	out := o.RequestEscalation(context.Background(), "test")
	if out.Relaunched {
		t.Fatal("root must not re-escalate")
	}
}

func TestEscalationRelaunchPropagatesExitCode(t *testing.T) {
	t.Setenv("DISPLAY", ":0")

	// Stand-in helper that ignores its arguments and exits 0.
	dir := t.TempDir()
	helper := filepath.Join(dir, "fake-pkexec")
	if err := os.WriteFile(helper, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	o := NewWithLevel(model.LevelUser, policy.DefaultTable())
	o.Helper = helper
	out := o.RequestEscalation(context.Background(), "test")
	if !out.Relaunched {
		t.Fatalf("expected relaunch, got denial: %s", out.Reason)
	}
	if out.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", out.ExitCode)
	}
}

func TestEscalationAuthorizationRefused(t *testing.T) {
	t.Setenv("DISPLAY", ":0")

	dir := t.TempDir()
	helper := filepath.Join(dir, "fake-pkexec")
	if err := os.WriteFile(helper, []byte("#!/bin/sh\nexit 127\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	o := NewWithLevel(model.LevelUser, policy.DefaultTable())
	o.Helper = helper
	out := o.RequestEscalation(context.Background(), "test")
	if out.Relaunched {
		t.Fatal("refused authorization must not count as relaunch")
	}
}

func TestEscalationCancelled(t *testing.T) {
	t.Setenv("DISPLAY", ":0")

	dir := t.TempDir()
	helper := filepath.Join(dir, "fake-pkexec")
	if err := os.WriteFile(helper, []byte("#!/bin/sh\nsleep 30\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewWithLevel(model.LevelUser, policy.DefaultTable())
	o.Helper = helper
	out := o.RequestEscalation(ctx, "test")
	if out.Relaunched {
		t.Fatal("cancelled escalation must not relaunch")
	}
	if out.Reason != "cancelled" {
		t.Errorf("expected reason cancelled, got %q", out.Reason)
	}
}
