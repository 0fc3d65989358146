package cli

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mxtweaks/tweakctl/internal/audit"
	"github.com/mxtweaks/tweakctl/internal/config"
	"github.com/mxtweaks/tweakctl/internal/policy"
	"github.com/mxtweaks/tweakctl/internal/privilege"
	"github.com/mxtweaks/tweakctl/internal/systemd"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	// 1. Binary location and version.
	execPath, _ := os.Executable()
	if execPath != "" {
		checks = append(checks, checkResult{
			label:  "tweakctl binary",
			ok:     true,
			detail: fmt.Sprintf("%s (v%s)", execPath, version),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "tweakctl binary",
			ok:     false,
			detail: "cannot determine executable path",
		})
	}

	// 2. Config directory and config.yaml.
	configDir := config.Dir()
	if info, err := os.Stat(configDir); err == nil && info.IsDir() {
		checks = append(checks, checkResult{label: "config directory", ok: true, detail: configDir})
	} else {
		checks = append(checks, checkResult{
			label:  "config directory",
			ok:     false,
			detail: "missing",
			fix:    "tweakctl init",
		})
	}
	if _, err := os.Stat(config.DefaultPath()); err == nil {
		checks = append(checks, checkResult{label: "config.yaml", ok: true, detail: "exists"})
	} else {
		checks = append(checks, checkResult{
			label:  "config.yaml",
			ok:     false,
			detail: "missing (built-in defaults in effect)",
			fix:    "tweakctl init",
		})
	}

	// 3. policy.yaml.
	if _, err := os.Stat(policy.DefaultPath()); err == nil {
		checks = append(checks, checkResult{label: "policy.yaml", ok: true, detail: "exists"})
	} else {
		checks = append(checks, checkResult{
			label:  "policy.yaml",
			ok:     false,
			detail: "missing (built-in policy in effect)",
			fix:    "tweakctl init-policy",
		})
	}

	// 4. Checkpoint store.
	cfg, cfgErr := loadConfig()
	if cfgErr == nil {
		if info, err := os.Stat(cfg.CheckpointDir); err == nil && info.IsDir() {
			checks = append(checks, checkResult{label: "checkpoint store", ok: true, detail: cfg.CheckpointDir})
		} else {
			checks = append(checks, checkResult{
				label:  "checkpoint store",
				ok:     false,
				detail: "missing (created on first checkpoint)",
			})
		}
	} else {
		checks = append(checks, checkResult{
			label:  "config load",
			ok:     false,
			detail: cfgErr.Error(),
		})
	}

	// 5. Outcome log chain.
	auditPath := audit.DefaultPath()
	if cfgErr == nil && cfg.AuditLog != "" {
		auditPath = cfg.AuditLog
	}
	if _, err := os.Stat(auditPath); err == nil {
		result := audit.Verify(auditPath)
		if result.Valid {
			checks = append(checks, checkResult{
				label:  "outcome log",
				ok:     true,
				detail: fmt.Sprintf("%d entries, chain valid", result.Lines),
			})
		} else {
			checks = append(checks, checkResult{
				label:  "outcome log",
				ok:     false,
				detail: fmt.Sprintf("chain broken at line %d", result.ErrorLine),
			})
		}
	} else {
		checks = append(checks, checkResult{label: "outcome log", ok: true, detail: "empty"})
	}

	// 6. Escalation helper.
	if _, err := exec.LookPath("pkexec"); err == nil {
		if privilege.HasGraphicalSession() {
			checks = append(checks, checkResult{label: "escalation", ok: true, detail: "pkexec available"})
		} else {
			checks = append(checks, checkResult{
				label:  "escalation",
				ok:     false,
				detail: "pkexec present but no graphical session",
				fix:    "run root operations with sudo",
			})
		}
	} else {
		checks = append(checks, checkResult{
			label:  "escalation",
			ok:     false,
			detail: "pkexec not found",
			fix:    "install polkit, or run root operations with sudo",
		})
	}

	// 7. systemd watcher unit (Linux only).
	if runtime.GOOS == "linux" {
		installed := false
		for _, p := range systemd.UnitFilePaths {
			if _, err := os.Stat(p); err == nil {
				installed = true
				break
			}
		}
		if installed {
			detail := "installed"
			if warn := systemd.CheckUnitFileIntegrity(); warn != "" {
				checks = append(checks, checkResult{label: "watch service", ok: false, detail: warn})
			} else {
				checks = append(checks, checkResult{label: "watch service", ok: true, detail: detail})
			}
		} else {
			checks = append(checks, checkResult{
				label:  "watch service",
				ok:     false,
				detail: "not installed",
				fix:    "sudo tweakctl init --install-systemd",
			})
		}
	}

	// Print results.
	hasFailures := false
	for _, c := range checks {
		mark := "✓"
		if !c.ok {
			mark = "✗"
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Println(line)
	}

	if hasFailures {
		fmt.Println()
		fmt.Println("Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Println()
	fmt.Println("All checks passed.")
	return nil
}
