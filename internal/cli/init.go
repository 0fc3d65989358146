package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mxtweaks/tweakctl/internal/checkpoint"
	"github.com/mxtweaks/tweakctl/internal/config"
	"github.com/mxtweaks/tweakctl/internal/policy"
	"github.com/mxtweaks/tweakctl/internal/systemd"
)

var (
	initInstallSystemd bool
	initForce          bool
)

func init() {
	initCmd.Flags().BoolVar(&initInstallSystemd, "install-systemd", false, "Install the tweakctl systemd units (requires root)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap tweakctl configuration and optional systemd integration",
	Long: `Creates the config directory, default config, privilege policy, and
checkpoint store under ~/.config/tweakctl/.

With --install-systemd: installs tweakctl-watch.service plus a daily
tweakctl-checkpoint.timer so tracked config files are checkpointed
automatically:
  systemctl enable --now tweakctl-watch
  systemctl enable --now tweakctl-checkpoint.timer`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	var created []string

	if err := os.MkdirAll(config.Dir(), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	// Write config.yaml.
	cfgYAML, err := defaultConfigYAML()
	if err != nil {
		return fmt.Errorf("generate default config: %w", err)
	}
	if wrote, err := writeIfMissing(config.DefaultPath(), cfgYAML); err != nil {
		return err
	} else if wrote {
		created = append(created, config.DefaultPath())
	}

	// Write policy.yaml.
	if wrote, err := writeIfMissing(policy.DefaultPath(), policy.DefaultTableYAML()); err != nil {
		return err
	} else if wrote {
		created = append(created, policy.DefaultPath())
	}

	// Create the checkpoint store root.
	if _, err := checkpoint.NewStore(checkpoint.DefaultDir()); err != nil {
		return fmt.Errorf("create checkpoint store: %w", err)
	}

	// Install systemd units if requested.
	if initInstallSystemd {
		if runtime.GOOS != "linux" {
			return fmt.Errorf("--install-systemd is only supported on Linux")
		}
		if os.Geteuid() != 0 {
			return fmt.Errorf("--install-systemd requires root; run with sudo")
		}

		units, err := installSystemdUnits(systemdUnitDir)
		if err != nil {
			return err
		}
		created = append(created, units...)

		if err := os.MkdirAll(filepath.Dir(systemd.UnitHashPath), 0o755); err == nil {
			if err := systemd.RecordUnitFileHash(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: cannot record unit file hash: %v\n", err)
			}
		}

		if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: systemctl daemon-reload failed: %v\n", err)
		}
	}

	fmt.Println("tweakctl init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
		fmt.Println()
	}

	fmt.Println("Verify:")
	fmt.Println("  tweakctl doctor")
	fmt.Println()
	fmt.Println("Apply a tweak:")
	fmt.Println("  tweakctl list")
	fmt.Println("  tweakctl apply <operation-id>")

	if initInstallSystemd {
		fmt.Println()
		fmt.Println("Enable the config watcher and daily checkpoint timer:")
		fmt.Println("  sudo systemctl enable --now tweakctl-watch")
		fmt.Println("  sudo systemctl enable --now tweakctl-checkpoint.timer")
	}

	return nil
}

const systemdUnitDir = "/etc/systemd/system"

// installSystemdUnits writes the watch service plus the daily checkpoint
// timer and its oneshot service into dir. Returns the paths written.
func installSystemdUnits(dir string) ([]string, error) {
	units := []struct {
		name    string
		content string
	}{
		{"tweakctl-watch.service", systemd.WatchTemplate()},
		{"tweakctl-checkpoint.service", systemd.CheckpointServiceTemplate()},
		{"tweakctl-checkpoint.timer", systemd.TimerTemplate()},
	}

	var written []string
	for _, u := range units {
		path := filepath.Join(dir, u.name)
		if err := os.WriteFile(path, []byte(u.content), 0o644); err != nil {
			return written, fmt.Errorf("write systemd unit %s: %w", u.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// defaultConfigYAML generates a commented default config.yaml.
func defaultConfigYAML() (string, error) {
	data, err := config.MarshalDefault()
	if err != nil {
		return "", err
	}
	header := "# tweakctl configuration.\n" +
		"# safe_mode snapshots declared files before every mutating tweak.\n" +
		"# tracked_paths are the files guarded by manual and watch checkpoints;\n" +
		"# an empty list uses the built-in set.\n\n"
	return header + string(data), nil
}
