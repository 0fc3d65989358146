package tweaks

import (
	"fmt"

	"github.com/mxtweaks/tweakctl/internal/checkpoint"
	"github.com/mxtweaks/tweakctl/internal/model"
	"github.com/mxtweaks/tweakctl/internal/registry"
)

// DefaultTrackedPaths are the configuration files the manual checkpoint
// operation and the watch scheduler guard by default.
var DefaultTrackedPaths = []string{
	"/etc/fstab",
	"/etc/sysctl.conf",
	"/etc/ssh/sshd_config",
	"/etc/ufw/ufw.conf",
	"/etc/resolv.conf",
}

// Register populates the registry with the built-in catalog. The store is
// needed by the checkpoint-creating operation; tracked is the path set it
// snapshots (nil means DefaultTrackedPaths).
func Register(reg *registry.Registry, store *checkpoint.Store, runner Runner, tracked []string) error {
	if len(tracked) == 0 {
		tracked = DefaultTrackedPaths
	}

	ops := []model.Operation{
		{
			ID:       "clean_apt_cache",
			Name:     "Clean APT package cache",
			Category: model.CatSystemCleanup,
			Effect: runner.chainEffect([][]string{
				{"apt-get", "clean"},
				{"apt-get", "autoclean"},
			}),
		},
		{
			ID:       "remove_orphan_packages",
			Name:     "Remove unneeded packages",
			Category: model.CatSystemCleanup,
			Effect:   runner.Command("apt-get", "autoremove", "-y"),
		},
		{
			ID:       "clean_journal",
			Name:     "Vacuum systemd journal to 100M",
			Category: model.CatSystemCleanup,
			Effect:   runner.Command("journalctl", "--vacuum-size=100M"),
		},
		{
			ID:            "disable_swap",
			Name:          "Disable swap and comment fstab entries",
			Category:      model.CatPerformance,
			DeclaredPaths: []string{"/etc/fstab"},
			Effect: runner.chainEffect([][]string{
				{"swapoff", "-a"},
				{"sed", "-i", `/ swap / s/^/#/`, "/etc/fstab"},
			}),
		},
		{
			ID:            "set_swappiness",
			Name:          "Set vm.swappiness to 10",
			Category:      model.CatPerformance,
			DeclaredPaths: []string{"/etc/sysctl.conf"},
			Effect:        runner.Command("sysctl", "-w", "vm.swappiness=10"),
		},
		{
			ID:       "cpu_governor_performance",
			Name:     "Set CPU governor to performance",
			Category: model.CatPerformance,
			Effect:   runner.Command("cpupower", "frequency-set", "-g", "performance"),
		},
		{
			ID:            "enable_bbr",
			Name:          "Enable TCP BBR congestion control",
			Category:      model.CatNetworkOptimization,
			DeclaredPaths: []string{"/etc/sysctl.conf"},
			Effect: runner.chainEffect([][]string{
				{"sysctl", "-w", "net.core.default_qdisc=fq"},
				{"sysctl", "-w", "net.ipv4.tcp_congestion_control=bbr"},
			}),
		},
		{
			ID:            "enable_tcp_fastopen",
			Name:          "Enable TCP Fast Open",
			Category:      model.CatNetworkOptimization,
			DeclaredPaths: []string{"/etc/sysctl.conf"},
			Effect:        runner.Command("sysctl", "-w", "net.ipv4.tcp_fastopen=3"),
		},
		{
			ID:            "enable_firewall",
			Name:          "Enable UFW with default deny incoming",
			Category:      model.CatSecurityHardening,
			DeclaredPaths: []string{"/etc/ufw/ufw.conf"},
			Effect: runner.chainEffect([][]string{
				{"ufw", "default", "deny", "incoming"},
				{"ufw", "--force", "enable"},
			}),
		},
		{
			ID:            "harden_ssh",
			Name:          "Disable SSH root login",
			Category:      model.CatSecurityHardening,
			DeclaredPaths: []string{"/etc/ssh/sshd_config"},
			Effect: runner.chainEffect([][]string{
				{"sed", "-i", "s/^#\\?PermitRootLogin.*/PermitRootLogin no/", "/etc/ssh/sshd_config"},
				{"systemctl", "reload", "ssh"},
			}),
		},
		{
			ID:       "set_dark_theme",
			Name:     "Switch desktop to the dark theme",
			Category: model.CatAppearance,
			Effect:   runner.Command("gsettings", "set", "org.gnome.desktop.interface", "color-scheme", "prefer-dark"),
		},
		{
			ID:       "show_system_info",
			Name:     "Show kernel and hardware summary",
			Category: model.CatInformationDisplay,
			Effect:   runner.Command("uname", "-a"),
		},
		{
			ID:       "create_checkpoint",
			Name:     "Snapshot tracked configuration files",
			Category: model.CatBackup,
			Effect: func() model.Result {
				cp, err := store.Create("manual", tracked)
				if err != nil {
					return model.Failure(fmt.Sprintf("checkpoint store: %v", err))
				}
				res := model.Success()
				res.CheckpointID = cp.ID
				return res
			},
		},
	}

	for _, op := range ops {
		if err := reg.Register(op); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}
	return nil
}

func (r Runner) chainEffect(cmds [][]string) func() model.Result {
	return func() model.Result { return r.Chain(cmds) }
}
