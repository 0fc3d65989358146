package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mxtweaks/tweakctl/internal/audit"
	"github.com/mxtweaks/tweakctl/internal/checkpoint"
	"github.com/mxtweaks/tweakctl/internal/config"
	"github.com/mxtweaks/tweakctl/internal/gate"
	"github.com/mxtweaks/tweakctl/internal/integrity"
	"github.com/mxtweaks/tweakctl/internal/policy"
	"github.com/mxtweaks/tweakctl/internal/privilege"
	"github.com/mxtweaks/tweakctl/internal/registry"
	"github.com/mxtweaks/tweakctl/internal/tweaks"
)

// exitDenied is the exit code for a privilege policy denial.
const exitDenied = 77

var (
	configPath string
	policyPath string
)

var rootCmd = &cobra.Command{
	Use:   "tweakctl",
	Short: "System tuning with privilege gating and automatic checkpoints",
	Long: "Applies system tweaks behind a privilege gate. Root-only categories are\n" +
		"refused or escalated via pkexec; mutating operations snapshot their\n" +
		"declared files first so any change can be rolled back.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := integrity.Verify(); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(78) // EX_CONFIG
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default: ~/.config/tweakctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "Path to policy YAML (default: ~/.config/tweakctl/policy.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles everything a command needs after setup.
type app struct {
	cfg      *config.Config
	table    *policy.Table
	hash     string
	oracle   *privilege.Oracle
	store    *checkpoint.Store
	log      *audit.Log
	registry *registry.Registry
	gate     *gate.Gate
}

func (a *app) close() {
	if a.log != nil {
		a.log.Close()
	}
}

// loadConfig resolves the --config flag against the default path.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setup wires the full stack: config, policy, privilege oracle,
// checkpoint store, audit log, operation catalog, gate.
func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	pPath := policyPath
	if pPath == "" {
		pPath = policy.DefaultPath()
	}
	table, hash, err := policy.LoadWithHash(pPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	store, err := checkpoint.NewStore(cfg.CheckpointDir)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}

	auditPath := cfg.AuditLog
	if auditPath == "" {
		auditPath = audit.DefaultPath()
	}
	log, err := audit.Open(auditPath)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	oracle := privilege.New(table)

	tracked := cfg.TrackedPaths
	if len(tracked) == 0 {
		tracked = tweaks.DefaultTrackedPaths
	}

	reg := registry.New()
	if err := tweaks.Register(reg, store, tweaks.NewRunner(), tracked); err != nil {
		log.Close()
		return nil, fmt.Errorf("register operations: %w", err)
	}

	g := gate.New(oracle, store, log, gate.Config{
		SafeMode:        cfg.SafeMode,
		KeepCheckpoints: cfg.MaxCheckpoints,
		PolicyHash:      hash,
	})

	return &app{
		cfg:      cfg,
		table:    table,
		hash:     hash,
		oracle:   oracle,
		store:    store,
		log:      log,
		registry: reg,
		gate:     g,
	}, nil
}

// trackedPaths returns the configured tracked set with the built-in
// fallback applied.
func trackedPaths(cfg *config.Config) []string {
	if len(cfg.TrackedPaths) > 0 {
		return cfg.TrackedPaths
	}
	return tweaks.DefaultTrackedPaths
}
