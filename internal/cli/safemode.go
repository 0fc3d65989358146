package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mxtweaks/tweakctl/internal/config"
)

func init() {
	rootCmd.AddCommand(safeModeCmd)
}

var safeModeCmd = &cobra.Command{
	Use:   "safe-mode [on|off]",
	Short: "Show or toggle automatic pre-operation checkpoints",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSafeMode,
}

func runSafeMode(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	if len(args) == 0 {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if cfg.SafeMode {
			fmt.Println("safe mode: on")
		} else {
			fmt.Println("safe mode: off")
		}
		return nil
	}

	var enabled bool
	switch args[0] {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return fmt.Errorf("argument must be 'on' or 'off', got %q", args[0])
	}

	if _, err := config.SetSafeMode(path, enabled); err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	fmt.Printf("safe mode: %s\n", args[0])
	return nil
}
