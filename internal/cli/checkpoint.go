package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mxtweaks/tweakctl/internal/checkpoint"
)

var (
	cpCreateName string
	cpPruneKeep  int
)

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(cpCreateCmd)
	checkpointCmd.AddCommand(cpListCmd)
	checkpointCmd.AddCommand(cpRestoreCmd)
	checkpointCmd.AddCommand(cpPruneCmd)
	checkpointCmd.AddCommand(cpVerifyCmd)
	cpCreateCmd.Flags().StringVar(&cpCreateName, "name", "manual", "Checkpoint name prefix")
	cpPruneCmd.Flags().IntVar(&cpPruneKeep, "keep", 0, "Checkpoints to keep (default: configured max)")
}

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Create, inspect, restore, and prune configuration checkpoints",
}

var cpCreateCmd = &cobra.Command{
	Use:   "create [path...]",
	Short: "Snapshot the tracked config files (or the given paths)",
	RunE:  runCheckpointCreate,
}

var cpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpoints, newest first",
	RunE:  runCheckpointList,
}

var cpRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore files from a checkpoint to their original locations",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointRestore,
}

var cpPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete checkpoints beyond the retention limit",
	RunE:  runCheckpointPrune,
}

var cpVerifyCmd = &cobra.Command{
	Use:   "verify <id>",
	Short: "Verify archived file hashes against checkpoint metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointVerify,
}

func runCheckpointCreate(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	paths := args
	if len(paths) == 0 {
		paths = trackedPaths(a.cfg)
	}

	cp, err := a.store.Create(cpCreateName, paths)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}

	fmt.Printf("created %s (%d of %d files stored)\n", cp.ID, len(cp.StoredFiles()), len(cp.Meta.Records))
	for _, rec := range cp.FailedFiles() {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", rec.Path, rec.Error)
	}

	checkpoint.ApplyRetention(a.store, a.cfg.MaxCheckpoints)
	return nil
}

func runCheckpointList(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	cps, err := a.store.List()
	if err != nil {
		return fmt.Errorf("list checkpoints: %w", err)
	}
	if len(cps) == 0 {
		fmt.Println("no checkpoints")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tFILES\tNOTE")
	for _, cp := range cps {
		note := ""
		if cp.NoMetadata {
			note = "no metadata"
		} else if failed := len(cp.FailedFiles()); failed > 0 {
			note = fmt.Sprintf("%d failed", failed)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", cp.ID, cp.CreatedAt().Format("2006-01-02 15:04:05"), len(cp.StoredFiles()), note)
	}
	return w.Flush()
}

func runCheckpointRestore(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.store.Restore(args[0])
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	for _, path := range report.Restored {
		fmt.Printf("restored %s\n", path)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "failed %s: %s\n", f.Path, f.Error)
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d files could not be restored", len(report.Failures), len(report.Restored)+len(report.Failures))
	}
	return nil
}

func runCheckpointPrune(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	keep := cpPruneKeep
	if keep <= 0 {
		keep = a.cfg.MaxCheckpoints
	}
	removed, err := a.store.Prune(keep)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	if len(removed) == 0 {
		fmt.Println("nothing to prune")
		return nil
	}
	for _, id := range removed {
		fmt.Printf("removed %s\n", id)
	}
	return nil
}

func runCheckpointVerify(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.store.Verify(args[0])
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if report.OK() {
		fmt.Printf("OK: %d files verified\n", report.Checked)
		return nil
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", issue.Path, issue.Detail)
	}
	return fmt.Errorf("checkpoint verification failed")
}
