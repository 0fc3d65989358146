package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mxtweaks/tweakctl/internal/gate"
	"github.com/mxtweaks/tweakctl/internal/history"
	"github.com/mxtweaks/tweakctl/internal/model"
)

var (
	applyEscalate bool
	applyNoSnap   bool
)

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().BoolVar(&applyEscalate, "escalate", false, "Relaunch elevated via pkexec when the category needs root")
	applyCmd.Flags().BoolVar(&applyNoSnap, "no-checkpoint", false, "Skip the automatic pre-operation checkpoint for this run")
}

var applyCmd = &cobra.Command{
	Use:   "apply <operation-id>",
	Short: "Apply a tweak through the privilege gate",
	Long: "Checks the operation's category against the privilege policy, snapshots\n" +
		"its declared files when safe mode is on, then runs it. Exit code 77\n" +
		"means the policy denied the operation at the current privilege level.",
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	op, ok := a.registry.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown operation %q (see: tweakctl list)", args[0])
	}

	if applyNoSnap {
		a.gate = a.gate.WithSafeMode(false)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	start := time.Now()
	out := a.gate.Execute(ctx, op, gate.ExecuteOptions{Escalate: applyEscalate})

	// The elevated relaunch already did the work; this process just
	// mirrors its exit code.
	if out.MustTerminate() {
		a.close()
		os.Exit(out.Escalation.ExitCode)
	}

	recordHistory(ctx, op, out, time.Since(start))

	switch out.State {
	case gate.StateDenied:
		var denied *gate.DeniedError
		err := a.gate.Denial(op, out)
		if errors.As(err, &denied) && denied.Hint != "" {
			fmt.Fprintf(os.Stderr, "denied: %s\n", denied.Reason)
			fmt.Fprintf(os.Stderr, "hint: %s\n", denied.Hint)
		} else {
			fmt.Fprintf(os.Stderr, "denied: %s\n", out.Result.Reason)
		}
		a.close()
		os.Exit(exitDenied)
	case gate.StateFailed:
		if out.CheckpointID != "" {
			fmt.Fprintf(os.Stderr, "checkpoint %s preserved; restore with: tweakctl checkpoint restore %s\n",
				out.CheckpointID, out.CheckpointID)
		}
		return fmt.Errorf("%s failed: %s", op.ID, out.Result.Reason)
	}

	fmt.Printf("%s: ok\n", op.ID)
	if out.CheckpointID != "" {
		fmt.Printf("checkpoint: %s\n", out.CheckpointID)
	}
	return nil
}

// recordHistory appends the run to the local history database.
// History is advisory; failures are reported but never change the outcome.
func recordHistory(ctx context.Context, op model.Operation, out gate.Outcome, dur time.Duration) {
	h, err := history.Open(history.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", err)
		return
	}
	defer h.Close()

	decision := "allow"
	if out.State == gate.StateDenied {
		decision = "deny"
	}
	rec := history.Record{
		RunID:        out.RunID,
		Timestamp:    time.Now().UTC(),
		OperationID:  op.ID,
		Category:     string(op.Category),
		Decision:     decision,
		Status:       string(out.Result.Status),
		Reason:       out.Result.Reason,
		CheckpointID: out.CheckpointID,
		DurationMS:   dur.Milliseconds(),
	}
	if err := h.Append(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "warning: history append failed: %v\n", err)
	}
}
