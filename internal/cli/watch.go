package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mxtweaks/tweakctl/internal/checkpoint"
	"github.com/mxtweaks/tweakctl/internal/gate"
	"github.com/mxtweaks/tweakctl/internal/model"
	"github.com/mxtweaks/tweakctl/internal/watch"
)

var watchPoll bool

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "Poll file mtimes instead of using inotify")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch tracked config files and checkpoint them on change",
	Long: "Runs until interrupted. A change to any tracked file triggers an\n" +
		"automatic checkpoint of the tracked set; an optional interval timer\n" +
		"adds periodic checkpoints regardless of changes.",
	RunE: runWatch,
}

// autosaveOperation wraps a checkpoint of the tracked set as a gate
// operation. It never prunes: the daemon runs alongside foreground
// commands that may be reading checkpoint directories, and the store is
// not safe against cross-process prune races. Retention stays on the
// foreground paths.
func autosaveOperation(store *checkpoint.Store, name string, tracked []string) model.Operation {
	return model.Operation{
		ID:       name + "_checkpoint",
		Name:     "Automatic checkpoint of tracked config files",
		Category: model.CatBackup,
		Effect: func() model.Result {
			cp, err := store.Create(name, tracked)
			if err != nil {
				return model.Failure(fmt.Sprintf("create checkpoint: %v", err))
			}
			fmt.Printf("checkpoint %s (%d files)\n", cp.ID, len(cp.StoredFiles()))
			return model.Result{Status: model.StatusSucceeded, CheckpointID: cp.ID}
		},
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	tracked := trackedPaths(a.cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Each trigger runs a fresh gate execution so autosaves show up in
	// the outcome log like any other operation.
	trigger := func(changed []string) {
		name := "scheduled"
		if len(changed) > 0 {
			name = "autosave"
			for _, p := range changed {
				fmt.Printf("changed: %s\n", p)
			}
		}
		out := a.gate.Execute(ctx, autosaveOperation(a.store, name, tracked), gate.ExecuteOptions{})
		if out.State != gate.StateSucceeded {
			fmt.Fprintf(os.Stderr, "checkpoint failed: %s\n", out.Result.Reason)
		}
	}

	if a.cfg.Watch.Interval > 0 {
		sched := watch.NewIntervalScheduler(a.cfg.Watch.Interval.Std(), trigger)
		go func() {
			if err := sched.Run(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "scheduler stopped: %v\n", err)
			}
		}()
	}

	fmt.Printf("watching %d paths\n", len(tracked))

	if watchPoll || a.cfg.Watch.PollMode {
		w := watch.NewPollWatcher(tracked, trigger, a.cfg.Watch.PollInterval.Std())
		return w.Run(ctx)
	}

	w := watch.NewPathWatcher(tracked, trigger)
	if a.cfg.Watch.Debounce > 0 {
		w.SetDebounce(a.cfg.Watch.Debounce.Std())
	}
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		// inotify can be unavailable (exhausted watches, odd filesystems).
		fmt.Fprintf(os.Stderr, "file watcher failed (%v); falling back to polling\n", err)
		pw := watch.NewPollWatcher(tracked, trigger, a.cfg.Watch.PollInterval.Std())
		return pw.Run(ctx)
	}
	return nil
}
