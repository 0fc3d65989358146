package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mxtweaks/tweakctl/internal/history"
)

var (
	historyLimit int
	historyOp    string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
	historyCmd.Flags().StringVar(&historyOp, "op", "", "Only show runs of this operation")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent tweak runs",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	h, err := history.Open(history.DefaultPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer h.Close()

	ctx := context.Background()
	var recs []history.Record
	if historyOp != "" {
		recs, err = h.ByOperation(ctx, historyOp, historyLimit)
	} else {
		recs, err = h.Recent(ctx, historyLimit)
	}
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	if len(recs) == 0 {
		fmt.Println("no history")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOPERATION\tSTATUS\tCHECKPOINT\tREASON")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.OperationID, r.Status, r.CheckpointID, r.Reason)
	}
	return w.Flush()
}
