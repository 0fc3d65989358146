package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mxtweaks/tweakctl/internal/model"
)

var listCategory string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only show operations in this category")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available tweaks and their privilege requirements",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	level := a.oracle.CurrentLevel()
	fmt.Printf("privilege level: %s\n\n", level)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tREQUIRES\tAVAILABLE\tNAME")
	for _, op := range a.registry.List() {
		if listCategory != "" && op.Category != model.Category(listCategory) {
			continue
		}
		required := a.oracle.RequiredLevel(op.Category)
		available := "yes"
		if !a.oracle.IsAllowed(op.Category) {
			available = "no (--escalate)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", op.ID, op.Category, required, available, op.Name)
	}
	return w.Flush()
}
