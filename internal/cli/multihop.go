package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ottersome/tripletforge/internal/mquake"
)

var (
	multihopHops []int
	multihopOut  string
)

// multihopCmd represents the multihop command
var multihopCmd = &cobra.Command{
	Use:   "multihop <mquake.json>",
	Short: "Extract the multi-hop subset of a MQuAKE dataset",
	Long: `Multihop keeps only the records whose ground-truth relation chain has
one of the requested lengths and writes them as a trimmed JSON dataset.

Example:
  tripletforge multihop MQuAKE-CF-3k.json --hops 3,4 --output multihop.json`,
	Args: cobra.ExactArgs(1),
	RunE: runMultihop,
}

func init() {
	rootCmd.AddCommand(multihopCmd)

	multihopCmd.Flags().IntSliceVar(&multihopHops, "hops", []int{3, 4}, "chain lengths to keep")
	multihopCmd.Flags().StringVar(&multihopOut, "output", "multihop.json", "output JSON path")
}

func runMultihop(cmd *cobra.Command, args []string) error {
	records, err := mquake.Load(args[0])
	if err != nil {
		return err
	}

	entries := mquake.FilterMultiHop(records, multihopHops...)
	if err := mquake.SaveMultiHop(multihopOut, entries); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Kept %d of %d records in %s\n", len(entries), len(records), multihopOut)
	return nil
}
