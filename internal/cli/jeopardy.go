package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ottersome/tripletforge/internal/jeopardy"
)

var (
	jeopardyTriplets string
	jeopardyNodeData string
	jeopardyOut      string
)

// jeopardyCmd represents the jeopardy command
var jeopardyCmd = &cobra.Command{
	Use:   "jeopardy <questions.csv>",
	Short: "Filter Jeopardy questions to those answerable in the triplet graph",
	Long: `Jeopardy keeps only the questions whose answer entities all appear in
the triplet graph and that share at least two question entities with it,
rewriting the question-entity column to that intersection.

Example:
  tripletforge jeopardy jeopardy_processed.csv --triplets triplets.txt --output jeopardy_valid.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runJeopardy,
}

func init() {
	rootCmd.AddCommand(jeopardyCmd)

	jeopardyCmd.Flags().StringVar(&jeopardyTriplets, "triplets", "triplets.txt", "triplet file defining the graph nodes")
	jeopardyCmd.Flags().StringVar(&jeopardyNodeData, "node-data", "", "node-data CSV (RDF, Title) for human-readable entity names")
	jeopardyCmd.Flags().StringVar(&jeopardyOut, "output", "jeopardy_valid.csv", "output CSV path")
}

func runJeopardy(cmd *cobra.Command, args []string) error {
	log := newLogger()

	triplets, err := loadTripletsAny(jeopardyTriplets)
	if err != nil {
		return fmt.Errorf("load triplets (run the process stage first): %w", err)
	}

	var titles map[string]string
	if jeopardyNodeData != "" {
		titles, err = jeopardy.LoadNodeTitles(jeopardyNodeData)
		if err != nil {
			return err
		}
	}

	kept, total, err := jeopardy.FilterFile(args[0], jeopardyOut, jeopardy.Nodes(triplets), titles, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Kept %d of %d questions in %s\n", kept, total, jeopardyOut)
	return nil
}
