package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ottersome/tripletforge/internal/dataio"
	"github.com/ottersome/tripletforge/internal/mquake"
)

var (
	entitiesOut    string
	relationsOut   string
	cfEntitiesOut  string
	cfRelationsOut string
	seedTripletsOut string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <mquake.json>",
	Short: "Extract seed entity/relation identifiers from a MQuAKE dataset",
	Long: `Extract scans every record of a MQuAKE JSON dataset and writes:
- the seed entity and relation identifier lists (from orig.triples)
- the counterfactual identifier lists (from requested_rewrite)
- the ground-truth triplets themselves

Example:
  tripletforge extract MQuAKE-CF-3k.json --entities entities.txt --relations relations.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&entitiesOut, "entities", "entities.txt", "output path for the seed entity list")
	extractCmd.Flags().StringVar(&relationsOut, "relations", "relations.txt", "output path for the seed relation list")
	extractCmd.Flags().StringVar(&cfEntitiesOut, "cf-entities", "", "output path for the counterfactual entity list (omit to skip)")
	extractCmd.Flags().StringVar(&cfRelationsOut, "cf-relations", "", "output path for the counterfactual relation list (omit to skip)")
	extractCmd.Flags().StringVar(&seedTripletsOut, "triplets", "", "output path for the ground-truth triplets (omit to skip)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := newLogger()

	records, err := mquake.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Loaded %d records from %s\n", len(records), args[0])

	sets, err := mquake.ExtractSets(records, log)
	if err != nil {
		return err
	}

	if err := dataio.SaveIDList(entitiesOut, sets.Entities); err != nil {
		return err
	}
	if err := dataio.SaveIDList(relationsOut, sets.Relations); err != nil {
		return err
	}
	if cfEntitiesOut != "" {
		if err := dataio.SaveIDList(cfEntitiesOut, sets.CFEntities); err != nil {
			return err
		}
	}
	if cfRelationsOut != "" {
		if err := dataio.SaveIDList(cfRelationsOut, sets.CFRelations); err != nil {
			return err
		}
	}

	if seedTripletsOut != "" {
		triplets, err := mquake.ExtractTriplets(records)
		if err != nil {
			return err
		}
		if err := dataio.SaveTriplets(seedTripletsOut, triplets.Sorted()); err != nil {
			return err
		}
	}

	return nil
}
