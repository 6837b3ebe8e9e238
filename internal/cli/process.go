package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ottersome/tripletforge/internal/dataio"
	"github.com/ottersome/tripletforge/internal/model"
	"github.com/ottersome/tripletforge/internal/process"
)

var (
	pruningThreshold   int
	noInverses         bool
	protectedEntsPath  string
	protectedRelsPath  string
	processedOut       string
	finalEntitiesOut   string
	finalRelationsOut  string
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <triplets-file>",
	Short: "Post-process an expanded triplet collection",
	Long: `Process deduplicates the triplets, resolves probable inverse-relation
pairs down to a single direction per entity pair, and prunes entities and
relations below the frequency threshold (protected identifiers are never
pruned). It also writes the final entity and relation lists.

Example:
  tripletforge process expanded.csv --threshold 2 --protected-entities entities.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().IntVar(&pruningThreshold, "threshold", 0, "frequency pruning threshold (0 = config default)")
	processCmd.Flags().BoolVar(&noInverses, "no-inverses", false, "skip inverse-relation detection and resolution")
	processCmd.Flags().StringVar(&protectedEntsPath, "protected-entities", "", "entity list that pruning must never remove")
	processCmd.Flags().StringVar(&protectedRelsPath, "protected-relations", "", "relation list that pruning must never remove")
	processCmd.Flags().StringVar(&processedOut, "output", "triplets.txt", "output path for the processed triplets")
	processCmd.Flags().StringVar(&finalEntitiesOut, "entities", "", "output path for the final entity list (omit to skip)")
	processCmd.Flags().StringVar(&finalRelationsOut, "relations", "", "output path for the final relation list (omit to skip)")
}

// loadTripletsAny reads either the plain 3-column form or the expanded CSV,
// depending on the file's extension.
func loadTripletsAny(path string) ([]model.Triplet, error) {
	if len(path) > 4 && path[len(path)-4:] == ".csv" {
		triplets, _, err := dataio.LoadExpandedCSV(path)
		return triplets, err
	}
	return dataio.LoadTriplets(path)
}

func loadProtectedSet(path string) (model.IDSet, error) {
	if path == "" {
		return nil, nil
	}
	ids, err := dataio.LoadIDList(path)
	if err != nil {
		return nil, err
	}
	return model.NewIDSet(ids...), nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Process.PruningThreshold = pruningThreshold
	}
	if noInverses {
		cfg.Process.HandleInverses = false
	}

	triplets, err := loadTripletsAny(args[0])
	if err != nil {
		return fmt.Errorf("load triplets (run the expand stage first): %w", err)
	}

	protectedEnts, err := loadProtectedSet(protectedEntsPath)
	if err != nil {
		return err
	}
	protectedRels, err := loadProtectedSet(protectedRelsPath)
	if err != nil {
		return err
	}

	processed := process.Run(triplets, process.Options{
		HandleInverses:     cfg.Process.HandleInverses,
		PruningThreshold:   cfg.Process.PruningThreshold,
		ProtectedEntities:  protectedEnts,
		ProtectedRelations: protectedRels,
	}, log)

	if err := dataio.SaveTriplets(processedOut, processed); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d triplets to %s\n", len(processed), processedOut)

	if finalEntitiesOut != "" || finalRelationsOut != "" {
		entities := make(model.IDSet)
		relations := make(model.IDSet)
		for _, t := range processed {
			entities.Add(t.Head)
			entities.Add(t.Tail)
			relations.Add(t.Relation)
		}
		if finalEntitiesOut != "" {
			if err := dataio.SaveIDList(finalEntitiesOut, entities); err != nil {
				return err
			}
		}
		if finalRelationsOut != "" {
			if err := dataio.SaveIDList(finalRelationsOut, relations); err != nil {
				return err
			}
		}
	}
	return nil
}
