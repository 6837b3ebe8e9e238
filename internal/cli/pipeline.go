package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ottersome/tripletforge/internal/dataio"
	"github.com/ottersome/tripletforge/internal/expand"
	"github.com/ottersome/tripletforge/internal/model"
	"github.com/ottersome/tripletforge/internal/mquake"
	"github.com/ottersome/tripletforge/internal/process"
	"github.com/ottersome/tripletforge/internal/split"
)

var pipelineOutDir string

// pipelineCmd represents the pipeline command
var pipelineCmd = &cobra.Command{
	Use:   "pipeline <mquake.json>",
	Short: "Run the full dataset pipeline end to end",
	Long: `Pipeline chains every stage: extract seed identifiers from the MQuAKE
dataset, expand them against the knowledge base, post-process the triplets,
and split them into train/test/valid sets. Intermediate artifacts and the
final splits all land in the output directory.

Example:
  tripletforge pipeline MQuAKE-CF-3k.json --output-dir ./dataset --hops 2`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)

	pipelineCmd.Flags().StringVar(&pipelineOutDir, "output-dir", "./dataset", "directory for all pipeline outputs")
	pipelineCmd.Flags().IntVar(&hops, "hops", 0, "expansion hops (0 = config default)")
	pipelineCmd.Flags().IntVar(&batchSize, "batch-size", 0, "entities per batch (0 = config default)")
	pipelineCmd.Flags().IntVar(&maxWorkers, "workers", 0, "concurrent fetches per batch (0 = config default)")
	pipelineCmd.Flags().StringVar(&qualifierMode, "qualifier-mode", "separate", "qualifier handling: separate or expanded")
	pipelineCmd.Flags().BoolVar(&forceResume, "resume", false, "resume from an existing checkpoint without prompting")
	pipelineCmd.Flags().StringVar(&kbBaseURL, "base-url", "", "knowledge-base API endpoint (default from config)")
	pipelineCmd.Flags().IntVar(&pruningThreshold, "threshold", 0, "frequency pruning threshold (0 = config default)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := expansionConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Process.PruningThreshold = pruningThreshold
	}
	mode, err := parseQualifierMode()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(pipelineOutDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if cfg.Expansion.CheckpointDir == "" {
		cfg.Expansion.CheckpointDir = filepath.Join(pipelineOutDir, "checkpoint")
	}

	// Stage 1: extract.
	records, err := mquake.Load(args[0])
	if err != nil {
		return err
	}
	sets, err := mquake.ExtractSets(records, log)
	if err != nil {
		return err
	}
	if err := dataio.SaveIDList(filepath.Join(pipelineOutDir, "entities.txt"), sets.Entities); err != nil {
		return err
	}
	if err := dataio.SaveIDList(filepath.Join(pipelineOutDir, "relations.txt"), sets.Relations); err != nil {
		return err
	}

	// Stage 2: expand.
	engine := expand.NewEngine(newKBClient(cfg, log), cfg.Expansion, expand.Options{Mode: mode}, log)
	ctx := context.Background()

	var state *expand.State
	if expand.SnapshotExists(cfg.Expansion.CheckpointDir) {
		if !forceResume && !confirm("Checkpoint found. Resume the interrupted expansion?") {
			return fmt.Errorf("checkpoint present in %s: rerun with --resume to continue", cfg.Expansion.CheckpointDir)
		}
		state, err = engine.Resume(ctx)
	} else {
		seeds := sets.Entities.Slice()
		sort.Strings(seeds)
		state, err = engine.Run(ctx, seeds)
	}
	if err != nil {
		return fmt.Errorf("expansion failed (checkpoint retained for resume): %w", err)
	}

	expanded := state.Triplets.Sorted()
	if err := dataio.SaveExpandedCSV(filepath.Join(pipelineOutDir, "expanded.csv"), expanded, state.Qualifiers); err != nil {
		return err
	}

	// Stage 3: post-process. The seed identifiers are protected from
	// pruning: downstream experiments depend on their presence.
	processed := process.Run(expanded, process.Options{
		HandleInverses:     cfg.Process.HandleInverses,
		PruningThreshold:   cfg.Process.PruningThreshold,
		ProtectedEntities:  sets.Entities,
		ProtectedRelations: sets.Relations,
	}, log)
	if err := dataio.SaveTriplets(filepath.Join(pipelineOutDir, "triplets.txt"), processed); err != nil {
		return err
	}

	entities := make(model.IDSet)
	relations := make(model.IDSet)
	for _, t := range processed {
		entities.Add(t.Head)
		entities.Add(t.Tail)
		relations.Add(t.Relation)
	}
	if err := dataio.SaveIDList(filepath.Join(pipelineOutDir, "final_entities.txt"), entities); err != nil {
		return err
	}
	if err := dataio.SaveIDList(filepath.Join(pipelineOutDir, "final_relations.txt"), relations); err != nil {
		return err
	}

	// Stage 4: split.
	res := split.Split(processed, cfg.Split, log)
	if err := dataio.SaveTriplets(filepath.Join(pipelineOutDir, "train.txt"), res.Train); err != nil {
		return err
	}
	if err := dataio.SaveTriplets(filepath.Join(pipelineOutDir, "test.txt"), res.Test); err != nil {
		return err
	}
	if err := dataio.SaveTriplets(filepath.Join(pipelineOutDir, "valid.txt"), res.Valid); err != nil {
		return err
	}

	if err := expand.RemoveSnapshot(cfg.Expansion.CheckpointDir); err != nil {
		log.Warn().Err(err).Msg("could not remove finished checkpoint")
	}

	fmt.Fprintf(os.Stderr, "\nPipeline complete: %d triplets, %d entities, %d relations in %s\n",
		len(processed), len(entities), len(relations), pipelineOutDir)
	return nil
}
