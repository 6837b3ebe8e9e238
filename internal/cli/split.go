package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ottersome/tripletforge/internal/dataio"
	"github.com/ottersome/tripletforge/internal/split"
)

var (
	trainRatio     float64
	testValidRatio float64
	minPerSplit    int
	splitSeed      int64
	splitOutDir    string
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split <triplets-file>",
	Short: "Split a triplet collection into train/test/valid sets",
	Long: `Split partitions the processed triplets by the configured ratios with a
per-relation minimum-coverage guarantee: every relation frequent enough to
cover all three subsets gets at least the minimum in each. The shuffle is
seeded, so the partition is reproducible.

Example:
  tripletforge split triplets.txt --output-dir ./splits --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().Float64Var(&trainRatio, "train-ratio", 0, "fraction of triplets for train (0 = config default)")
	splitCmd.Flags().Float64Var(&testValidRatio, "test-valid-ratio", 0, "test share of the non-train remainder (0 = config default)")
	splitCmd.Flags().IntVar(&minPerSplit, "min-per-split", 0, "minimum triplets per relation per subset (0 = config default)")
	splitCmd.Flags().Int64Var(&splitSeed, "seed", 0, "shuffle seed (0 = config default)")
	splitCmd.Flags().StringVar(&splitOutDir, "output-dir", ".", "directory for train.txt, test.txt, valid.txt")
}

func runSplit(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if trainRatio > 0 {
		cfg.Split.TrainRatio = trainRatio
	}
	if testValidRatio > 0 {
		cfg.Split.TestValidRatio = testValidRatio
	}
	if minPerSplit > 0 {
		cfg.Split.MinPerSplit = minPerSplit
	}
	if cmd.Flags().Changed("seed") {
		cfg.Split.Seed = splitSeed
	}

	triplets, err := loadTripletsAny(args[0])
	if err != nil {
		return fmt.Errorf("load triplets (run the process stage first): %w", err)
	}

	res := split.Split(triplets, cfg.Split, log)

	if err := os.MkdirAll(splitOutDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := dataio.SaveTriplets(filepath.Join(splitOutDir, "train.txt"), res.Train); err != nil {
		return err
	}
	if err := dataio.SaveTriplets(filepath.Join(splitOutDir, "test.txt"), res.Test); err != nil {
		return err
	}
	if err := dataio.SaveTriplets(filepath.Join(splitOutDir, "valid.txt"), res.Valid); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Wrote %d/%d/%d train/test/valid triplets to %s\n",
		len(res.Train), len(res.Test), len(res.Valid), splitOutDir)
	return nil
}
