package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ottersome/tripletforge/internal/cache"
	"github.com/ottersome/tripletforge/internal/dataio"
	"github.com/ottersome/tripletforge/internal/expand"
	"github.com/ottersome/tripletforge/internal/model"
	"github.com/ottersome/tripletforge/internal/wikidata"
)

var (
	hops          int
	targetSize    int
	batchSize     int
	maxWorkers    int
	checkpointDir string
	qualifierMode string
	forceResume   bool
	startFresh    bool
	expandOut     string

	kbBaseURL  string
	kbTimeout  time.Duration
	maxRetries int
	requestRPS float64
	userAgent  string
	noCache    bool
	cacheDir   string
	noRobots   bool
	httpProxy  string
	httpsProxy string
)

// expandCmd represents the expand command
var expandCmd = &cobra.Command{
	Use:   "expand <entity-list>",
	Short: "Expand a seed entity set into a triplet collection",
	Long: `Expand performs a multi-hop, checkpointed crawl of the knowledge base:
the seed entities are fetched in concurrent batches, discovered neighbors
feed the next hop's frontier, and a checkpoint is written after every batch
so an interrupted run can resume.

Example:
  tripletforge expand entities.txt --hops 2 --output expanded.csv
  tripletforge expand entities.txt --resume`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <entity-list>",
	Short: "Fetch triplets for a fixed entity set without frontier growth",
	Long: `Generate fetches the neighborhood of every listed entity exactly once,
without following discovered neighbors. Use it to rebuild triplets for an
already-final node list.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(generateCmd)

	for _, cmd := range []*cobra.Command{expandCmd, generateCmd} {
		cmd.Flags().IntVar(&batchSize, "batch-size", 0, "entities per batch (0 = config default)")
		cmd.Flags().IntVar(&maxWorkers, "workers", 0, "concurrent fetches per batch (0 = config default)")
		cmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", "", "checkpoint directory (empty = config default)")
		cmd.Flags().StringVar(&qualifierMode, "qualifier-mode", string(wikidata.ModeSeparate), "qualifier handling: separate or expanded")
		cmd.Flags().BoolVar(&forceResume, "resume", false, "resume from an existing checkpoint without prompting")
		cmd.Flags().BoolVar(&startFresh, "fresh", false, "discard any existing checkpoint and start over")
		cmd.Flags().StringVar(&expandOut, "output", "expanded.csv", "output CSV (head, rel, tail, qualifiers)")

		cmd.Flags().StringVar(&kbBaseURL, "base-url", "", "knowledge-base API endpoint (default from config)")
		cmd.Flags().DurationVar(&kbTimeout, "timeout", 0, "per-attempt fetch timeout")
		cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "retry budget per entity fetch")
		cmd.Flags().Float64Var(&requestRPS, "rps", 0, "max requests per second to the knowledge base")
		cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent")
		cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache (force fresh fetches)")
		cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "response cache directory")
		cmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip the robots.txt politeness check")
		cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
		cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	}

	expandCmd.Flags().IntVar(&hops, "hops", 0, "expansion hops (0 = config default)")
	expandCmd.Flags().IntVar(&targetSize, "target-size", 0, "advisory triplet-count target, logged when reached")
}

// expansionConfig overlays the command-line knobs on the loaded config.
func expansionConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("hops") {
		cfg.Expansion.Hops = hops
	}
	if cmd.Flags().Changed("target-size") {
		cfg.Expansion.TargetSize = targetSize
	}
	if batchSize > 0 {
		cfg.Expansion.BatchSize = batchSize
	}
	if maxWorkers > 0 {
		cfg.Expansion.MaxWorkers = maxWorkers
	}
	if checkpointDir != "" {
		cfg.Expansion.CheckpointDir = checkpointDir
	}
	if kbBaseURL != "" {
		cfg.KB.BaseURL = kbBaseURL
	}
	if kbTimeout > 0 {
		cfg.KB.Timeout = kbTimeout
	}
	if maxRetries > 0 {
		cfg.KB.MaxRetries = maxRetries
	}
	if requestRPS > 0 {
		cfg.KB.RequestsPerSecond = requestRPS
	}
	if userAgent != "" {
		cfg.KB.UserAgent = userAgent
	}
	if noRobots {
		cfg.KB.CheckRobots = false
	}
	if httpProxy != "" {
		cfg.KB.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.KB.HTTPSProxy = httpsProxy
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	return cfg, nil
}

// newKBClient wires the cache stack into a knowledge-base client.
func newKBClient(cfg *model.Config, log zerolog.Logger) *wikidata.Client {
	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}
	return wikidata.NewClient(cfg.KB, c, log)
}

func parseQualifierMode() (wikidata.Mode, error) {
	switch qualifierMode {
	case string(wikidata.ModeSeparate):
		return wikidata.ModeSeparate, nil
	case string(wikidata.ModeExpanded):
		return wikidata.ModeExpanded, nil
	default:
		return "", fmt.Errorf("unknown qualifier mode %q (want separate or expanded)", qualifierMode)
	}
}

func runExpand(cmd *cobra.Command, args []string) error {
	return runExpansion(cmd, args[0], false)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return runExpansion(cmd, args[0], true)
}

func runExpansion(cmd *cobra.Command, seedPath string, noGrow bool) error {
	log := newLogger()

	cfg, err := expansionConfig(cmd)
	if err != nil {
		return err
	}
	mode, err := parseQualifierMode()
	if err != nil {
		return err
	}
	if noGrow {
		cfg.Expansion.Hops = 1
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Seeds:        %s\n", seedPath)
	fmt.Fprintf(os.Stderr, "  Hops:         %d\n", cfg.Expansion.Hops)
	fmt.Fprintf(os.Stderr, "  Batch size:   %d\n", cfg.Expansion.BatchSize)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Expansion.MaxWorkers)
	fmt.Fprintf(os.Stderr, "  Endpoint:     %s\n", cfg.KB.BaseURL)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", expandOut)
	fmt.Fprintf(os.Stderr, "\n")

	engine := expand.NewEngine(newKBClient(cfg, log), cfg.Expansion, expand.Options{
		Mode:   mode,
		NoGrow: noGrow,
	}, log)

	ctx := context.Background()

	var state *expand.State
	switch {
	case expand.SnapshotExists(cfg.Expansion.CheckpointDir) && startFresh:
		if err := expand.RemoveSnapshot(cfg.Expansion.CheckpointDir); err != nil {
			return fmt.Errorf("discard checkpoint: %w", err)
		}
		state, err = runFromSeeds(ctx, engine, seedPath)
	case expand.SnapshotExists(cfg.Expansion.CheckpointDir):
		if !forceResume && !confirm("Checkpoint found. Resume the interrupted expansion?") {
			return fmt.Errorf("checkpoint present in %s: rerun with --resume to continue or --fresh to discard it", cfg.Expansion.CheckpointDir)
		}
		state, err = engine.Resume(ctx)
	default:
		state, err = runFromSeeds(ctx, engine, seedPath)
	}
	if err != nil {
		return fmt.Errorf("expansion failed (checkpoint retained for resume): %w", err)
	}

	triplets := state.Triplets.Sorted()
	if err := dataio.SaveExpandedCSV(expandOut, triplets, state.Qualifiers); err != nil {
		return err
	}
	log.Info().Int("triplets", len(triplets)).Str("output", expandOut).Msg("expansion written")

	// The run is complete; its checkpoint has nothing left to resume.
	if err := expand.RemoveSnapshot(cfg.Expansion.CheckpointDir); err != nil {
		log.Warn().Err(err).Msg("could not remove finished checkpoint")
	}
	return nil
}

func runFromSeeds(ctx context.Context, engine *expand.Engine, seedPath string) (*expand.State, error) {
	seeds, err := dataio.LoadIDList(seedPath)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("seed list %s is empty", seedPath)
	}
	return engine.Run(ctx, seeds)
}

// confirm asks a yes/no question on the terminal.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
