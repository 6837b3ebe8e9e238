package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ottersome/tripletforge/internal/embed"
	"github.com/ottersome/tripletforge/internal/mquake"
)

var (
	embedModel string
	embedOut   string
	embedBatch int
)

// embedCmd represents the embed command
var embedCmd = &cobra.Command{
	Use:   "embed <mquake.json>",
	Short: "Compute embeddings for the dataset's relation labels",
	Long: `Embed reads the relation labels off the dataset's labeled chains,
embeds them through an OpenAI-compatible API, and writes one CSV row per
relation: identifier, label, then the vector components.

Requires OPENAI_API_KEY (or embed.api_key in the config file).

Example:
  tripletforge embed MQuAKE-CF-3k.json --output relation_embeddings.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().StringVar(&embedModel, "model", "", "embedding model (default from config)")
	embedCmd.Flags().StringVar(&embedOut, "output", "relation_embeddings.csv", "output CSV path")
	embedCmd.Flags().IntVar(&embedBatch, "batch-size", 0, "labels per API request (0 = config default)")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if embedModel != "" {
		cfg.Embed.Model = embedModel
	}
	if embedBatch > 0 {
		cfg.Embed.BatchSize = embedBatch
	}

	records, err := mquake.Load(args[0])
	if err != nil {
		return err
	}
	labels := mquake.RelationLabels(records)
	if len(labels) == 0 {
		return fmt.Errorf("dataset %s carries no labeled relation chains", args[0])
	}

	client, err := embed.NewClient(cfg.Embed, log)
	if err != nil {
		return err
	}

	vectors, err := client.EmbedRelations(context.Background(), labels)
	if err != nil {
		return err
	}
	if err := embed.SaveCSV(embedOut, labels, vectors); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Wrote %d relation embeddings to %s\n", len(vectors), embedOut)
	return nil
}
