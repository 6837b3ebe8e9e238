// Package embed produces vector embeddings for relation labels, used by the
// downstream nearest-neighbor relation filter.
package embed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ottersome/tripletforge/internal/model"
)

// embedder is the slice of the OpenAI client the package uses.
type embedder interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Client embeds relation labels through an OpenAI-compatible API.
type Client struct {
	api       embedder
	model     openai.EmbeddingModel
	batchSize int
	log       zerolog.Logger
}

// NewClient builds an embedding client. The API key comes from the config
// or the OPENAI_API_KEY environment variable.
func NewClient(cfg model.EmbedConfig, log zerolog.Logger) (*Client, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, errors.New("no embedding API key configured")
	}

	apiCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 64
	}

	return &Client{
		api:       openai.NewClientWithConfig(apiCfg),
		model:     openai.EmbeddingModel(cfg.Model),
		batchSize: batch,
		log:       log.With().Str("component", "embed").Logger(),
	}, nil
}

// EmbedRelations embeds every relation's label and returns the vectors
// keyed by relation identifier. Relations are processed in sorted order in
// fixed-size batches.
func (c *Client) EmbedRelations(ctx context.Context, labels map[string]string) (map[string][]float32, error) {
	ids := make([]string, 0, len(labels))
	for id, label := range labels {
		if label != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make(map[string][]float32, len(ids))
	for start := 0; start < len(ids); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		inputs := make([]string, len(batch))
		for i, id := range batch {
			inputs[i] = labels[id]
		}

		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: c.model,
			Input: inputs,
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("embed batch at %d: got %d vectors for %d inputs", start, len(resp.Data), len(batch))
		}

		for i, item := range resp.Data {
			out[batch[i]] = item.Embedding
		}
		c.log.Debug().Int("done", end).Int("total", len(ids)).Msg("embedded batch")
	}
	return out, nil
}

// SaveCSV writes the embeddings as one row per relation: the identifier,
// its label, then the vector components.
func SaveCSV(path string, labels map[string]string, vectors map[string][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create embeddings file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		vec := vectors[id]
		row := make([]string, 0, len(vec)+2)
		row = append(row, id, labels[id])
		for _, v := range vec {
			row = append(row, strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write embeddings row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
