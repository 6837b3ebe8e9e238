package embed

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	batches [][]string
}

func (f *fakeEmbedder) CreateEmbeddings(_ context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	req := conv.Convert()
	inputs := req.Input.([]string)
	f.batches = append(f.batches, inputs)

	resp := openai.EmbeddingResponse{}
	for i := range inputs {
		resp.Data = append(resp.Data, openai.Embedding{
			Index:     i,
			Embedding: []float32{float32(len(inputs[i])), 0.5},
		})
	}
	return resp, nil
}

func TestEmbedRelations(t *testing.T) {
	fake := &fakeEmbedder{}
	c := &Client{api: fake, model: "text-embedding-3-small", batchSize: 2, log: zerolog.Nop()}

	labels := map[string]string{
		"P26": "spouse",
		"P50": "author",
		"P19": "place of birth",
		"P99": "",
	}

	vectors, err := c.EmbedRelations(context.Background(), labels)
	require.NoError(t, err)

	// Empty labels are skipped; the rest batch in sorted id order.
	require.Len(t, vectors, 3)
	require.Len(t, fake.batches, 2)
	assert.Equal(t, []string{"place of birth", "spouse"}, fake.batches[0])
	assert.Equal(t, []string{"author"}, fake.batches[1])
	assert.Equal(t, []float32{6, 0.5}, vectors["P26"])
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.csv")
	labels := map[string]string{"P26": "spouse", "P50": "author"}
	vectors := map[string][]float32{
		"P26": {0.25, -1},
		"P50": {1, 2},
	}

	require.NoError(t, SaveCSV(path, labels, vectors))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"P26", "spouse", "0.25", "-1"}, rows[0])
	assert.Equal(t, []string{"P50", "author", "1", "2"}, rows[1])
}
