package jeopardy

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottersome/tripletforge/internal/model"
)

func TestParseLiteralList(t *testing.T) {
	assert.Equal(t, []string{"Q1", "Q2"}, parseLiteralList(`['Q1', 'Q2']`))
	assert.Equal(t, []string{"Q1", "Q2"}, parseLiteralList(`["Q1", "Q2"]`))
	assert.Empty(t, parseLiteralList(`[]`))
}

func TestFormatLiteralList(t *testing.T) {
	assert.Equal(t, `['Q1', 'Q2']`, formatLiteralList([]string{"Q1", "Q2"}))
	assert.Equal(t, `[]`, formatLiteralList(nil))
}

func TestNodes(t *testing.T) {
	nodes := Nodes([]model.Triplet{
		{Head: "Q1", Relation: "P1", Tail: "Q2"},
		{Head: "Q2", Relation: "P2", Tail: "Q3"},
	})
	assert.Len(t, nodes, 3)
	assert.True(t, nodes.Contains("Q3"))
	assert.False(t, nodes.Contains("P1"))
}

func writeCSV(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestFilterFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "questions.csv")
	out := filepath.Join(dir, "filtered.csv")

	writeCSV(t, in, [][]string{
		{"Question", "Question-Qid", "Answer-Qid", "Question-Entities"},
		// Kept: answers in graph, two question entities intersect.
		{"first", `['Q1', 'Q2', 'Q99']`, `['Q3']`, ""},
		// Dropped: answer entity missing from the graph.
		{"second", `['Q1', 'Q2']`, `['Q98']`, ""},
		// Dropped: only one question entity intersects.
		{"third", `['Q1', 'Q99']`, `['Q3']`, ""},
	})

	nodes := model.NewIDSet("Q1", "Q2", "Q3")
	titles := map[string]string{"Q1": "Alpha", "Q2": "Beta"}

	kept, total, err := FilterFile(in, out, nodes, titles, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, kept)
	assert.Equal(t, 3, total)

	rows := readCSV(t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, "first", rows[1][0])
	// Question entities rewritten to the in-graph intersection, order kept.
	assert.Equal(t, `['Q1', 'Q2']`, rows[1][1])
	assert.Equal(t, `['Alpha', 'Beta']`, rows[1][3])
}

func TestFilterFileEmptyAnswerDropped(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "questions.csv")
	out := filepath.Join(dir, "filtered.csv")

	writeCSV(t, in, [][]string{
		{"Question-Qid", "Answer-Qid"},
		{`['Q1', 'Q2']`, `[]`},
	})

	kept, _, err := FilterFile(in, out, model.NewIDSet("Q1", "Q2"), nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, kept)
}

func TestLoadNodeTitles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.csv")
	writeCSV(t, path, [][]string{
		{"RDF", "Title"},
		{"Q1", "Alpha"},
		{"Q2", "Beta"},
	})

	titles, err := LoadNodeTitles(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Q1": "Alpha", "Q2": "Beta"}, titles)
}
