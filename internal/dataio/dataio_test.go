package dataio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottersome/tripletforge/internal/model"
)

func TestLoadIDList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	content := "Q2\n\n# seed entities\nQ1\nQ2\n  Q3  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	ids, err := LoadIDList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q2", "Q1", "Q3"}, ids, "dedup keeps first-seen order")
}

func TestSaveIDListSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, SaveIDList(path, model.NewIDSet("Q3", "Q1", "Q2")))

	ids, err := LoadIDList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, ids)
}

func TestTripletsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triplets.txt")
	triplets := []model.Triplet{
		{Head: "Q1", Relation: "P1", Tail: "Q2"},
		{Head: "Q2", Relation: "P2", Tail: "Q3"},
	}
	require.NoError(t, SaveTriplets(path, triplets))

	back, err := LoadTriplets(path)
	require.NoError(t, err)
	assert.Equal(t, triplets, back)
}

func TestLoadTripletsTabDelimited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triplets.txt")
	require.NoError(t, os.WriteFile(path, []byte("Q1\tP1\tQ2\n"), 0644))

	triplets, err := LoadTriplets(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Triplet{{Head: "Q1", Relation: "P1", Tail: "Q2"}}, triplets)
}

func TestLoadTripletsRejectsBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triplets.txt")
	require.NoError(t, os.WriteFile(path, []byte("Q1 P1\n"), 0644))

	_, err := LoadTriplets(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestExpandedCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expanded.csv")
	triplets := []model.Triplet{
		{Head: "Q1", Relation: "P1", Tail: "Q2"},
		{Head: "Q2", Relation: "P2", Tail: "Q3"},
	}
	qualifiers := model.QualifierMap{
		triplets[0]: json.RawMessage(`{"P580":[{"snaktype":"value"}]}`),
	}

	require.NoError(t, SaveExpandedCSV(path, triplets, qualifiers))

	backTriplets, backQualifiers, err := LoadExpandedCSV(path)
	require.NoError(t, err)
	assert.Equal(t, triplets, backTriplets)
	assert.Equal(t, qualifiers, backQualifiers)
}
