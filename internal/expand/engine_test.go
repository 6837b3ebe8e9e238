package expand

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottersome/tripletforge/internal/model"
	"github.com/ottersome/tripletforge/internal/wikidata"
)

// fakeFetcher serves a fixed graph and can be told to fail per entity.
type fakeFetcher struct {
	mu    sync.Mutex
	graph map[string][]model.Triplet
	fail  map[string]bool
	calls map[string]int
}

func newFakeFetcher(graph map[string][]model.Triplet) *fakeFetcher {
	return &fakeFetcher{
		graph: graph,
		fail:  make(map[string]bool),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) FetchNeighbors(_ context.Context, entity string, _ wikidata.Mode) (*wikidata.NeighborSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[entity]++
	if f.fail[entity] {
		return nil, errors.New("fetch failed")
	}
	return &wikidata.NeighborSet{
		Triplets:   model.NewTripletSet(f.graph[entity]...),
		Forward:    make(map[string]string),
		Qualifiers: make(model.QualifierMap),
	}, nil
}

func (f *fakeFetcher) callCount(entity string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[entity]
}

func chainGraph() map[string][]model.Triplet {
	return map[string][]model.Triplet{
		"Q1": {{Head: "Q1", Relation: "P1", Tail: "Q2"}},
		"Q2": {{Head: "Q2", Relation: "P2", Tail: "Q3"}},
		"Q3": {{Head: "Q3", Relation: "P3", Tail: "Q4"}},
	}
}

func testEngine(t *testing.T, f Fetcher, cfg model.ExpansionConfig, opts Options) *Engine {
	t.Helper()
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 8
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 2
	}
	return NewEngine(f, cfg, opts, zerolog.Nop())
}

func TestRunSingleHop(t *testing.T) {
	f := newFakeFetcher(chainGraph())
	e := testEngine(t, f, model.ExpansionConfig{Hops: 1}, Options{})

	state, err := e.Run(context.Background(), []string{"Q1", "Q1"})
	require.NoError(t, err)

	assert.True(t, state.Processed.Contains("Q1"))
	assert.Len(t, state.Processed, 1)
	assert.Len(t, state.Triplets, 1)
	assert.Equal(t, 1, f.callCount("Q1"), "duplicate seed must not fetch twice")
	assert.Equal(t, 0, f.callCount("Q2"), "single hop must not follow neighbors")
}

func TestRunTwoHops(t *testing.T) {
	f := newFakeFetcher(chainGraph())
	e := testEngine(t, f, model.ExpansionConfig{Hops: 2}, Options{})

	state, err := e.Run(context.Background(), []string{"Q1"})
	require.NoError(t, err)

	assert.Len(t, state.Processed, 2)
	assert.True(t, state.Triplets.Contains(model.Triplet{Head: "Q1", Relation: "P1", Tail: "Q2"}))
	assert.True(t, state.Triplets.Contains(model.Triplet{Head: "Q2", Relation: "P2", Tail: "Q3"}))
	assert.Equal(t, 1, f.callCount("Q1"), "processed entity must not be refetched")
	assert.Equal(t, 0, f.callCount("Q3"))
}

func TestRunNoGrow(t *testing.T) {
	f := newFakeFetcher(chainGraph())
	e := testEngine(t, f, model.ExpansionConfig{Hops: 3}, Options{NoGrow: true})

	state, err := e.Run(context.Background(), []string{"Q1", "Q2"})
	require.NoError(t, err)

	assert.Len(t, state.Processed, 2)
	assert.Equal(t, 0, f.callCount("Q3"), "no-grow must not follow neighbors")
}

func TestRunFrontierExhausted(t *testing.T) {
	graph := map[string][]model.Triplet{
		"Q1": {{Head: "Q1", Relation: "P1", Tail: "Q1"}},
	}
	f := newFakeFetcher(graph)
	e := testEngine(t, f, model.ExpansionConfig{Hops: 5}, Options{})

	state, err := e.Run(context.Background(), []string{"Q1"})
	require.NoError(t, err)
	assert.Len(t, state.Processed, 1)
}

func TestRunTargetSizeIsAdvisory(t *testing.T) {
	f := newFakeFetcher(chainGraph())
	e := testEngine(t, f, model.ExpansionConfig{Hops: 2, TargetSize: 1}, Options{})

	state, err := e.Run(context.Background(), []string{"Q1"})
	require.NoError(t, err)

	// Reaching the target must not short-circuit the hop budget.
	assert.Equal(t, 1, f.callCount("Q2"))
	assert.Len(t, state.Triplets, 2)
}

func TestRunFrontierScenario(t *testing.T) {
	shared := []model.Triplet{
		{Head: "Q1", Relation: "P1", Tail: "Q3"},
		{Head: "Q2", Relation: "P2", Tail: "Q3"},
	}
	f := newFakeFetcher(map[string][]model.Triplet{"Q1": shared, "Q2": shared})
	e := testEngine(t, f, model.ExpansionConfig{Hops: 1}, Options{})

	state, err := e.Run(context.Background(), []string{"Q1", "Q2"})
	require.NoError(t, err)

	assert.Len(t, state.Triplets, 2)
	assert.True(t, state.Processed.Contains("Q1"))
	assert.True(t, state.Processed.Contains("Q2"))
	assert.Equal(t, []string{"Q3"}, state.NextFrontier)
}

func TestRunFailFastAndResume(t *testing.T) {
	dir := t.TempDir()
	cfg := model.ExpansionConfig{Hops: 1, BatchSize: 1, MaxWorkers: 1, CheckpointDir: dir}

	f := newFakeFetcher(chainGraph())
	f.fail["Q2"] = true

	e := testEngine(t, f, cfg, Options{})
	_, err := e.Run(context.Background(), []string{"Q1", "Q2"})
	require.Error(t, err)
	require.True(t, SnapshotExists(dir))

	// The checkpoint preserves the successful batch and keeps the failed
	// entity on the frontier.
	snap, err := LoadSnapshot(dir)
	require.NoError(t, err)
	assert.Contains(t, snap.Processed, "Q1")
	assert.Contains(t, snap.Frontier, "Q2")

	f.fail["Q2"] = false
	state, err := testEngine(t, f, cfg, Options{}).Resume(context.Background())
	require.NoError(t, err)

	assert.Len(t, state.Processed, 2)
	assert.True(t, state.Triplets.Contains(model.Triplet{Head: "Q1", Relation: "P1", Tail: "Q2"}))
	assert.True(t, state.Triplets.Contains(model.Triplet{Head: "Q2", Relation: "P2", Tail: "Q3"}))
	assert.Equal(t, 1, f.callCount("Q1"), "resume must not refetch processed entities")
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFakeFetcher(chainGraph())
	e := testEngine(t, f, model.ExpansionConfig{Hops: 2}, Options{})

	_, err := e.Run(ctx, []string{"Q1"})
	require.Error(t, err)
}
