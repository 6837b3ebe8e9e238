package expand

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ottersome/tripletforge/internal/model"
	"github.com/ottersome/tripletforge/internal/wikidata"
	"github.com/ottersome/tripletforge/internal/worker"
)

// Fetcher retrieves the neighborhood of one entity. *wikidata.Client is the
// production implementation.
type Fetcher interface {
	FetchNeighbors(ctx context.Context, entity string, mode wikidata.Mode) (*wikidata.NeighborSet, error)
}

// State is the live expansion state. It grows monotonically: processed
// entities and collected triplets are never dropped, including across
// checkpoint resumes.
type State struct {
	HopsRemaining int
	Frontier      []string
	NextFrontier  []string
	Processed     model.IDSet
	Triplets      model.TripletSet
	Qualifiers    model.QualifierMap

	nextSeen model.IDSet
}

// NewState builds fresh expansion state from the seed entities.
func NewState(seeds []string, hops int) *State {
	s := &State{
		HopsRemaining: hops,
		Processed:     make(model.IDSet),
		Triplets:      make(model.TripletSet),
		Qualifiers:    make(model.QualifierMap),
		nextSeen:      make(model.IDSet),
	}
	seen := make(model.IDSet)
	for _, id := range seeds {
		if id != "" && seen.Add(id) {
			s.Frontier = append(s.Frontier, id)
		}
	}
	return s
}

// takeBatch pops up to n not-yet-processed entities off the frontier.
func (s *State) takeBatch(n int) []string {
	if n <= 0 {
		n = 1
	}
	batch := make([]string, 0, n)
	for len(s.Frontier) > 0 && len(batch) < n {
		entity := s.Frontier[0]
		s.Frontier = s.Frontier[1:]
		if s.Processed.Contains(entity) {
			continue
		}
		batch = append(batch, entity)
	}
	return batch
}

// merge folds one fetched neighborhood into the state.
func (s *State) merge(entity string, set *wikidata.NeighborSet) {
	s.Processed.Add(entity)
	s.Triplets.Merge(set.Triplets)
	s.Qualifiers.Merge(set.Qualifiers)
}

// addCandidate queues an endpoint for the next hop unless it has already
// been processed or queued.
func (s *State) addCandidate(id string) {
	if id == "" || s.Processed.Contains(id) || !s.nextSeen.Add(id) {
		return
	}
	s.NextFrontier = append(s.NextFrontier, id)
}

// rotateFrontier promotes the accumulated next-hop entities to the active
// frontier.
func (s *State) rotateFrontier() {
	s.Frontier = s.NextFrontier
	s.NextFrontier = nil
	s.nextSeen = make(model.IDSet)
}

// Options tune a run beyond the expansion config.
type Options struct {
	// Mode selects how qualifiers come back from the fetcher.
	Mode wikidata.Mode
	// NoGrow processes the given entities without following their
	// neighbors, regardless of the hop budget.
	NoGrow bool
}

// Engine expands a seed entity set hop by hop. Each hop's frontier is
// fetched in fixed-size batches through a worker pool; state is merged
// serially and checkpointed after every batch, so an aborted run resumes
// at batch granularity.
type Engine struct {
	fetcher Fetcher
	cfg     model.ExpansionConfig
	opts    Options
	log     zerolog.Logger
}

// NewEngine creates an expansion engine.
func NewEngine(fetcher Fetcher, cfg model.ExpansionConfig, opts Options, log zerolog.Logger) *Engine {
	if opts.Mode == "" {
		opts.Mode = wikidata.ModeSeparate
	}
	return &Engine{
		fetcher: fetcher,
		cfg:     cfg,
		opts:    opts,
		log:     log.With().Str("component", "expand").Logger(),
	}
}

// Run starts a fresh expansion from the seed entities.
func (e *Engine) Run(ctx context.Context, seeds []string) (*State, error) {
	return e.run(ctx, NewState(seeds, e.cfg.Hops))
}

// Resume continues an expansion from the checkpoint in the configured
// checkpoint directory.
func (e *Engine) Resume(ctx context.Context) (*State, error) {
	snap, err := LoadSnapshot(e.cfg.CheckpointDir)
	if err != nil {
		return nil, err
	}
	state, err := stateFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	e.log.Info().
		Int("hops_remaining", state.HopsRemaining).
		Int("frontier", len(state.Frontier)).
		Int("triplets", len(state.Triplets)).
		Msg("resuming from checkpoint")
	return e.run(ctx, state)
}

func (e *Engine) run(ctx context.Context, state *State) (*State, error) {
	targetLogged := false
	for state.HopsRemaining > 0 {
		for len(state.Frontier) > 0 {
			if err := ctx.Err(); err != nil {
				return state, err
			}

			batch := state.takeBatch(e.cfg.BatchSize)
			if len(batch) == 0 {
				continue
			}

			err := e.processBatch(ctx, state, batch)
			if cerr := e.checkpoint(state); err == nil {
				err = cerr
			}
			if err != nil {
				return state, err
			}

			e.log.Info().
				Int("batch", len(batch)).
				Int("triplets", len(state.Triplets)).
				Int("processed", len(state.Processed)).
				Int("frontier", len(state.Frontier)).
				Msg("batch complete")

			// The target size is advisory: it is reported but never
			// short-circuits the hop loop.
			if !targetLogged && e.cfg.TargetSize > 0 && len(state.Triplets) >= e.cfg.TargetSize {
				targetLogged = true
				e.log.Info().
					Int("triplets", len(state.Triplets)).
					Int("target", e.cfg.TargetSize).
					Msg("target size reached")
			}
		}

		state.HopsRemaining--
		if state.HopsRemaining <= 0 || e.opts.NoGrow {
			break
		}

		state.rotateFrontier()
		if len(state.Frontier) == 0 {
			e.log.Info().Msg("frontier exhausted before hop budget")
			break
		}
		e.log.Info().
			Int("hops_remaining", state.HopsRemaining).
			Int("frontier", len(state.Frontier)).
			Msg("starting next hop")
		if err := e.checkpoint(state); err != nil {
			return state, err
		}
	}
	return state, nil
}

// processBatch fetches one batch through a fresh pool and merges results as
// they arrive. The first fetch failure aborts the pool; entities the batch
// did not finish go back on the frontier so a resume retries them.
func (e *Engine) processBatch(ctx context.Context, state *State, batch []string) error {
	pool := worker.NewPool(ctx, e.cfg.MaxWorkers)
	pool.Start()

	go func() {
		defer pool.Finish()
		for _, entity := range batch {
			select {
			case <-ctx.Done():
				return
			default:
			}
			pool.Submit(&fetchTask{entity: entity, mode: e.opts.Mode, fetcher: e.fetcher})
		}
	}()

	pending := model.NewIDSet(batch...)
	endpoints := make(model.IDSet)
	var fetchErr error
	for res := range pool.Results() {
		fr := res.(*fetchResult)
		if fr.err != nil {
			if fetchErr == nil {
				fetchErr = fmt.Errorf("entity %s: %w", fr.entity, fr.err)
				pool.Abort()
			}
			continue
		}
		delete(pending, fr.entity)
		state.merge(fr.entity, fr.set)
		for t := range fr.set.Triplets {
			endpoints.Add(t.Head)
			endpoints.Add(t.Tail)
		}
	}

	// Frontier growth happens after the batch barrier so entities fetched
	// in this batch never re-enter the frontier.
	if !e.opts.NoGrow {
		candidates := endpoints.Slice()
		sort.Strings(candidates)
		for _, id := range candidates {
			state.addCandidate(id)
		}
	}

	if fetchErr != nil {
		unfinished := pending.Slice()
		sort.Strings(unfinished)
		state.Frontier = append(unfinished, state.Frontier...)
		return fetchErr
	}
	return nil
}

func (e *Engine) checkpoint(state *State) error {
	if e.cfg.CheckpointDir == "" {
		return nil
	}
	return SaveSnapshot(e.cfg.CheckpointDir, snapshotFromState(state))
}

type fetchTask struct {
	entity  string
	mode    wikidata.Mode
	fetcher Fetcher
}

func (t *fetchTask) Run(ctx context.Context) worker.Result {
	set, err := t.fetcher.FetchNeighbors(ctx, t.entity, t.mode)
	return &fetchResult{entity: t.entity, set: set, err: err}
}

type fetchResult struct {
	entity string
	set    *wikidata.NeighborSet
	err    error
}

func (r *fetchResult) Err() error { return r.err }
