// Package process cleans a raw expanded triplet collection: exact
// deduplication, inverse-relation resolution, and frequency pruning.
package process

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/ottersome/tripletforge/internal/model"
)

// Dedupe removes exact structural duplicates, preserving first-occurrence
// order. It is idempotent.
func Dedupe(triplets []model.Triplet) []model.Triplet {
	seen := make(model.TripletSet, len(triplets))
	out := make([]model.Triplet, 0, len(triplets))
	for _, t := range triplets {
		if seen.Add(t) {
			out = append(out, t)
		}
	}
	return out
}

// Inverses holds committed inverse-relation pairs. Each relation is bound
// to at most one partner; the member of a pair that carried the higher
// frequency at detection time is its primary direction.
type Inverses struct {
	partner map[string]string
	primary model.IDSet
}

// PartnerOf returns the committed inverse of rel, if any.
func (iv *Inverses) PartnerOf(rel string) (string, bool) {
	p, ok := iv.partner[rel]
	return p, ok
}

// IsPrimary reports whether rel is the retained direction of its pair.
func (iv *Inverses) IsPrimary(rel string) bool {
	return iv.primary.Contains(rel)
}

// Len returns the number of committed pairs.
func (iv *Inverses) Len() int {
	return len(iv.partner) / 2
}

type inverseCandidate struct {
	relation string
	inverse  string
	count    int
}

// DetectInverses finds probable inverse-relation pairs: relations r1, r2
// such that (A, r1, B) and (B, r2, A) co-occur. Candidates are weighted by
// how often r1 appears in that orientation and committed greedily in
// descending weight order, each relation to at most one partner. Equal
// weights break lexicographically on the relation identifiers, so detection
// is deterministic regardless of input order.
func DetectInverses(triplets []model.Triplet) *Inverses {
	deduped := Dedupe(triplets)

	type pair struct{ head, tail string }
	relsByPair := make(map[pair][]string)
	for _, t := range deduped {
		relsByPair[pair{t.Head, t.Tail}] = append(relsByPair[pair{t.Head, t.Tail}], t.Relation)
	}

	type relPair struct{ relation, inverse string }
	counts := make(map[relPair]int)
	for _, t := range deduped {
		for _, r2 := range relsByPair[pair{t.Tail, t.Head}] {
			if r2 != t.Relation {
				counts[relPair{t.Relation, r2}]++
			}
		}
	}

	candidates := make([]inverseCandidate, 0, len(counts))
	for rp, n := range counts {
		candidates = append(candidates, inverseCandidate{relation: rp.relation, inverse: rp.inverse, count: n})
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.count != b.count {
			return a.count > b.count
		}
		if a.relation != b.relation {
			return a.relation < b.relation
		}
		return a.inverse < b.inverse
	})

	iv := &Inverses{
		partner: make(map[string]string),
		primary: make(model.IDSet),
	}
	for _, c := range candidates {
		if _, taken := iv.partner[c.relation]; taken {
			continue
		}
		if _, taken := iv.partner[c.inverse]; taken {
			continue
		}
		iv.partner[c.relation] = c.inverse
		iv.partner[c.inverse] = c.relation
		iv.primary.Add(c.relation)
	}
	return iv
}

// ResolveInverses emits at most one direction per entity pair for relations
// with a committed inverse. The primary direction wins when both are
// present; a lone secondary-direction triplet survives untouched.
func ResolveInverses(triplets []model.Triplet, iv *Inverses) []model.Triplet {
	deduped := Dedupe(triplets)
	set := model.NewTripletSet(deduped...)

	emitted := make(model.TripletSet, len(deduped))
	out := make([]model.Triplet, 0, len(deduped))
	for _, t := range deduped {
		if partner, ok := iv.PartnerOf(t.Relation); ok {
			mirror := model.Triplet{Head: t.Tail, Relation: partner, Tail: t.Head}
			if emitted.Contains(mirror) {
				continue
			}
			if !iv.IsPrimary(t.Relation) && set.Contains(mirror) {
				continue
			}
		}
		emitted.Add(t)
		out = append(out, t)
	}
	return out
}

// Prune drops every triplet touching an entity or relation whose occurrence
// count falls strictly below threshold, except members of the protected
// sets, which are never pruned. It returns the surviving triplets along
// with what was pruned.
func Prune(triplets []model.Triplet, threshold int, protectedEntities, protectedRelations model.IDSet) ([]model.Triplet, model.IDSet, model.IDSet) {
	entityFreq := make(map[string]int)
	relationFreq := make(map[string]int)
	for _, t := range triplets {
		entityFreq[t.Head]++
		entityFreq[t.Tail]++
		relationFreq[t.Relation]++
	}

	prunedEntities := make(model.IDSet)
	for entity, n := range entityFreq {
		if n < threshold && !protectedEntities.Contains(entity) {
			prunedEntities.Add(entity)
		}
	}
	prunedRelations := make(model.IDSet)
	for relation, n := range relationFreq {
		if n < threshold && !protectedRelations.Contains(relation) {
			prunedRelations.Add(relation)
		}
	}

	out := make([]model.Triplet, 0, len(triplets))
	for _, t := range triplets {
		if prunedEntities.Contains(t.Head) || prunedEntities.Contains(t.Tail) || prunedRelations.Contains(t.Relation) {
			continue
		}
		out = append(out, t)
	}
	return out, prunedEntities, prunedRelations
}

// Options bundle the post-processing knobs.
type Options struct {
	HandleInverses     bool
	PruningThreshold   int
	ProtectedEntities  model.IDSet
	ProtectedRelations model.IDSet
}

// Run applies the full post-processing chain: dedupe, inverse resolution
// (when enabled), then pruning (when the threshold is positive).
func Run(triplets []model.Triplet, opts Options, log zerolog.Logger) []model.Triplet {
	log = log.With().Str("component", "process").Logger()

	out := Dedupe(triplets)
	log.Info().Int("raw", len(triplets)).Int("deduped", len(out)).Msg("deduplicated")

	if opts.HandleInverses {
		iv := DetectInverses(out)
		resolved := ResolveInverses(out, iv)
		log.Info().
			Int("pairs", iv.Len()).
			Int("dropped", len(out)-len(resolved)).
			Msg("resolved inverse relations")
		out = resolved
	}

	if opts.PruningThreshold > 0 {
		kept, prunedEnts, prunedRels := Prune(out, opts.PruningThreshold, opts.ProtectedEntities, opts.ProtectedRelations)
		log.Info().
			Int("pruned_entities", len(prunedEnts)).
			Int("pruned_relations", len(prunedRels)).
			Int("dropped", len(out)-len(kept)).
			Msg("pruned low-frequency items")
		out = kept
	}
	return out
}
