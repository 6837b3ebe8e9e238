// Package split partitions a triplet collection into train/test/valid
// subsets with a per-relation minimum-coverage guarantee.
package split

import (
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ottersome/tripletforge/internal/model"
)

// Result holds the three output subsets. Within each subset, triplets keep
// their relative order from the input collection.
type Result struct {
	Train []model.Triplet
	Test  []model.Triplet
	Valid []model.Triplet
}

// Split partitions triplets by the configured ratios. Relations with fewer
// than 3x the per-split minimum go entirely to train; every other relation
// is guaranteed at least the minimum in each subset. The shuffle is seeded,
// so the same input and config always yield the same partition.
func Split(triplets []model.Triplet, cfg model.SplitConfig, log zerolog.Logger) *Result {
	log = log.With().Str("component", "split").Logger()

	n := len(triplets)
	trainTarget := int(cfg.TrainRatio * float64(n))
	testTarget := int(cfg.TestValidRatio * float64(n-trainTarget))

	rng := rand.New(rand.NewSource(cfg.Seed))

	byRelation := make(map[string][]int)
	for i, t := range triplets {
		byRelation[t.Relation] = append(byRelation[t.Relation], i)
	}
	relations := make([]string, 0, len(byRelation))
	for rel := range byRelation {
		relations = append(relations, rel)
	}
	sort.Strings(relations)

	const (
		unassigned = iota
		toTrain
		toTest
		toValid
	)
	assign := make([]int, n)
	counts := [4]int{}

	place := func(idx, split int) {
		assign[idx] = split
		counts[split]++
	}

	for _, rel := range relations {
		indices := byRelation[rel]
		if len(indices) < 3*cfg.MinPerSplit {
			// Too sparse to guarantee coverage in every subset.
			for _, idx := range indices {
				place(idx, toTrain)
			}
			continue
		}

		shuffled := append([]int(nil), indices...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for k, idx := range shuffled {
			switch {
			case k < cfg.MinPerSplit:
				place(idx, toValid)
			case k < 2*cfg.MinPerSplit:
				place(idx, toTest)
			default:
				place(idx, toTrain)
			}
		}
	}

	// Distribute anything still unassigned, filling train first, then
	// test; valid absorbs the remainder.
	var rest []int
	for i := 0; i < n; i++ {
		if assign[i] == unassigned {
			rest = append(rest, i)
		}
	}
	rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	for _, idx := range rest {
		switch {
		case counts[toTrain] < trainTarget:
			place(idx, toTrain)
		case counts[toTest] < testTarget:
			place(idx, toTest)
		default:
			place(idx, toValid)
		}
	}

	res := &Result{}
	for i, t := range triplets {
		switch assign[i] {
		case toTrain:
			res.Train = append(res.Train, t)
		case toTest:
			res.Test = append(res.Test, t)
		case toValid:
			res.Valid = append(res.Valid, t)
		}
	}

	log.Info().
		Int("total", n).
		Int("train", len(res.Train)).
		Int("test", len(res.Test)).
		Int("valid", len(res.Valid)).
		Msg("split complete")
	return res
}
