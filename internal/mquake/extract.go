package mquake

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/ottersome/tripletforge/internal/model"
)

// Sets holds the identifiers extracted from a MQuAKE dataset: the seed
// entities/relations referenced by the ground-truth chains, and the separate
// counterfactual sets referenced by the requested rewrites.
type Sets struct {
	Entities   model.IDSet
	Relations  model.IDSet
	CFEntities model.IDSet
	CFRelations model.IDSet
}

// ExtractSets scans every record and collects seed and counterfactual
// identifier sets. A record missing its expected fields is a hard error.
func ExtractSets(records []Record, log zerolog.Logger) (*Sets, error) {
	sets := &Sets{
		Entities:    make(model.IDSet),
		Relations:   make(model.IDSet),
		CFEntities:  make(model.IDSet),
		CFRelations: make(model.IDSet),
	}

	for i, record := range records {
		if err := validate(i, record); err != nil {
			return nil, err
		}

		for _, triple := range record.Orig.Triples {
			sets.Entities.Add(triple[0])
			sets.Relations.Add(triple[1])
			sets.Entities.Add(triple[2])
		}

		for _, rewrite := range record.RequestedRewrite {
			if strings.HasPrefix(rewrite.RelationID, "P") {
				sets.CFRelations.Add(rewrite.RelationID)
			}
			if strings.HasPrefix(rewrite.TargetNew.ID, "Q") {
				sets.CFEntities.Add(rewrite.TargetNew.ID)
			}
		}
	}

	log.Info().
		Int("entities", len(sets.Entities)).
		Int("relations", len(sets.Relations)).
		Int("cf_entities", len(sets.CFEntities)).
		Int("cf_relations", len(sets.CFRelations)).
		Msg("extracted identifier sets")

	return sets, nil
}

// RelationLabels maps relation identifiers to their human-readable labels,
// read off the labeled form of the ground-truth chains. The labeled triples
// run parallel to the raw ones; records without labels contribute nothing.
func RelationLabels(records []Record) map[string]string {
	labels := make(map[string]string)
	for _, record := range records {
		if len(record.Orig.TriplesLabeled) != len(record.Orig.Triples) {
			continue
		}
		for j, triple := range record.Orig.Triples {
			labeled := record.Orig.TriplesLabeled[j]
			if len(triple) != 3 || len(labeled) != 3 {
				continue
			}
			if _, ok := labels[triple[1]]; !ok && labeled[1] != "" {
				labels[triple[1]] = labeled[1]
			}
		}
	}
	return labels
}

// ExtractTriplets collects the ground-truth triplets themselves, deduplicated
// structurally.
func ExtractTriplets(records []Record) (model.TripletSet, error) {
	triplets := make(model.TripletSet)

	for i, record := range records {
		if err := validate(i, record); err != nil {
			return nil, err
		}
		for _, triple := range record.Orig.Triples {
			triplets.Add(model.Triplet{Head: triple[0], Relation: triple[1], Tail: triple[2]})
		}
	}

	return triplets, nil
}
