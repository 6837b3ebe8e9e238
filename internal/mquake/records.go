// Package mquake loads the MQuAKE question-answering benchmark and extracts
// the seed entity and relation identifiers the expansion pipeline starts from.
package mquake

import (
	"encoding/json"
	"fmt"
	"os"
)

// Record is one MQuAKE case: a question set, its answer, the ground-truth
// relation chain, and the counterfactual rewrites applied to it.
type Record struct {
	CaseID           int       `json:"case_id"`
	Questions        []string  `json:"questions"`
	Answer           string    `json:"answer"`
	Orig             Orig      `json:"orig"`
	RequestedRewrite []Rewrite `json:"requested_rewrite"`
}

// Orig carries the ground-truth relation chain, both as raw identifiers and
// in the human-readable labeled form used for hop-count classification.
type Orig struct {
	Triples        [][]string `json:"triples"`
	TriplesLabeled [][]string `json:"triples_labeled"`
}

// Rewrite is one counterfactual edit: a relation and its new target entity.
type Rewrite struct {
	RelationID string `json:"relation_id"`
	TargetNew  Target `json:"target_new"`
}

// Target identifies the rewritten tail entity.
type Target struct {
	ID string `json:"id"`
}

// Load reads a MQuAKE JSON file (an array of records).
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	return records, nil
}

// validate enforces the uniform record shape the pipeline assumes. Partial
// records are not tolerated.
func validate(i int, r Record) error {
	if len(r.Orig.Triples) == 0 {
		return fmt.Errorf("record %d (case %d): missing orig.triples", i, r.CaseID)
	}
	if r.RequestedRewrite == nil {
		return fmt.Errorf("record %d (case %d): missing requested_rewrite", i, r.CaseID)
	}
	for _, triple := range r.Orig.Triples {
		if len(triple) != 3 {
			return fmt.Errorf("record %d (case %d): triple has %d elements, want 3", i, r.CaseID, len(triple))
		}
	}
	return nil
}
