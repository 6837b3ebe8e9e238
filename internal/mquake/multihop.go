package mquake

import (
	"encoding/json"
	"fmt"
	"os"
)

// MultiHopEntry is the trimmed record written by the multi-hop subset: just
// the fields needed to study 3- and 4-hop question chains.
type MultiHopEntry struct {
	CaseID         int        `json:"case_id"`
	Questions      []string   `json:"questions"`
	Answer         string     `json:"answer"`
	NumHops        int        `json:"num_hops"`
	TriplesLabeled [][]string `json:"triples_labeled"`
}

// FilterMultiHop keeps records whose labeled chain has a hop count in hops
// and trims them down to MultiHopEntry form.
func FilterMultiHop(records []Record, hops ...int) []MultiHopEntry {
	wanted := make(map[int]bool, len(hops))
	for _, h := range hops {
		wanted[h] = true
	}

	var entries []MultiHopEntry
	for _, record := range records {
		n := len(record.Orig.TriplesLabeled)
		if !wanted[n] {
			continue
		}
		entries = append(entries, MultiHopEntry{
			CaseID:         record.CaseID,
			Questions:      record.Questions,
			Answer:         record.Answer,
			NumHops:        n,
			TriplesLabeled: record.Orig.TriplesLabeled,
		})
	}
	return entries
}

// SaveMultiHop writes the trimmed entries as indented JSON.
func SaveMultiHop(path string, entries []MultiHopEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	return nil
}
