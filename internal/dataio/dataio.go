// Package dataio reads and writes the plain-text interchange files shared
// between pipeline stages: identifier lists, triplet files, and the expanded
// CSV that carries qualifier payloads.
package dataio

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ottersome/tripletforge/internal/model"
)

// LoadIDList reads one identifier per line, skipping blank lines and
// #-comments, deduplicating while preserving first-seen order.
func LoadIDList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan list: %w", err)
	}

	return ids, nil
}

// SaveIDList writes the identifiers one per line, lexicographically sorted.
func SaveIDList(path string, ids model.IDSet) error {
	sorted := ids.Slice()
	sort.Strings(sorted)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create list: %w", err)
	}
	defer func() { _ = file.Close() }()

	w := bufio.NewWriter(file)
	for _, id := range sorted {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return fmt.Errorf("write list: %w", err)
		}
	}
	return w.Flush()
}

// LoadTriplets reads whitespace-delimited head/relation/tail lines. Lines
// with a different field count are rejected.
func LoadTriplets(path string) ([]model.Triplet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open triplets: %w", err)
	}
	defer func() { _ = file.Close() }()

	var triplets []model.Triplet
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("triplet file %s line %d: %d fields, want 3", path, lineNo, len(fields))
		}
		triplets = append(triplets, model.Triplet{Head: fields[0], Relation: fields[1], Tail: fields[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan triplets: %w", err)
	}

	return triplets, nil
}

// SaveTriplets writes one whitespace-delimited triplet per line.
func SaveTriplets(path string, triplets []model.Triplet) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create triplets: %w", err)
	}
	defer func() { _ = file.Close() }()

	w := bufio.NewWriter(file)
	for _, t := range triplets {
		if _, err := fmt.Fprintln(w, t.String()); err != nil {
			return fmt.Errorf("write triplets: %w", err)
		}
	}
	return w.Flush()
}

// SaveExpandedCSV writes the four-column expanded form: head, rel, tail, and
// the serialized qualifier payload (empty when the edge has none).
func SaveExpandedCSV(path string, triplets []model.Triplet, qualifiers model.QualifierMap) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create expanded csv: %w", err)
	}
	defer func() { _ = file.Close() }()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"head", "rel", "tail", "qualifiers"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range triplets {
		qual := ""
		if payload, ok := qualifiers[t]; ok {
			qual = string(payload)
		}
		if err := w.Write([]string{t.Head, t.Relation, t.Tail, qual}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// LoadExpandedCSV reads the four-column expanded form back.
func LoadExpandedCSV(path string) ([]model.Triplet, model.QualifierMap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open expanded csv: %w", err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read expanded csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.QualifierMap{}, nil
	}

	var triplets []model.Triplet
	qualifiers := make(model.QualifierMap)
	for i, row := range rows[1:] { // skip header
		if len(row) != 4 {
			return nil, nil, fmt.Errorf("expanded csv row %d: %d columns, want 4", i+2, len(row))
		}
		t := model.Triplet{Head: row[0], Relation: row[1], Tail: row[2]}
		triplets = append(triplets, t)
		if row[3] != "" {
			qualifiers[t] = json.RawMessage(row[3])
		}
	}
	return triplets, qualifiers, nil
}
