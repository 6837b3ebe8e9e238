// Package jeopardy filters a processed Jeopardy question set down to the
// questions answerable inside a given triplet graph: every answer entity
// must be a graph node and at least two question entities must be too.
package jeopardy

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ottersome/tripletforge/internal/model"
)

const (
	questionQIDColumn  = "Question-Qid"
	answerQIDColumn    = "Answer-Qid"
	questionEntsColumn = "Question-Entities"
)

var literalToken = regexp.MustCompile(`'([^']*)'|"([^"]*)"`)

// parseLiteralList extracts the string elements of a Python-style list
// literal like ['Q1', "Q2"]. Anything unquoted is ignored.
func parseLiteralList(s string) []string {
	matches := literalToken.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" {
			out = append(out, m[1])
		} else if m[2] != "" {
			out = append(out, m[2])
		}
	}
	return out
}

// formatLiteralList renders ids back into the same list-literal form the
// source files use.
func formatLiteralList(ids []string) string {
	if len(ids) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(id)
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}

// LoadNodeTitles reads a node-data CSV mapping entity identifiers (RDF
// column) to display titles (Title column).
func LoadNodeTitles(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open node data: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read node data: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("node data %s: empty file", path)
	}

	rdfCol, titleCol := -1, -1
	for i, name := range rows[0] {
		switch name {
		case "RDF":
			rdfCol = i
		case "Title":
			titleCol = i
		}
	}
	if rdfCol < 0 || titleCol < 0 {
		return nil, fmt.Errorf("node data %s: missing RDF/Title columns", path)
	}

	titles := make(map[string]string, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) > rdfCol && len(row) > titleCol {
			titles[row[rdfCol]] = row[titleCol]
		}
	}
	return titles, nil
}

// FilterFile reads the questions CSV at questionsPath, drops every row whose
// answer entities are not all graph nodes or that shares fewer than two
// question entities with the graph, rewrites the question-entity list to the
// intersection, and writes the surviving rows to outPath. Titles may be nil;
// when present they populate the human-readable entity column. Returns how
// many rows were kept out of how many read.
func FilterFile(questionsPath, outPath string, nodes model.IDSet, titles map[string]string, log zerolog.Logger) (int, int, error) {
	log = log.With().Str("component", "jeopardy").Logger()

	f, err := os.Open(questionsPath)
	if err != nil {
		return 0, 0, fmt.Errorf("open questions: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return 0, 0, fmt.Errorf("read questions: %w", err)
	}
	if len(rows) == 0 {
		return 0, 0, fmt.Errorf("questions %s: empty file", questionsPath)
	}

	header := rows[0]
	questionCol, answerCol, entsCol := -1, -1, -1
	for i, name := range header {
		switch name {
		case questionQIDColumn:
			questionCol = i
		case answerQIDColumn:
			answerCol = i
		case questionEntsColumn:
			entsCol = i
		}
	}
	if questionCol < 0 || answerCol < 0 {
		return 0, 0, fmt.Errorf("questions %s: missing %s/%s columns", questionsPath, questionQIDColumn, answerQIDColumn)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, 0, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return 0, 0, fmt.Errorf("write header: %w", err)
	}

	kept := 0
	total := len(rows) - 1
	for _, row := range rows[1:] {
		if len(row) <= questionCol || len(row) <= answerCol {
			continue
		}

		answers := parseLiteralList(row[answerCol])
		if !allIn(answers, nodes) {
			continue
		}

		// Intersection keeps the original question-entity order.
		var intersection []string
		seen := make(model.IDSet)
		for _, id := range parseLiteralList(row[questionCol]) {
			if nodes.Contains(id) && seen.Add(id) {
				intersection = append(intersection, id)
			}
		}
		if len(intersection) < 2 {
			continue
		}

		row[questionCol] = formatLiteralList(intersection)
		if entsCol >= 0 && len(row) > entsCol && titles != nil {
			names := make([]string, len(intersection))
			for i, id := range intersection {
				names[i] = titles[id]
			}
			row[entsCol] = formatLiteralList(names)
		}

		if err := w.Write(row); err != nil {
			return 0, 0, fmt.Errorf("write row: %w", err)
		}
		kept++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, 0, err
	}

	log.Info().Int("kept", kept).Int("total", total).Msg("filtered questions")
	return kept, total, nil
}

func allIn(ids []string, nodes model.IDSet) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !nodes.Contains(id) {
			return false
		}
	}
	return true
}

// Nodes collects every entity appearing as head or tail of the triplets.
func Nodes(triplets []model.Triplet) model.IDSet {
	nodes := make(model.IDSet)
	for _, t := range triplets {
		nodes.Add(t.Head)
		nodes.Add(t.Tail)
	}
	return nodes
}
