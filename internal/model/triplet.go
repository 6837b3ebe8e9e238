package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Triplet is an ordered (head, relation, tail) fact. All three fields are
// opaque identifiers; equality and hashing are structural, so a Triplet can
// be used directly as a map key.
type Triplet struct {
	Head     string `json:"head"`
	Relation string `json:"relation"`
	Tail     string `json:"tail"`
}

// Inverse returns the triplet with head and tail swapped and the relation
// replaced by rel.
func (t Triplet) Inverse(rel string) Triplet {
	return Triplet{Head: t.Tail, Relation: rel, Tail: t.Head}
}

// Key renders the triplet as a tab-joined string. Used as a serialized map
// key in checkpoint snapshots and qualifier files.
func (t Triplet) Key() string {
	return t.Head + "\t" + t.Relation + "\t" + t.Tail
}

// String renders the triplet in the whitespace-delimited file form.
func (t Triplet) String() string {
	return t.Head + " " + t.Relation + " " + t.Tail
}

// ParseTripletKey parses a tab-joined key back into a Triplet.
func ParseTripletKey(key string) (Triplet, error) {
	parts := strings.Split(key, "\t")
	if len(parts) != 3 {
		return Triplet{}, fmt.Errorf("malformed triplet key %q", key)
	}
	return Triplet{Head: parts[0], Relation: parts[1], Tail: parts[2]}, nil
}

// TripletSet is a set of triplets with structural identity.
type TripletSet map[Triplet]struct{}

// NewTripletSet builds a set from the given triplets.
func NewTripletSet(triplets ...Triplet) TripletSet {
	s := make(TripletSet, len(triplets))
	for _, t := range triplets {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts a triplet and reports whether it was new.
func (s TripletSet) Add(t Triplet) bool {
	if _, ok := s[t]; ok {
		return false
	}
	s[t] = struct{}{}
	return true
}

// Contains reports set membership.
func (s TripletSet) Contains(t Triplet) bool {
	_, ok := s[t]
	return ok
}

// Merge adds every triplet from other.
func (s TripletSet) Merge(other TripletSet) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Slice returns the triplets in unspecified order.
func (s TripletSet) Slice() []Triplet {
	out := make([]Triplet, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}

// Sorted returns the triplets ordered by key, for deterministic output.
func (s TripletSet) Sorted() []Triplet {
	out := s.Slice()
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// QualifierMap attaches auxiliary payloads to specific triplets. The payload
// is kept as raw JSON; it decorates the edge rather than standing as an
// independent fact.
type QualifierMap map[Triplet]json.RawMessage

// Merge adds every entry from other, overwriting on key collision.
func (q QualifierMap) Merge(other QualifierMap) {
	for t, payload := range other {
		q[t] = payload
	}
}

// IDSet is a set of entity or relation identifiers.
type IDSet map[string]struct{}

// NewIDSet builds a set from the given identifiers.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts an identifier and reports whether it was new.
func (s IDSet) Add(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Contains reports set membership.
func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Merge adds every identifier from other.
func (s IDSet) Merge(other IDSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Slice returns the identifiers in unspecified order.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}
