package wikidata

import (
	"encoding/json"
	"fmt"

	"github.com/ottersome/tripletforge/internal/model"
)

// Mode selects how qualifier edges are returned by a fetch.
type Mode string

const (
	// ModeSeparate keeps qualifiers out-of-band in the qualifier map.
	ModeSeparate Mode = "separate"
	// ModeExpanded folds entity-valued qualifiers into synthetic triplets.
	ModeExpanded Mode = "expanded"
)

// NeighborSet is the result of one entity fetch: the triplets touching the
// entity, a forward-reference map from statement ID to the resolved tail
// identifier, and the qualifier payloads keyed by triplet.
type NeighborSet struct {
	Triplets   model.TripletSet
	Forward    map[string]string
	Qualifiers model.QualifierMap
}

// claimsResponse mirrors the wbgetclaims-shaped JSON the KB gateway returns.
// With direction=both, statements for edges that point at the queried entity
// carry a subject field naming their head.
type claimsResponse struct {
	Claims map[string][]statement `json:"claims"`
	Error  *apiErrorBody          `json:"error,omitempty"`
}

type statement struct {
	ID         string                     `json:"id"`
	Subject    string                     `json:"subject,omitempty"`
	MainSnak   snak                       `json:"mainsnak"`
	Qualifiers map[string]json.RawMessage `json:"qualifiers,omitempty"`
}

type snak struct {
	SnakType  string     `json:"snaktype"`
	DataValue *dataValue `json:"datavalue,omitempty"`
}

type dataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type entityIDValue struct {
	ID string `json:"id"`
}

type apiErrorBody struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// entityID extracts the entity identifier from an entity-valued snak, or ""
// when the snak holds a literal, novalue, or somevalue.
func (s snak) entityID() string {
	if s.SnakType != "value" || s.DataValue == nil || s.DataValue.Type != "wikibase-entityid" {
		return ""
	}
	var v entityIDValue
	if err := json.Unmarshal(s.DataValue.Value, &v); err != nil {
		return ""
	}
	return v.ID
}

// parseNeighbors decodes a claims response for entity into a NeighborSet.
// Only entity-valued snaks form triplets; literal-valued statements are
// skipped, since the dataset is built from pure identifier triplets.
func parseNeighbors(entity string, body []byte, mode Mode) (*NeighborSet, error) {
	var resp claimsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("api error %s: %s", resp.Error.Code, resp.Error.Info)
	}

	set := &NeighborSet{
		Triplets:   make(model.TripletSet),
		Forward:    make(map[string]string),
		Qualifiers: make(model.QualifierMap),
	}

	for property, statements := range resp.Claims {
		for _, stmt := range statements {
			tail := stmt.MainSnak.entityID()
			if tail == "" {
				continue
			}

			var triplet model.Triplet
			if stmt.Subject != "" && stmt.Subject != entity {
				// Incoming edge: the queried entity is the tail.
				triplet = model.Triplet{Head: stmt.Subject, Relation: property, Tail: tail}
			} else {
				triplet = model.Triplet{Head: entity, Relation: property, Tail: tail}
			}
			set.Triplets.Add(triplet)

			if stmt.ID != "" {
				set.Forward[stmt.ID] = tail
			}

			if len(stmt.Qualifiers) == 0 {
				continue
			}
			switch mode {
			case ModeExpanded:
				for _, t := range qualifierTriplets(triplet, stmt.Qualifiers) {
					set.Triplets.Add(t)
				}
			default:
				payload, err := json.Marshal(stmt.Qualifiers)
				if err != nil {
					return nil, fmt.Errorf("encode qualifiers: %w", err)
				}
				set.Qualifiers[triplet] = payload
			}
		}
	}

	return set, nil
}

// qualifierTriplets folds entity-valued qualifier snaks into synthetic
// triplets anchored at the statement's head. Literal-valued qualifiers
// (dates, quantities) have no triplet form and are dropped in expanded mode.
func qualifierTriplets(parent model.Triplet, qualifiers map[string]json.RawMessage) []model.Triplet {
	var out []model.Triplet
	for property, raw := range qualifiers {
		var snaks []snak
		if err := json.Unmarshal(raw, &snaks); err != nil {
			continue
		}
		for _, s := range snaks {
			if id := s.entityID(); id != "" {
				out = append(out, model.Triplet{Head: parent.Head, Relation: property, Tail: id})
			}
		}
	}
	return out
}
