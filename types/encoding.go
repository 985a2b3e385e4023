package types

import (
	"github.com/teranos/hirm/errors"
)

// Encoding assigns each domain item a dense integer code. Codes start at 0
// per domain and follow the order in which items first appear in the
// observation sequence.
type Encoding struct {
	toCode map[string]map[string]int
	toItem map[string][]string
}

// Encode builds the item encoding for observations under schema. Every
// domain of the schema gets an entry, even when no item of it is observed.
func Encode(schema *Schema, observations []Observation) (*Encoding, error) {
	enc := &Encoding{
		toCode: make(map[string]map[string]int),
		toItem: make(map[string][]string),
	}
	for _, d := range schema.Domains() {
		enc.toCode[d] = make(map[string]int)
		enc.toItem[d] = nil
	}

	for i, obs := range observations {
		rel, ok := schema.Get(obs.Relation)
		if !ok {
			return nil, errors.NewReferenceError("observation %d: unknown relation %q", i+1, obs.Relation)
		}
		if len(obs.Items) != len(rel.Domains) {
			return nil, errors.NewReferenceError("observation %d: relation %q takes %d items, got %d",
				i+1, obs.Relation, len(rel.Domains), len(obs.Items))
		}
		for pos, item := range obs.Items {
			domain := rel.Domains[pos]
			if _, seen := enc.toCode[domain][item]; seen {
				continue
			}
			enc.toCode[domain][item] = len(enc.toItem[domain])
			enc.toItem[domain] = append(enc.toItem[domain], item)
		}
	}
	return enc, nil
}

// Code returns the code of item in domain.
func (e *Encoding) Code(domain, item string) (int, bool) {
	codes, ok := e.toCode[domain]
	if !ok {
		return 0, false
	}
	code, ok := codes[item]
	return code, ok
}

// Item returns the item encoded as code in domain.
func (e *Encoding) Item(domain string, code int) (string, bool) {
	items := e.toItem[domain]
	if code < 0 || code >= len(items) {
		return "", false
	}
	return items[code], true
}

// Size returns how many distinct items of domain were observed.
func (e *Encoding) Size(domain string) int {
	return len(e.toItem[domain])
}

// Items returns the observed items of domain ordered by code.
func (e *Encoding) Items(domain string) []string {
	return append([]string(nil), e.toItem[domain]...)
}

// HasDomain reports whether domain is part of the encoding.
func (e *Encoding) HasDomain(domain string) bool {
	_, ok := e.toCode[domain]
	return ok
}

// EncodeItems translates an observation's items into codes.
func (e *Encoding) EncodeItems(schema *Schema, obs Observation) ([]int, error) {
	rel, ok := schema.Get(obs.Relation)
	if !ok {
		return nil, errors.NewReferenceError("unknown relation %q", obs.Relation)
	}
	if len(obs.Items) != len(rel.Domains) {
		return nil, errors.NewReferenceError("relation %q takes %d items, got %d",
			obs.Relation, len(rel.Domains), len(obs.Items))
	}
	codes := make([]int, len(obs.Items))
	for pos, item := range obs.Items {
		code, ok := e.Code(rel.Domains[pos], item)
		if !ok {
			return nil, errors.NewReferenceError("item %q not encoded in domain %q", item, rel.Domains[pos])
		}
		codes[pos] = code
	}
	return codes, nil
}
