// Package types holds the in-memory HIRM model produced by the text
// loaders: the relation schema, observations and the hierarchical cluster
// assignment. The three aggregates reference each other only by name.
package types

import (
	"github.com/teranos/hirm/errors"
)

// Relation is a named predicate over one or more domains. Domain order
// defines the arity and the positional meaning of observation items.
type Relation struct {
	Name         string   `json:"name"`
	Distribution string   `json:"distribution"` // Distribution family tag, looked up elsewhere
	Domains      []string `json:"domains"`
}

// Arity returns the number of domains the relation ranges over.
func (r Relation) Arity() int {
	return len(r.Domains)
}

// Schema maps relation names to relations, preserving the order in which
// relations were added.
type Schema struct {
	relations map[string]Relation
	order     []string
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{relations: make(map[string]Relation)}
}

// Add inserts a relation. Names must be unique and every relation needs at
// least one domain.
func (s *Schema) Add(rel Relation) error {
	if rel.Name == "" {
		return errors.New("relation name cannot be empty")
	}
	if len(rel.Domains) == 0 {
		return errors.Newf("relation %q has no domains", rel.Name)
	}
	if s.relations == nil {
		s.relations = make(map[string]Relation)
	}
	if _, ok := s.relations[rel.Name]; ok {
		return errors.NewDuplicateError("relation %q", rel.Name)
	}
	rel.Domains = append([]string(nil), rel.Domains...)
	s.relations[rel.Name] = rel
	s.order = append(s.order, rel.Name)
	return nil
}

// Get returns the relation with the given name.
func (s *Schema) Get(name string) (Relation, bool) {
	if s == nil {
		return Relation{}, false
	}
	rel, ok := s.relations[name]
	if !ok {
		return Relation{}, false
	}
	rel.Domains = append([]string(nil), rel.Domains...)
	return rel, true
}

// Has reports whether the schema defines name.
func (s *Schema) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.relations[name]
	return ok
}

// Arity returns the domain count of the named relation, or -1 if unknown.
func (s *Schema) Arity(name string) int {
	if s == nil {
		return -1
	}
	rel, ok := s.relations[name]
	if !ok {
		return -1
	}
	return len(rel.Domains)
}

// Len returns the number of relations.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Names returns relation names in insertion order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Relations returns all relations in insertion order.
func (s *Schema) Relations() []Relation {
	if s == nil {
		return nil
	}
	out := make([]Relation, 0, len(s.order))
	for _, name := range s.order {
		rel, _ := s.Get(name)
		out = append(out, rel)
	}
	return out
}

// Domains returns every distinct domain named by the schema, in order of
// first use.
func (s *Schema) Domains() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, name := range s.order {
		for _, d := range s.relations[name].Domains {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// HasDomain reports whether any relation ranges over domain.
func (s *Schema) HasDomain(domain string) bool {
	if s == nil {
		return false
	}
	for _, rel := range s.relations {
		for _, d := range rel.Domains {
			if d == domain {
				return true
			}
		}
	}
	return false
}
