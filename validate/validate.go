// Package validate cross-checks loaded observations and clusters against a
// schema. It never fails fast: every problem lands in the returned Report
// and the caller decides whether to reject or warn.
package validate

import (
	"fmt"
	"strings"

	"github.com/teranos/hirm/types"
)

// Validate checks observations and clusters against schema. A nil slice
// skips the checks that need it; an empty non-nil slice is validated as
// "nothing loaded".
func Validate(schema *types.Schema, observations []types.Observation, clusters []types.Cluster) *Report {
	r := &Report{}
	if observations != nil {
		checkObservations(r, schema, observations)
	}
	if clusters != nil {
		checkAssignment(r, schema, clusters)
		checkPartitions(r, schema, clusters)
	}
	if observations != nil && clusters != nil {
		checkCoverage(r, schema, observations, clusters)
	}
	return r
}

func checkObservations(r *Report, schema *types.Schema, observations []types.Observation) {
	for i, obs := range observations {
		rel, ok := schema.Get(obs.Relation)
		if !ok {
			r.add(Violation{
				Kind:     KindUnknownRelation,
				Message:  fmt.Sprintf("observation %d: relation %q is not in the schema", i+1, obs.Relation),
				Relation: obs.Relation,
				Index:    i + 1,
			})
			continue
		}
		if len(obs.Items) != len(rel.Domains) {
			r.add(Violation{
				Kind: KindArityMismatch,
				Message: fmt.Sprintf("observation %d: relation %q takes %d items (%s), got %d",
					i+1, obs.Relation, len(rel.Domains), strings.Join(rel.Domains, ", "), len(obs.Items)),
				Relation: obs.Relation,
				Index:    i + 1,
			})
		}
	}
}

// checkAssignment verifies that clusters partition the schema's relations.
func checkAssignment(r *Report, schema *types.Schema, clusters []types.Cluster) {
	assigned := types.Assignment(clusters)
	reported := make(map[string]bool)

	for _, c := range clusters {
		for _, name := range c.Relations {
			if reported[name] {
				continue
			}
			if !schema.Has(name) {
				reported[name] = true
				r.add(Violation{
					Kind:     KindUnknownRelation,
					Message:  fmt.Sprintf("cluster %q: relation %q is not in the schema", c.ID, name),
					Relation: name,
					Cluster:  c.ID,
				})
				continue
			}
			if ids := assigned[name]; len(ids) > 1 {
				reported[name] = true
				r.add(Violation{
					Kind: KindDuplicateAssignment,
					Message: fmt.Sprintf("relation %q is assigned to %d clusters: %s",
						name, len(ids), strings.Join(ids, ", ")),
					Relation: name,
					Cluster:  c.ID,
				})
			}
		}
	}

	for _, name := range schema.Names() {
		if _, ok := assigned[name]; !ok {
			r.add(Violation{
				Kind:     KindUnassignedRelation,
				Message:  fmt.Sprintf("relation %q is not assigned to any cluster", name),
				Relation: name,
			})
		}
	}
}

// checkPartitions verifies per-cluster domain partitions are disjoint and
// range over schema domains.
func checkPartitions(r *Report, schema *types.Schema, clusters []types.Cluster) {
	for _, c := range clusters {
		for _, domain := range c.Domains() {
			if !schema.HasDomain(domain) {
				r.add(Violation{
					Kind:    KindUnknownDomain,
					Message: fmt.Sprintf("cluster %q: domain %q is not used by any schema relation", c.ID, domain),
					Cluster: c.ID,
					Domain:  domain,
				})
			}

			owner := make(map[string]string)
			for _, dc := range c.DomainClusters {
				if dc.Domain != domain {
					continue
				}
				for _, e := range dc.Entities {
					if prev, dup := owner[e]; dup {
						r.add(Violation{
							Kind: KindOverlappingPartition,
							Message: fmt.Sprintf("cluster %q: entity %q of domain %q is in domain clusters %q and %q",
								c.ID, e, domain, prev, dc.ID),
							Cluster: c.ID,
							Domain:  domain,
							Entity:  e,
						})
						continue
					}
					owner[e] = dc.ID
				}
			}
		}
	}
}

// checkCoverage ties the partitions to the observed entities: every item
// observed for a clustered relation must be placed in that cluster, and
// every clustered entity must have been observed in its domain.
func checkCoverage(r *Report, schema *types.Schema, observations []types.Observation, clusters []types.Cluster) {
	observed := make(map[string]map[string]bool)
	for _, obs := range observations {
		rel, ok := schema.Get(obs.Relation)
		if !ok || len(obs.Items) != len(rel.Domains) {
			continue
		}
		for pos, item := range obs.Items {
			d := rel.Domains[pos]
			if observed[d] == nil {
				observed[d] = make(map[string]bool)
			}
			observed[d][item] = true
		}
	}

	owner := types.Assignment(clusters)
	placed := make(map[string]map[string]map[string]bool) // cluster -> domain -> entity
	for _, c := range clusters {
		if _, dup := placed[c.ID]; dup {
			continue
		}
		byDomain := make(map[string]map[string]bool)
		for _, dc := range c.DomainClusters {
			if byDomain[dc.Domain] == nil {
				byDomain[dc.Domain] = make(map[string]bool)
			}
			for _, e := range dc.Entities {
				byDomain[dc.Domain][e] = true
				// Domains missing from the schema are reported as unknown_domain.
				if schema.HasDomain(dc.Domain) && !observed[dc.Domain][e] {
					r.add(Violation{
						Kind:    KindUnknownEntity,
						Message: fmt.Sprintf("cluster %q: entity %q of domain %q never appears in the observations", c.ID, e, dc.Domain),
						Cluster: c.ID,
						Domain:  dc.Domain,
						Entity:  e,
					})
				}
			}
		}
		placed[c.ID] = byDomain
	}

	missing := make(map[string]bool)
	for i, obs := range observations {
		rel, ok := schema.Get(obs.Relation)
		if !ok || len(obs.Items) != len(rel.Domains) {
			continue
		}
		ids := owner[obs.Relation]
		if len(ids) != 1 {
			continue
		}
		cid := ids[0]
		for pos, item := range obs.Items {
			d := rel.Domains[pos]
			if placed[cid][d][item] {
				continue
			}
			key := cid + "\x00" + d + "\x00" + item
			if missing[key] {
				continue
			}
			missing[key] = true
			r.add(Violation{
				Kind: KindMissingEntity,
				Message: fmt.Sprintf("observation %d: item %q of domain %q is not placed in cluster %q",
					i+1, item, d, cid),
				Relation: obs.Relation,
				Cluster:  cid,
				Domain:   d,
				Entity:   item,
				Index:    i + 1,
			})
		}
	}
}
