package types

// Cluster is a top-level group of relations. Each cluster keeps its own
// partition of every domain's entities, held in DomainClusters.
type Cluster struct {
	ID             string          `json:"cluster_id"`
	Relations      []string        `json:"relations"`
	DomainClusters []DomainCluster `json:"domain_clusters"`
}

// DomainCluster is one block of a domain's partition inside a parent
// Cluster. IDs are scoped to the parent cluster and domain.
type DomainCluster struct {
	ID       string   `json:"cluster_id"`
	Domain   string   `json:"domain"`
	Entities []string `json:"entities"`
}

// Domains returns the distinct domains partitioned by this cluster, in file
// order.
func (c Cluster) Domains() []string {
	seen := make(map[string]bool)
	var out []string
	for _, dc := range c.DomainClusters {
		if !seen[dc.Domain] {
			seen[dc.Domain] = true
			out = append(out, dc.Domain)
		}
	}
	return out
}

// EntitiesOf concatenates the entities of every DomainCluster for domain.
func (c Cluster) EntitiesOf(domain string) []string {
	var out []string
	for _, dc := range c.DomainClusters {
		if dc.Domain == domain {
			out = append(out, dc.Entities...)
		}
	}
	return out
}

// HasRelation reports whether relation is assigned to this cluster.
func (c Cluster) HasRelation(relation string) bool {
	for _, r := range c.Relations {
		if r == relation {
			return true
		}
	}
	return false
}

// Assignment maps each clustered relation to the IDs of every cluster that
// names it. A valid assignment has exactly one ID per relation.
func Assignment(clusters []Cluster) map[string][]string {
	out := make(map[string][]string)
	for _, c := range clusters {
		for _, r := range c.Relations {
			out[r] = append(out[r], c.ID)
		}
	}
	return out
}
