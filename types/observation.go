package types

// Observation is one data point: a value observed for a relation at a tuple
// of domain items. Values stay untyped; numeric-looking strings are not
// coerced.
type Observation struct {
	Value    string   `json:"value"`
	Relation string   `json:"relation"`
	Items    []string `json:"items"`
}

// CountByRelation tallies observations per relation name.
func CountByRelation(observations []Observation) map[string]int {
	counts := make(map[string]int)
	for _, obs := range observations {
		counts[obs.Relation]++
	}
	return counts
}
