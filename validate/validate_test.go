package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/hirm/errors"
	"github.com/teranos/hirm/parser"
	"github.com/teranos/hirm/types"
)

func loadFixtures(t *testing.T) (*types.Schema, []types.Observation, []types.Cluster) {
	t.Helper()
	schema, err := parser.LoadSchema("../parser/testdata/animals.schema")
	require.NoError(t, err)
	obs, err := parser.LoadObservations("../parser/testdata/animals.obs")
	require.NoError(t, err)
	clusters, err := parser.LoadClusters("../parser/testdata/animals.hirm")
	require.NoError(t, err)
	return schema, obs, clusters
}

func testSchema(t *testing.T) *types.Schema {
	t.Helper()
	s := types.NewSchema()
	require.NoError(t, s.Add(types.Relation{Name: "R1", Distribution: "bernoulli", Domains: []string{"D1", "D1"}}))
	require.NoError(t, s.Add(types.Relation{Name: "R2", Distribution: "bernoulli", Domains: []string{"D1"}}))
	return s
}

func TestValidate_CleanFixture(t *testing.T) {
	schema, obs, clusters := loadFixtures(t)

	r := Validate(schema, obs, clusters)
	assert.True(t, r.OK(), r.Format(ErrorContextPlain))
	assert.NoError(t, r.Err())
	assert.Equal(t, "no violations", r.Format(ErrorContextPlain))
}

func TestValidate_NilSlicesSkipChecks(t *testing.T) {
	s := testSchema(t)

	// Without clusters there is nothing to assign, so no unassigned_relation.
	r := Validate(s, []types.Observation{{Value: "1", Relation: "R2", Items: []string{"a"}}}, nil)
	assert.True(t, r.OK())

	// An empty cluster list is a real (empty) assignment.
	r = Validate(s, nil, []types.Cluster{})
	assert.Len(t, r.ByKind(KindUnassignedRelation), 2)
}

func TestValidate_Observations(t *testing.T) {
	s := testSchema(t)
	obs := []types.Observation{
		{Value: "1", Relation: "R1", Items: []string{"a", "b"}},
		{Value: "1", Relation: "R3", Items: []string{"a"}},
		{Value: "0", Relation: "R2", Items: []string{"a", "b"}},
	}

	r := Validate(s, obs, nil)
	require.Equal(t, 2, r.Len())

	unknown := r.ByKind(KindUnknownRelation)
	require.Len(t, unknown, 1)
	assert.Equal(t, "R3", unknown[0].Relation)
	assert.Equal(t, 2, unknown[0].Index)

	arity := r.ByKind(KindArityMismatch)
	require.Len(t, arity, 1)
	assert.Equal(t, 3, arity[0].Index)
	assert.Contains(t, arity[0].Message, "takes 1 items")
}

func TestValidate_Assignment(t *testing.T) {
	tests := []struct {
		name     string
		clusters []types.Cluster
		want     []Kind
	}{
		{
			name:     "exact partition",
			clusters: []types.Cluster{{ID: "1", Relations: []string{"R1"}}, {ID: "2", Relations: []string{"R2"}}},
		},
		{
			name:     "unassigned",
			clusters: []types.Cluster{{ID: "1", Relations: []string{"R1"}}},
			want:     []Kind{KindUnassignedRelation},
		},
		{
			name:     "assigned twice",
			clusters: []types.Cluster{{ID: "1", Relations: []string{"R1", "R2"}}, {ID: "2", Relations: []string{"R2"}}},
			want:     []Kind{KindDuplicateAssignment},
		},
		{
			name:     "unknown relation",
			clusters: []types.Cluster{{ID: "1", Relations: []string{"R1", "R2", "R9"}}},
			want:     []Kind{KindUnknownRelation},
		},
	}

	s := testSchema(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Validate(s, nil, tt.clusters)
			var got []Kind
			for _, v := range r.Violations {
				got = append(got, v.Kind)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_DuplicateAssignmentReportedOnce(t *testing.T) {
	s := testSchema(t)
	clusters := []types.Cluster{
		{ID: "1", Relations: []string{"R1", "R2"}},
		{ID: "2", Relations: []string{"R2"}},
		{ID: "3", Relations: []string{"R2"}},
	}

	r := Validate(s, nil, clusters)
	dups := r.ByKind(KindDuplicateAssignment)
	require.Len(t, dups, 1)
	assert.Contains(t, dups[0].Message, "3 clusters: 1, 2, 3")
}

func TestValidate_Partitions(t *testing.T) {
	s := testSchema(t)
	clusters := []types.Cluster{
		{
			ID:        "1",
			Relations: []string{"R1", "R2"},
			DomainClusters: []types.DomainCluster{
				{ID: "0", Domain: "D1", Entities: []string{"a", "b"}},
				{ID: "1", Domain: "D1", Entities: []string{"b", "c"}},
				{ID: "0", Domain: "D9", Entities: []string{"x"}},
			},
		},
	}

	r := Validate(s, nil, clusters)

	overlap := r.ByKind(KindOverlappingPartition)
	require.Len(t, overlap, 1)
	assert.Equal(t, "b", overlap[0].Entity)
	assert.Equal(t, "D1", overlap[0].Domain)

	domain := r.ByKind(KindUnknownDomain)
	require.Len(t, domain, 1)
	assert.Equal(t, "D9", domain[0].Domain)
}

func TestValidate_SameEntityAcrossClustersIsFine(t *testing.T) {
	s := testSchema(t)
	clusters := []types.Cluster{
		{ID: "1", Relations: []string{"R1"}, DomainClusters: []types.DomainCluster{{ID: "0", Domain: "D1", Entities: []string{"a"}}}},
		{ID: "2", Relations: []string{"R2"}, DomainClusters: []types.DomainCluster{{ID: "0", Domain: "D1", Entities: []string{"a"}}}},
	}
	assert.True(t, Validate(s, nil, clusters).OK())
}

func TestValidate_Coverage(t *testing.T) {
	schema, obs, clusters := loadFixtures(t)

	// Drop tiger from cluster 1 and add an entity nobody observed.
	clusters[0].DomainClusters[1].Entities = []string{"lion"}
	clusters[0].DomainClusters = append(clusters[0].DomainClusters,
		types.DomainCluster{ID: "3", Domain: "animal", Entities: []string{"zebra"}})

	r := Validate(schema, obs, clusters)

	missing := r.ByKind(KindMissingEntity)
	require.Len(t, missing, 1)
	assert.Equal(t, "tiger", missing[0].Entity)
	assert.Equal(t, "whiskers", missing[0].Relation)
	assert.Equal(t, "1", missing[0].Cluster)
	assert.Equal(t, 9, missing[0].Index)

	unknown := r.ByKind(KindUnknownEntity)
	require.Len(t, unknown, 1)
	assert.Equal(t, "zebra", unknown[0].Entity)

	assert.Equal(t, 2, r.Len())
}

func TestValidate_CoverageUnobservedDomain(t *testing.T) {
	s := types.NewSchema()
	require.NoError(t, s.Add(types.Relation{Name: "R1", Distribution: "bernoulli", Domains: []string{"D1"}}))
	require.NoError(t, s.Add(types.Relation{Name: "R2", Distribution: "bernoulli", Domains: []string{"D2"}}))

	obs := []types.Observation{{Value: "1", Relation: "R1", Items: []string{"a"}}}
	clusters := []types.Cluster{
		{ID: "1", Relations: []string{"R1"}, DomainClusters: []types.DomainCluster{
			{ID: "0", Domain: "D1", Entities: []string{"a", "ghost1"}},
		}},
		{ID: "2", Relations: []string{"R2"}, DomainClusters: []types.DomainCluster{
			{ID: "0", Domain: "D2", Entities: []string{"ghost2"}},
		}},
	}

	r := Validate(s, obs, clusters)

	unknown := r.ByKind(KindUnknownEntity)
	require.Len(t, unknown, 2, r.Format(ErrorContextPlain))
	assert.Equal(t, "ghost1", unknown[0].Entity)
	assert.Equal(t, "D1", unknown[0].Domain)
	assert.Equal(t, "ghost2", unknown[1].Entity)
	assert.Equal(t, "D2", unknown[1].Domain)
	assert.Equal(t, 2, r.Len())

	// An empty observation list leaves every placed entity unobserved.
	r = Validate(s, []types.Observation{}, clusters)
	assert.Len(t, r.ByKind(KindUnknownEntity), 3)
}

func TestReport_Err(t *testing.T) {
	var r *Report
	assert.NoError(t, r.Err())
	assert.True(t, r.OK())
	assert.Equal(t, 0, r.Len())

	r = &Report{}
	r.add(Violation{Kind: KindUnassignedRelation, Message: "relation \"R1\" is not assigned to any cluster"})
	err := r.Err()
	require.Error(t, err)
	assert.True(t, errors.IsReferenceViolation(err))
	assert.Contains(t, err.Error(), "[unassigned_relation]")
	assert.NotContains(t, err.Error(), "more")

	r.add(Violation{Kind: KindUnknownDomain, Message: "x"})
	r.add(Violation{Kind: KindUnknownDomain, Message: "y"})
	err = r.Err()
	assert.Contains(t, err.Error(), "(and 2 more)")
}

func TestReport_Format(t *testing.T) {
	r := &Report{}
	r.add(Violation{Kind: KindUnknownDomain, Message: "first"})
	r.add(Violation{Kind: KindArityMismatch, Message: "second"})
	r.add(Violation{Kind: KindUnknownDomain, Message: "third"})

	assert.Equal(t, "[unknown_domain] first\n[arity_mismatch] second\n[unknown_domain] third", r.Format(ErrorContextPlain))
	assert.Equal(t, []Kind{KindUnknownDomain, KindArityMismatch}, r.Kinds())

	term := r.Format(ErrorContextTerminal)
	assert.Contains(t, term, "3 reference violation(s)")
	assert.Contains(t, term, "unknown_domain")
	assert.Contains(t, term, "• third")
}
