package policy

import (
	"context"
	"slices"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "rules", []byte(Describe(DefaultRules())))
}

func TestDefaultRulesNeverConsultOwnTable(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, ValidateRules(rules))

	for _, r := range rules {
		assert.False(t, slices.Contains(r.consults(), r.Table),
			"%s %s consults its own table", r.Table, r.Operation)
	}
}

func TestDefaultRulesCoverEveryTable(t *testing.T) {
	e, err := New(newFakeStore())
	require.NoError(t, err)

	tables := append([]Table{TableProfiles, TableRelationships}, FamilyTables...)
	for _, table := range tables {
		for _, op := range Operations {
			_, ok := e.rules[table][op]
			assert.True(t, ok, "missing rule for %s %s", table, op)
		}
	}
}

func TestValidateRules(t *testing.T) {
	holds := func(context.Context, Check) (bool, error) { return true, nil }

	tests := []struct {
		name  string
		rules []Rule
	}{
		{
			name: "self reference",
			rules: []Rule{{
				Table:     TableRelationships,
				Operation: OpSelect,
				AnyOf: []Clause{clause("sneaky", Predicate{
					Name:     "lookup_links",
					Consults: []Table{TableRelationships},
					Holds:    holds,
				})},
			}},
		},
		{
			name: "duplicate",
			rules: []Rule{
				{Table: TableProgress, Operation: OpSelect},
				{Table: TableProgress, Operation: OpSelect},
			},
		},
		{
			name: "empty clause",
			rules: []Rule{{
				Table:     TableProgress,
				Operation: OpSelect,
				AnyOf:     []Clause{{Name: "empty"}},
			}},
		},
		{
			name: "predicate without check",
			rules: []Rule{{
				Table:     TableProgress,
				Operation: OpSelect,
				AnyOf:     []Clause{clause("broken", Predicate{Name: "nothing"})},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateRules(tt.rules))

			_, err := New(newFakeStore(), WithRules(tt.rules))
			assert.Error(t, err)
		})
	}
}
