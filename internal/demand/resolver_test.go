package demand

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribution-sizer/internal/domain"
)

func countTable() *domain.DemandTable {
	return &domain.DemandTable{
		Name:      "elevators_low",
		Dimension: domain.DimensionCount,
		Keys:      []float64{1, 2, 3, 4, 5, 6, 10},
		Rows:      []domain.DemandRow{{Values: []float64{1.0, 0.8, 0.8, 0.7, 0.7, 0.65, 0.5}}},
	}
}

func weightedTable() *domain.DemandTable {
	return &domain.DemandTable{
		Name:      "power_equipment",
		Dimension: domain.DimensionCount,
		DependsOn: "cooling",
		Keys:      []float64{2, 10},
		Rows: []domain.DemandRow{
			{WeightPct: 100, Values: []float64{1.0, 0.7}},
			{WeightPct: 50, Values: []float64{1.0, 0.6}},
		},
	}
}

type tableMap map[string]*domain.DemandTable

func (m tableMap) DemandTable(name string) (*domain.DemandTable, error) {
	if t, ok := m[name]; ok {
		return t, nil
	}
	return nil, &domain.ConfigurationError{Table: name, Err: fmt.Errorf("not defined")}
}

func TestResolve(t *testing.T) {
	tbl := countTable()

	tests := []struct {
		key  float64
		want float64
	}{
		{1, 1.0},
		{3, 0.8},
		{8, 0.575},
		{40, 0.5}, // clamped
	}
	for _, tt := range tests {
		got, err := Resolve(tbl, tt.key)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "key %g", tt.key)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	tbl := countTable()

	a, err := Resolve(tbl, 7)
	require.NoError(t, err)
	b, err := Resolve(tbl, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	w := weightedTable()
	c, err := ResolveWeighted(w, 6, 70)
	require.NoError(t, err)
	d, err := ResolveWeighted(w, 6, 70)
	require.NoError(t, err)
	assert.Equal(t, c, d)
}

func TestResolve_FactorAboveOneIsConfigurationError(t *testing.T) {
	tbl := countTable()
	tbl.Rows[0].Values[0] = 1.3

	_, err := Resolve(tbl, 1)
	var ce *domain.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "elevators_low", ce.Table)

	// Specific-load tables carry kW values and are exempt.
	tbl.Specific = true
	v, err := Resolve(tbl, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.3, v)
}

func TestResolve_MalformedKeys(t *testing.T) {
	tbl := countTable()
	tbl.Keys[2] = 2

	_, err := Resolve(tbl, 3)
	var ce *domain.ConfigurationError
	require.True(t, errors.As(err, &ce))
	var de *domain.DomainError
	assert.True(t, errors.As(err, &de))
}

func TestResolveWeighted(t *testing.T) {
	tbl := weightedTable()

	// Exact weight row
	v, err := ResolveWeighted(tbl, 10, 50)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v, 1e-12)

	// Two-level: key 6 -> 0.85 (100%), 0.8 (50%); weight 75% -> 0.825
	v, err = ResolveWeighted(tbl, 6, 75)
	require.NoError(t, err)
	assert.InDelta(t, 0.825, v, 1e-12)

	// Weight outside the rows clamps to the nearest row.
	v, err = ResolveWeighted(tbl, 10, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v, 1e-12)
}

func TestResolve_WeightDependentNeedsWeight(t *testing.T) {
	_, err := Resolve(weightedTable(), 4)
	var ce *domain.ConfigurationError
	assert.True(t, errors.As(err, &ce))
}

func TestResolverResolveAll(t *testing.T) {
	r := NewResolver(tableMap{
		"elevators_low":   countTable(),
		"power_equipment": weightedTable(),
		"lighting": {
			Name:      "lighting",
			Dimension: domain.DimensionPower,
			Keys:      []float64{5, 10},
			Rows:      []domain.DemandRow{{Values: []float64{1.0, 0.8}}},
		},
	})

	aggs := map[string]*domain.PowerAggregate{
		"lifts":     {Name: "lifts", Consumers: 4, InstalledKW: 30},
		"equipment": {Name: "equipment", Consumers: 10, InstalledKW: 40},
		"cooling":   {Name: "cooling", Consumers: 2, InstalledKW: 20},
		"light":     {Name: "light", Consumers: 50, InstalledKW: 7.5},
	}
	defs := []FactorDef{
		{Name: "ke", Table: "elevators_low", Aggregate: "lifts"},
		{Name: "kc", Table: "power_equipment", Aggregate: "equipment"},
		{Name: "ko", Table: "lighting", Aggregate: "light"},
		{Name: "kx", Table: "elevators_low", Aggregate: "absent"},
	}

	factors, diags, err := r.ResolveAll(defs, aggs)
	require.NoError(t, err)

	assert.InDelta(t, 0.7, factors["ke"], 1e-12)
	assert.InDelta(t, 0.6, factors["kc"], 1e-12) // 50% weight row at 10 consumers
	assert.InDelta(t, 0.9, factors["ko"], 1e-12) // 7.5 kW
	assert.NotContains(t, factors, "kx")

	require.Len(t, diags, 1)
	assert.Equal(t, domain.CodeMissingAggregate, diags[0].Code)
	assert.Equal(t, "kx", diags[0].Subject)

	sorted := Sorted(factors)
	require.Len(t, sorted, 3)
	assert.Equal(t, "kc", sorted[0].Name)
}

func TestResolverResolveAll_UnknownTable(t *testing.T) {
	r := NewResolver(tableMap{})
	_, _, err := r.ResolveAll([]FactorDef{{Name: "k", Table: "nope", Aggregate: "a"}},
		map[string]*domain.PowerAggregate{"a": {}})
	var ce *domain.ConfigurationError
	assert.True(t, errors.As(err, &ce))
}
