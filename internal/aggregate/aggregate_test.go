package aggregate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribution-sizer/internal/classify"
	"distribution-sizer/internal/domain"
)

func records() []*domain.CircuitRecord {
	return []*domain.CircuitRecord{
		{CircuitID: "L1", InstalledKW: 4, DemandFactor: 0.5, PowerFactor: 1, Classification: "Освещение", Consumers: 20},
		{CircuitID: "P1", InstalledKW: 10, DesignKW: 8, PowerFactor: 0.8, Classification: "Pump"},
		{CircuitID: "V1", InstalledKW: 6, PowerFactor: 0.8, Classification: "Вентиляция"},
		{CircuitID: "X1", InstalledKW: 3, PowerFactor: 0.9, Classification: "Server room"},
		{CircuitID: "F1", InstalledKW: 100, Feeder: true, Classification: "Освещение"},
	}
}

func TestAggregate(t *testing.T) {
	defs := []Def{
		{Name: "P_light", Tags: []string{"lighting"}},
		{Name: "P_pumps", Tags: []string{"pumps"}, Basis: domain.BasisDesign},
		{Name: "P_total", Wildcard: domain.WildcardAll},
		{Name: "P_other", Wildcard: domain.WildcardOther},
		{Name: "P_unknown", Wildcard: domain.WildcardUnclassified},
	}

	res, err := Aggregate(records(), defs, classify.Default())
	require.NoError(t, err)

	light := res.Aggregates["P_light"]
	assert.Equal(t, 4.0, light.InstalledKW)
	assert.Equal(t, 2.0, light.DesignKW)
	assert.Equal(t, 20, light.Consumers)
	assert.Equal(t, 1, light.Circuits)

	pumps := res.Aggregates["P_pumps"]
	assert.Equal(t, 8.0, pumps.Value(), "design basis reports Pp")
	assert.InDelta(t, 6.0, pumps.ReactiveKVar, 1e-9) // 8 * 0.75

	total := res.Aggregates["P_total"]
	assert.Equal(t, 23.0, total.InstalledKW, "feeder excluded")
	assert.Equal(t, 4, total.Circuits)

	assert.Equal(t, 6.0, res.Aggregates["P_other"].InstalledKW) // ventilation
	assert.Equal(t, 3.0, res.Aggregates["P_unknown"].InstalledKW)

	assert.Empty(t, res.Uncovered)
	assert.NoError(t, res.Warning())
}

func TestAggregate_CoverageWarning(t *testing.T) {
	defs := []Def{
		{Name: "P_light", Tags: []string{"lighting"}},
		{Name: "P_total", Wildcard: domain.WildcardAll},
	}

	res, err := Aggregate(records(), defs, classify.Default())
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"Server room", "pumps", "ventilation"}, res.Uncovered); diff != "" {
		t.Errorf("uncovered mismatch (-want +got):\n%s", diff)
	}

	var cw *domain.CoverageWarning
	require.True(t, errors.As(res.Warning(), &cw))
	assert.Len(t, cw.Tags, 3)
}

func TestRequire(t *testing.T) {
	defs := []Def{{Name: "P_light", Tags: []string{"lighting"}}}
	res, err := Aggregate(records(), defs, classify.Default())
	require.NoError(t, err)

	assert.NoError(t, res.Require([]string{"P_light"}))

	err = res.Require([]string{"P_light", "pumps", "P_missing"})
	var me *domain.MissingAggregateError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, []string{"pumps", "P_missing"}, me.Names)
	assert.Equal(t, []string{"pumps"}, me.Uncovered)
}

func TestPutAndSorted(t *testing.T) {
	res, err := Aggregate(nil, []Def{{Name: "b", Wildcard: domain.WildcardAll}}, classify.Default())
	require.NoError(t, err)

	res.Put(&domain.PowerAggregate{Name: "a", DesignKW: 5, Basis: domain.BasisDesign})
	sorted := res.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "a", sorted[0].Name)
	assert.Equal(t, map[string]float64{"a": 5, "b": 0}, res.Values())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		defs []Def
	}{
		{"no name", []Def{{Tags: []string{"x"}}}},
		{"duplicate", []Def{{Name: "a", Tags: []string{"x"}}, {Name: "a", Tags: []string{"y"}}}},
		{"empty", []Def{{Name: "a"}}},
		{"both", []Def{{Name: "a", Tags: []string{"x"}, Wildcard: domain.WildcardAll}}},
		{"bad wildcard", []Def{{Name: "a", Wildcard: "some"}}},
		{"bad basis", []Def{{Name: "a", Wildcard: domain.WildcardAll, Basis: "peak"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ce *domain.ConfigurationError
			assert.True(t, errors.As(Validate(tt.defs), &ce))
		})
	}
}

func TestTanPhi(t *testing.T) {
	assert.Equal(t, 0.0, TanPhi(1))
	assert.Equal(t, 0.0, TanPhi(0))
	assert.InDelta(t, 0.75, TanPhi(0.8), 1e-12)
	assert.Equal(t, 0.0, TanPhi(-0.5), "negative cos phi counts as 1")
	assert.Equal(t, 0.0, TanPhi(1.2), "cos phi above 1 counts as 1")
}
