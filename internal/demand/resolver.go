package demand

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/lookup"
)

// Resolve returns the value of a table that is not weight-dependent at key.
func Resolve(t *domain.DemandTable, key float64) (float64, error) {
	if t.WeightDependent() {
		return 0, &domain.ConfigurationError{
			Table: t.Name,
			Err:   fmt.Errorf("table depends on %q and needs a weight percentage", t.DependsOn),
		}
	}
	if len(t.Rows) == 0 {
		return 0, &domain.ConfigurationError{Table: t.Name, Err: errors.New("no rows")}
	}
	v, err := lookup.Interpolate(key, t.Keys, t.Rows[0].Values)
	if err != nil {
		return 0, &domain.ConfigurationError{Table: t.Name, Err: err}
	}
	return checkRange(t, v)
}

// ResolveWeighted returns the value of a weight-dependent table at key for the
// given unit-weight percentage. A row whose weight equals weightPct is used
// directly; otherwise rows and keys are interpolated together. Tables that do
// not depend on a weight ignore weightPct.
func ResolveWeighted(t *domain.DemandTable, key, weightPct float64) (float64, error) {
	if !t.WeightDependent() {
		return Resolve(t, key)
	}

	weights := make([]float64, len(t.Rows))
	grid := make([][]float64, len(t.Rows))
	for i, row := range t.Rows {
		if row.WeightPct == weightPct {
			v, err := lookup.Interpolate(key, t.Keys, row.Values)
			if err != nil {
				return 0, &domain.ConfigurationError{Table: t.Name, Err: err}
			}
			return checkRange(t, v)
		}
		weights[i] = row.WeightPct
		grid[i] = row.Values
	}

	v, err := lookup.Interpolate2D(key, weightPct, t.Keys, weights, grid)
	if err != nil {
		return 0, &domain.ConfigurationError{Table: t.Name, Err: err}
	}
	return checkRange(t, v)
}

// checkRange never clamps: a factor outside (0, 1] means the table is malformed.
func checkRange(t *domain.DemandTable, v float64) (float64, error) {
	if math.IsNaN(v) || v <= 0 {
		return 0, &domain.ConfigurationError{
			Table: t.Name,
			Err:   fmt.Errorf("resolved value %g is not positive", v),
		}
	}
	if !t.Specific && v > 1 {
		return 0, &domain.ConfigurationError{
			Table: t.Name,
			Err:   fmt.Errorf("resolved factor %g exceeds 1", v),
		}
	}
	return v, nil
}

// FactorDef names a demand factor resolved from a table keyed by an aggregate.
type FactorDef struct {
	Name      string `koanf:"name" yaml:"name"`
	Table     string `koanf:"table" yaml:"table"`
	Aggregate string `koanf:"aggregate" yaml:"aggregate"` // supplies the consumer count or installed power
}

// TableSource provides demand tables by name.
type TableSource interface {
	DemandTable(name string) (*domain.DemandTable, error)
}

// Resolver resolves the named demand factors of a run.
type Resolver struct {
	tables TableSource
}

// NewResolver creates a resolver over tables.
func NewResolver(tables TableSource) *Resolver {
	return &Resolver{tables: tables}
}

// Key returns the primary lookup key an aggregate supplies for table.
func Key(t *domain.DemandTable, agg *domain.PowerAggregate) float64 {
	if t.Dimension == domain.DimensionPower {
		return agg.InstalledKW
	}
	return float64(agg.Consumers)
}

// WeightPct returns the installed-power share of part in base, in percent.
func WeightPct(part, base *domain.PowerAggregate) float64 {
	if base == nil || part == nil || base.InstalledKW <= 0 {
		return 0
	}
	return 100 * part.InstalledKW / base.InstalledKW
}

// ResolveAll resolves every definition against the aggregates of the run.
// A definition whose aggregate is missing is skipped with a warning; a
// malformed table aborts with ConfigurationError.
func (r *Resolver) ResolveAll(defs []FactorDef, aggs map[string]*domain.PowerAggregate) (map[string]float64, []domain.Diagnostic, error) {
	factors := make(map[string]float64, len(defs))
	var diags []domain.Diagnostic

	for _, def := range defs {
		t, err := r.tables.DemandTable(def.Table)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve factor %s: %w", def.Name, err)
		}

		base, ok := aggs[def.Aggregate]
		if !ok {
			diags = append(diags, domain.Warning(def.Name, &domain.MissingAggregateError{Names: []string{def.Aggregate}}))
			continue
		}

		var v float64
		if t.WeightDependent() {
			part, ok := aggs[t.DependsOn]
			if !ok {
				diags = append(diags, domain.Warning(def.Name, &domain.MissingAggregateError{Names: []string{t.DependsOn}}))
				continue
			}
			v, err = ResolveWeighted(t, Key(t, base), WeightPct(part, base))
		} else {
			v, err = Resolve(t, Key(t, base))
		}
		if err != nil {
			return nil, nil, fmt.Errorf("resolve factor %s: %w", def.Name, err)
		}
		factors[def.Name] = v
	}
	return factors, diags, nil
}

// Sorted returns factors as name-sorted values.
func Sorted(factors map[string]float64) []domain.NamedValue {
	out := make([]domain.NamedValue, 0, len(factors))
	for name, v := range factors {
		out = append(out, domain.NamedValue{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
