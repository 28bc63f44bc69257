package domain

// Dimension is the primary key dimension of a demand table.
type Dimension string

// Dimension constants
const (
	DimensionCount Dimension = "count" // keyed by consumer count
	DimensionPower Dimension = "power" // keyed by installed power, kW
)

// DemandRow is one row of a demand table. WeightPct selects the row in
// weight-dependent tables and is ignored otherwise.
type DemandRow struct {
	WeightPct float64   `yaml:"weight_pct"`
	Values    []float64 `yaml:"values"`
}

// DemandTable is a named demand-factor table. Keys are the thresholds of the
// primary dimension, ascending or descending; every row holds one value per key.
type DemandTable struct {
	Name      string      `yaml:"name"`
	Dimension Dimension   `yaml:"dimension"`
	Keys      []float64   `yaml:"keys"`
	DependsOn string      `yaml:"depends_on"` // aggregate whose unit-weight percentage selects the row
	Specific  bool        `yaml:"specific"`   // values are kW per consumer, not factors
	Rows      []DemandRow `yaml:"rows"`
}

// WeightDependent reports whether the table is selected by a weight percentage.
func (t *DemandTable) WeightDependent() bool {
	return t.DependsOn != "" && len(t.Rows) > 1
}

// StandardSeries holds the standard cross-sections (mm2) and breaker
// ratings (A), both ascending. Immutable for the duration of a run.
type StandardSeries struct {
	SectionsMM2 []float64 `yaml:"sections_mm2"`
	RatingsA    []float64 `yaml:"ratings_a"`
}
