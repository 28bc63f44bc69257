package tables

import (
	"errors"
	"fmt"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/lookup"
)

var (
	allMaterials  = []domain.Material{domain.MaterialCopper, domain.MaterialAluminium}
	allGeometries = []domain.Geometry{domain.GeometryMultiCore, domain.GeometrySingleCore}
	allPhases     = []domain.Phase{domain.PhaseSingle, domain.PhaseThree}
)

// Validate checks every table of the set. All problems are reported together
// in one ConfigurationError.
func (s *Set) Validate() error {
	var errs []error
	add := func(table string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", table, err))
		}
	}

	add("series.sections_mm2", lookup.CheckAscending(s.Series.SectionsMM2))
	add("series.ratings_a", lookup.CheckAscending(s.Series.RatingsA))

	// Ampacity: one table per material/geometry/phase.
	seen := make(map[string]bool)
	for _, t := range s.Ampacity {
		key := fmt.Sprintf("%s/%s/%s", t.Material, t.Geometry, t.Phase)
		if seen[key] {
			add("ampacity "+key, errors.New("duplicate table"))
			continue
		}
		seen[key] = true
		add("ampacity "+key, checkAmpacity(t.AmpsA, len(s.Series.SectionsMM2)))
	}
	for _, m := range allMaterials {
		for _, g := range allGeometries {
			for _, p := range allPhases {
				key := fmt.Sprintf("%s/%s/%s", m, g, p)
				if !seen[key] {
					add("ampacity "+key, errors.New("missing table"))
				}
			}
		}
	}

	add("grouping.cable", ValidateDemandTable(&s.Grouping.Cable))
	add("grouping.breaker", ValidateDemandTable(&s.Grouping.Breaker))
	if s.Grouping.BreakerLimitA < 0 {
		add("grouping.breaker_limit_a", errors.New("must not be negative"))
	}

	for _, m := range allMaterials {
		for _, p := range allPhases {
			c, err := s.DropCoefficient(m, p)
			if err != nil {
				add("voltage_drop", fmt.Errorf("missing coefficient for %s %s-phase", m, p))
				continue
			}
			if c <= 0 {
				add("voltage_drop", fmt.Errorf("%s %s-phase: coefficient must be positive", m, p))
			}
		}
	}

	for _, c := range s.Conduits {
		if _, err := lookup.IndexOf(c.SectionMM2, s.Series.SectionsMM2); err != nil {
			add("conduits", fmt.Errorf("%g mm2 is not a standard section", c.SectionMM2))
		}
		if c.DiameterMM <= 0 {
			add("conduits", fmt.Errorf("%g mm2: diameter must be positive", c.SectionMM2))
		}
	}

	names := make(map[string]bool)
	for i := range s.DemandTables {
		t := &s.DemandTables[i]
		if names[t.Name] {
			add("demand_tables", fmt.Errorf("duplicate table %q", t.Name))
			continue
		}
		names[t.Name] = true
		add("demand_tables."+t.Name, ValidateDemandTable(t))
	}

	lines := make(map[string]bool)
	for _, pl := range s.ProductLines {
		if pl.Name == "" || lines[pl.Name] {
			add("product_lines", fmt.Errorf("missing or duplicate name %q", pl.Name))
		}
		lines[pl.Name] = true
	}

	if len(errs) == 0 {
		return nil
	}
	return &domain.ConfigurationError{Err: errors.Join(errs...)}
}

// ValidateDemandTable checks keys, row shape and value range of a demand table.
func ValidateDemandTable(t *domain.DemandTable) error {
	if t.Name == "" {
		return errors.New("table has no name")
	}
	switch t.Dimension {
	case domain.DimensionCount, domain.DimensionPower:
	default:
		return fmt.Errorf("unknown dimension %q", t.Dimension)
	}
	if len(t.Rows) == 0 {
		return errors.New("no rows")
	}

	for i, row := range t.Rows {
		if err := lookup.CheckMonotonic(t.Keys, row.Values); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		for _, v := range row.Values {
			if v <= 0 {
				return fmt.Errorf("row %d: value %g must be positive", i, v)
			}
			if !t.Specific && v > 1 {
				return fmt.Errorf("row %d: factor %g exceeds 1", i, v)
			}
		}
	}

	if t.WeightDependent() {
		weights := make([]float64, len(t.Rows))
		for i, row := range t.Rows {
			weights[i] = row.WeightPct
		}
		if err := lookup.CheckMonotonic(weights, weights); err != nil {
			return fmt.Errorf("weight rows: %w", err)
		}
	}
	return nil
}

// checkAmpacity requires one value per section, no negatives, at least one
// manufactured section and strictly rising currents across manufactured ones.
func checkAmpacity(amps []float64, sections int) error {
	if len(amps) != sections {
		return fmt.Errorf("%d values for %d sections", len(amps), sections)
	}
	if allZero(amps) {
		return errors.New("all ampacities are zero")
	}
	var prev float64
	for i, a := range amps {
		if a < 0 {
			return fmt.Errorf("negative ampacity at index %d", i)
		}
		if a == 0 {
			continue
		}
		if a <= prev {
			return fmt.Errorf("ampacity not rising at index %d", i)
		}
		prev = a
	}
	return nil
}
