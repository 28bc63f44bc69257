package tables

import (
	"fmt"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/lookup"
)

// AmpacityTable holds permissible currents for one material, geometry and
// voltage class. AmpsA has one entry per standard section; 0 marks a section
// that is not manufactured.
type AmpacityTable struct {
	Material domain.Material `yaml:"material"`
	Geometry domain.Geometry `yaml:"geometry"`
	Phase    domain.Phase    `yaml:"phase"`
	AmpsA    []float64       `yaml:"amps_a"`
}

// Grouping holds the joint-installation derating tables.
type Grouping struct {
	Cable         domain.DemandTable `yaml:"cable"`
	Breaker       domain.DemandTable `yaml:"breaker"`
	BreakerLimitA float64            `yaml:"breaker_limit_a"` // ratings above are not derated
}

// DropCoefficient is the voltage-drop coefficient C for a material and phase.
type DropCoefficient struct {
	Material domain.Material `yaml:"material"`
	Phase    domain.Phase    `yaml:"phase"`
	C        float64         `yaml:"c"`
}

// ConduitSize maps a section to a conduit diameter.
type ConduitSize struct {
	SectionMM2 float64 `yaml:"section_mm2"`
	DiameterMM int     `yaml:"diameter_mm"`
}

// Set is the lookup-table snapshot used by one run. It is read-only once
// loaded; overlays work on copies.
type Set struct {
	Series       domain.StandardSeries `yaml:"series"`
	Ampacity     []AmpacityTable       `yaml:"ampacity"`
	Grouping     Grouping              `yaml:"grouping"`
	VoltageDrop  []DropCoefficient     `yaml:"voltage_drop"`
	Conduits     []ConduitSize         `yaml:"conduits"`
	DemandTables []domain.DemandTable  `yaml:"demand_tables"`
	ProductLines []ProductLine         `yaml:"product_lines"`
}

// CableTable is the section/ampacity pair list a circuit is sized against.
type CableTable struct {
	SectionsMM2 []float64
	AmpsA       []float64
	Source      string // "default" or "<product line>/<brand>"
}

// Len returns the number of sections.
func (c CableTable) Len() int { return len(c.SectionsMM2) }

// MaxAmpacity returns the largest tabulated ampacity.
func (c CableTable) MaxAmpacity() float64 {
	var m float64
	for _, a := range c.AmpsA {
		if a > m {
			m = a
		}
	}
	return m
}

// IndexOf returns the index of section s.
func (c CableTable) IndexOf(s float64) (int, error) {
	return lookup.IndexOf(s, c.SectionsMM2)
}

// CableTable returns a copy of the default section/ampacity table for the
// given material, geometry and phase.
func (s *Set) CableTable(material domain.Material, geometry domain.Geometry, phase domain.Phase) (CableTable, error) {
	for _, t := range s.Ampacity {
		if t.Material == material && t.Geometry == geometry && t.Phase == phase {
			return CableTable{
				SectionsMM2: append([]float64(nil), s.Series.SectionsMM2...),
				AmpsA:       append([]float64(nil), t.AmpsA...),
				Source:      "default",
			}, nil
		}
	}
	return CableTable{}, &domain.ConfigurationError{
		Table: "ampacity",
		Err:   fmt.Errorf("no table for %s %s %s-phase", material, geometry, phase),
	}
}

// DemandTable returns the named demand table.
func (s *Set) DemandTable(name string) (*domain.DemandTable, error) {
	for i := range s.DemandTables {
		if s.DemandTables[i].Name == name {
			return &s.DemandTables[i], nil
		}
	}
	return nil, &domain.ConfigurationError{
		Table: name,
		Err:   fmt.Errorf("demand table not defined"),
	}
}

// DropCoefficient returns C for material and phase.
func (s *Set) DropCoefficient(material domain.Material, phase domain.Phase) (float64, error) {
	for _, d := range s.VoltageDrop {
		if d.Material == material && d.Phase == phase {
			return d.C, nil
		}
	}
	return 0, &domain.ConfigurationError{
		Table: "voltage_drop",
		Err:   fmt.Errorf("no coefficient for %s %s-phase", material, phase),
	}
}

// ConduitHint returns the conduit diameter hint for section, or "" when the
// section is laid on trays.
func (s *Set) ConduitHint(sectionMM2 float64) string {
	for _, c := range s.Conduits {
		if c.SectionMM2 == sectionMM2 {
			return fmt.Sprintf("d%d", c.DiameterMM)
		}
	}
	return ""
}
