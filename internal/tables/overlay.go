package tables

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/lookup"
)

// ProductLine is a manufacturer catalogue of cable brands.
type ProductLine struct {
	Name   string         `yaml:"name"`
	Brands []ProductEntry `yaml:"brands"`
}

// ProductEntry is one cable brand with its own section/ampacity table.
type ProductEntry struct {
	Brand       string          `yaml:"brand"`
	Material    domain.Material `yaml:"material"`
	Geometry    domain.Geometry `yaml:"geometry"`
	SectionsMM2 []float64       `yaml:"sections_mm2"`
	AmpsSingleA []float64       `yaml:"amps_single_a"`
	AmpsThreeA  []float64       `yaml:"amps_three_a"`
}

// amps returns the ampacities for the voltage class.
func (e *ProductEntry) amps(phase domain.Phase) []float64 {
	if phase == domain.PhaseSingle {
		return e.AmpsSingleA
	}
	return e.AmpsThreeA
}

// validate checks an entry against the standard series.
func (e *ProductEntry) validate(line string, series []float64) error {
	invalid := func(reason string, args ...any) error {
		return &domain.InvalidProductDataError{
			ProductLine: line,
			Brand:       e.Brand,
			Reason:      fmt.Sprintf(reason, args...),
		}
	}

	if len(e.SectionsMM2) == 0 {
		return invalid("no sections")
	}
	if err := lookup.CheckAscending(e.SectionsMM2); err != nil {
		return invalid("sections: %v", err)
	}
	for _, s := range e.SectionsMM2 {
		if _, err := lookup.IndexOf(s, series); err != nil {
			return invalid("%g mm2 is not a standard section", s)
		}
	}
	for _, phase := range []domain.Phase{domain.PhaseSingle, domain.PhaseThree} {
		amps := e.amps(phase)
		if len(amps) != len(e.SectionsMM2) {
			return invalid("%s-phase: %d ampacities for %d sections", phase, len(amps), len(e.SectionsMM2))
		}
		if allZero(amps) {
			return invalid("%s-phase: all ampacities are zero", phase)
		}
	}
	return nil
}

// Overlay substitutes manufacturer tables for circuits whose cable brand
// belongs to the selected product line. Lookups return copies; the shared
// Set is never modified.
type Overlay struct {
	set       *Set
	line      *ProductLine
	brands    map[string]*ProductEntry // folded brand -> entry
	fold      cases.Caser
	unmatched map[string]struct{}
}

// NewOverlay selects productLine from set. An empty name disables the overlay.
// Returns ConfigurationError for an unknown line and InvalidProductDataError
// for an unusable entry.
func NewOverlay(set *Set, productLine string) (*Overlay, error) {
	o := &Overlay{
		set:       set,
		brands:    make(map[string]*ProductEntry),
		fold:      cases.Fold(),
		unmatched: make(map[string]struct{}),
	}
	if productLine == "" {
		return o, nil
	}

	for i := range set.ProductLines {
		if set.ProductLines[i].Name == productLine {
			o.line = &set.ProductLines[i]
			break
		}
	}
	if o.line == nil {
		return nil, &domain.ConfigurationError{
			Table: "product_lines",
			Err:   fmt.Errorf("unknown product line %q", productLine),
		}
	}

	for i := range o.line.Brands {
		e := &o.line.Brands[i]
		if err := e.validate(o.line.Name, set.Series.SectionsMM2); err != nil {
			return nil, err
		}
		o.brands[o.fold.String(e.Brand)] = e
	}
	return o, nil
}

// Active reports whether a product line is selected.
func (o *Overlay) Active() bool { return o.line != nil }

// TableFor returns the cable table a circuit is sized against. A brand of the
// selected product line wins; anything else falls back to the defaults and,
// when the circuit names a brand, records it as unmatched.
func (o *Overlay) TableFor(c *domain.CircuitRecord) (CableTable, error) {
	if o.line != nil && c.CableBrand != "" {
		if e, ok := o.brands[o.fold.String(c.CableBrand)]; ok && e.Material == c.Material && e.Geometry == c.Geometry() {
			return CableTable{
				SectionsMM2: append([]float64(nil), e.SectionsMM2...),
				AmpsA:       append([]float64(nil), e.amps(c.Phase)...),
				Source:      o.line.Name + "/" + e.Brand,
			}, nil
		}
		o.unmatched[c.CableBrand] = struct{}{}
	}
	return o.set.CableTable(c.Material, c.Geometry(), c.Phase)
}

// Unmatched returns the brands that fell back to the default tables, sorted.
func (o *Overlay) Unmatched() []string {
	out := make([]string, 0, len(o.unmatched))
	for b := range o.unmatched {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}
