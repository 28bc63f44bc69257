package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"distribution-sizer/internal/classify"
	"distribution-sizer/internal/domain"
)

// Def defines a named aggregate over explicit tags or one wildcard.
type Def struct {
	Name     string            `koanf:"name" yaml:"name"`
	Tags     []string          `koanf:"tags" yaml:"tags"`
	Wildcard string            `koanf:"wildcard" yaml:"wildcard"` // all | other | unclassified
	Basis    domain.PowerBasis `koanf:"basis" yaml:"basis"`       // installed (default) | design
}

// Result is the outcome of one aggregation pass.
type Result struct {
	Aggregates map[string]*domain.PowerAggregate
	Uncovered  []string // tags (or raw classifications) no definition other than "all" covers
}

// Validate checks a definition list.
func Validate(defs []Def) error {
	var errs []error
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		switch {
		case d.Name == "":
			errs = append(errs, errors.New("aggregate without name"))
		case seen[d.Name]:
			errs = append(errs, fmt.Errorf("duplicate aggregate %q", d.Name))
		}
		seen[d.Name] = true

		switch d.Wildcard {
		case "":
			if len(d.Tags) == 0 {
				errs = append(errs, fmt.Errorf("aggregate %q: no tags and no wildcard", d.Name))
			}
		case domain.WildcardAll, domain.WildcardOther, domain.WildcardUnclassified:
			if len(d.Tags) > 0 {
				errs = append(errs, fmt.Errorf("aggregate %q: tags and wildcard are exclusive", d.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("aggregate %q: unknown wildcard %q", d.Name, d.Wildcard))
		}

		switch d.Basis {
		case "", domain.BasisInstalled, domain.BasisDesign:
		default:
			errs = append(errs, fmt.Errorf("aggregate %q: unknown basis %q", d.Name, d.Basis))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &domain.ConfigurationError{Table: "aggregates", Err: errors.Join(errs...)}
}

// Aggregate sums the records into the defined aggregates. Feeder records are
// skipped: they carry the total, not a part of it.
func Aggregate(records []*domain.CircuitRecord, defs []Def, tax *classify.Taxonomy) (*Result, error) {
	if err := Validate(defs); err != nil {
		return nil, err
	}

	res := &Result{Aggregates: make(map[string]*domain.PowerAggregate, len(defs))}
	explicit := make(map[string]bool)
	for _, d := range defs {
		basis := d.Basis
		if basis == "" {
			basis = domain.BasisInstalled
		}
		res.Aggregates[d.Name] = &domain.PowerAggregate{
			Name:     d.Name,
			Tags:     append([]string(nil), d.Tags...),
			Wildcard: d.Wildcard,
			Basis:    basis,
		}
		for _, tag := range d.Tags {
			explicit[tag] = true
		}
	}

	uncovered := make(map[string]struct{})
	for _, rec := range records {
		if rec.Feeder {
			continue
		}
		tag, known := tax.Resolve(rec.Classification)

		covered := false
		for _, d := range defs {
			if !matches(d, tag, known, explicit) {
				continue
			}
			add(res.Aggregates[d.Name], rec)
			if d.Wildcard != domain.WildcardAll {
				covered = true
			}
		}
		if !covered {
			label := tag
			if !known {
				label = rec.Classification
				if label == "" {
					label = domain.WildcardUnclassified
				}
			}
			uncovered[label] = struct{}{}
		}
	}

	for label := range uncovered {
		res.Uncovered = append(res.Uncovered, label)
	}
	sort.Strings(res.Uncovered)
	return res, nil
}

func matches(d Def, tag string, known bool, explicit map[string]bool) bool {
	switch d.Wildcard {
	case domain.WildcardAll:
		return true
	case domain.WildcardOther:
		return known && !explicit[tag]
	case domain.WildcardUnclassified:
		return !known
	}
	if !known {
		return false
	}
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func add(agg *domain.PowerAggregate, rec *domain.CircuitRecord) {
	pp := rec.EffectiveDesignKW()
	agg.InstalledKW += rec.InstalledKW
	agg.DesignKW += pp
	agg.ReactiveKVar += pp * TanPhi(rec.PowerFactor)
	agg.Consumers += rec.ConsumerCount()
	agg.Circuits++
}

// TanPhi returns tan(phi) for cos(phi); cos(phi) outside (0, 1) counts as 1,
// giving 0.
func TanPhi(cosPhi float64) float64 {
	if cosPhi <= 0 || cosPhi >= 1 {
		return 0
	}
	return math.Sqrt(1-cosPhi*cosPhi) / cosPhi
}

// Warning returns the coverage warning of the pass, or nil.
func (r *Result) Warning() error {
	if len(r.Uncovered) == 0 {
		return nil
	}
	return &domain.CoverageWarning{Tags: append([]string(nil), r.Uncovered...)}
}

// Put adds or replaces a computed aggregate.
func (r *Result) Put(agg *domain.PowerAggregate) {
	r.Aggregates[agg.Name] = agg
}

// Require fails with MissingAggregateError when any of names was not built.
// Names that are uncovered tags are reported as such.
func (r *Result) Require(names []string) error {
	var missing, uncovered []string
	for _, n := range names {
		if _, ok := r.Aggregates[n]; ok {
			continue
		}
		missing = append(missing, n)
		for _, u := range r.Uncovered {
			if u == n {
				uncovered = append(uncovered, n)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.MissingAggregateError{Names: missing, Uncovered: uncovered}
}

// Values returns the basis value of every aggregate by name.
func (r *Result) Values() map[string]float64 {
	out := make(map[string]float64, len(r.Aggregates))
	for name, a := range r.Aggregates {
		out[name] = a.Value()
	}
	return out
}

// Sorted returns copies of the aggregates ordered by name.
func (r *Result) Sorted() []domain.PowerAggregate {
	out := make([]domain.PowerAggregate, 0, len(r.Aggregates))
	for _, a := range r.Aggregates {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
