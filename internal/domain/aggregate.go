package domain

// Wildcard aggregate selectors.
const (
	WildcardAll          = "all"          // every record
	WildcardOther        = "other"        // classified records no explicit definition covers
	WildcardUnclassified = "unclassified" // records whose tag the taxonomy does not know
)

// PowerBasis selects which power an aggregate accumulates as its value.
type PowerBasis string

// PowerBasis constants
const (
	BasisInstalled PowerBasis = "installed" // sum of Py
	BasisDesign    PowerBasis = "design"    // sum of Pp
)

// PowerAggregate is a named sum over the circuit records whose
// classification tag it covers. Rebuilt on every run.
type PowerAggregate struct {
	Name     string
	Tags     []string   // covered tags (empty for wildcards)
	Wildcard string     // all | other | unclassified | ""
	Basis    PowerBasis // which power Value reports

	InstalledKW  float64 // accumulated Py
	DesignKW     float64 // accumulated Pp
	ReactiveKVar float64 // accumulated Pp * tan(phi)
	Consumers    int     // accumulated consumer count
	Circuits     int     // number of matching records
}

// Value returns the power selected by the aggregate's basis.
func (a *PowerAggregate) Value() float64 {
	if a.Basis == BasisDesign {
		return a.DesignKW
	}
	return a.InstalledKW
}

// NamedValue is a resolved scalar (demand factor or computed load) reported by name.
type NamedValue struct {
	Name  string
	Value float64
}
