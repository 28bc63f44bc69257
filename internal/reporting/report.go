package reporting

import "time"

// Report is the presentation form of one sizing run. Numeric values are
// rounded half-up and rendered as fixed-point strings.
type Report struct {
	// Metadata
	RunID       string
	ProjectID   string
	GeneratedAt time.Time
	RenderedAt  time.Time

	// Summary
	Summary SummarySection

	// Run checks
	Checks          []CheckRow
	AllChecksPassed bool

	// Loads (sorted by name)
	Aggregates []AggregateRow
	Factors    []FactorRow
	Risers     []RiserRow
	Elevators  []ElevatorRow

	// Per-circuit results (input order)
	Results []ResultRow

	UnmatchedBrands []string
	Diagnostics     []DiagnosticRow
}

// SummarySection is the top-level load of the board.
type SummarySection struct {
	Formula      string
	InstalledKW  string
	DesignKW     string
	PowerFactor  string
	CurrentA     string
	ApparentKVA  string
	Circuits     int
	Sized        int
	Partial      int
	Unresolvable int
}

// CheckRow represents one run check.
type CheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// AggregateRow represents one power aggregate.
type AggregateRow struct {
	Name         string
	Basis        string
	InstalledKW  string
	DesignKW     string
	ReactiveKVar string
	Consumers    int
	Circuits     int
}

// FactorRow represents one resolved demand factor.
type FactorRow struct {
	Name  string
	Value string
}

// RiserRow represents one residential riser.
type RiserRow struct {
	RiserID     string
	Apartments  int
	InstalledKW string
	DesignKW    string
	Failed      bool
}

// ElevatorRow represents one floor-height category.
type ElevatorRow struct {
	Category    string
	Lifts       int
	InstalledKW string
	Factor      string
	DesignKW    string
}

// ResultRow represents one sized circuit.
type ResultRow struct {
	CircuitID            string
	State                string
	DesignKW             string
	PowerFactor          string
	CurrentA             string
	BreakerA             string
	TripCurrentA         string
	SectionMM2           string
	PESectionMM2         string
	CableMark            string
	ConduitHint          string
	VoltageDropPct       string
	RequestedDropPct     string
	BreakerOverestimated bool
	SectionOverestimated bool
	VoltageDropDriven    bool
}

// DiagnosticRow represents one diagnostic.
type DiagnosticRow struct {
	Severity string
	Code     string
	Subject  string
	Message  string
}
