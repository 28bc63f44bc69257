package domain

import "time"

// Batch is one engine input: the circuit records and risers of a project.
type Batch struct {
	ProjectID string
	Circuits  []*CircuitRecord
	Risers    []*Riser
}

// Summary is the top-level aggregate handed to the model writer.
type Summary struct {
	Formula      string
	InstalledKW  float64 // total Py
	DesignKW     float64 // formula result
	PowerFactor  float64 // aggregate cos(phi)
	CurrentA     float64 // three-phase current of DesignKW
	ApparentKVA  float64 // DesignKW / cos(phi)
	CircuitCount int
	Sized        int
	Partial      int
	Unresolvable int
}

// Check is a pass/fail criterion evaluated over the run.
type Check struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// Report is the structured result of one engine run.
// Corresponds to sizing_runs table in PostgreSQL.
type Report struct {
	RunID       string
	ProjectID   string
	GeneratedAt time.Time

	Summary    Summary
	Aggregates []PowerAggregate // sorted by name
	Factors    []NamedValue     // resolved demand factors, sorted by name
	Risers     []RiserResult
	Elevators  []ElevatorResult
	Results    []SizingResult // in input order

	UnmatchedBrands []string
	Checks          []Check
	Diagnostics     []Diagnostic
}

// ResultByCircuit returns the result for circuitID, or nil.
func (r *Report) ResultByCircuit(circuitID string) *SizingResult {
	for i := range r.Results {
		if r.Results[i].CircuitID == circuitID {
			return &r.Results[i]
		}
	}
	return nil
}

// ArchivedResult is one sizing result as kept in the run archive.
// Corresponds to sizing_result_history table in ClickHouse.
type ArchivedResult struct {
	RunID       string
	ProjectID   string
	GeneratedAt int64 // Unix timestamp in milliseconds
	Result      SizingResult
}
