package domain

// SizingState is the terminal state of a circuit in the sizing pipeline.
type SizingState string

// SizingState constants
const (
	StateSized        SizingState = "SIZED"
	StatePartial      SizingState = "PARTIAL"      // sized, but an upsizing loop ran out of table
	StateUnresolvable SizingState = "UNRESOLVABLE" // no standard rating or section fits
)

// SizingResult is the per-circuit output of the sizing pipeline.
// Corresponds to sizing_results table in PostgreSQL and ClickHouse.
type SizingResult struct {
	CircuitID string
	State     SizingState

	// Current
	DesignKW    float64 // Pp used for sizing
	PowerFactor float64 // cos(phi) used for sizing
	CurrentA    float64 // design current I

	// Protective device
	BreakerA     float64 // selected standard rating (0 when unresolvable)
	TripCurrentA float64 // rating divided by the breaker grouping factor

	// Conductor
	AmpacitySectionMM2 float64 // minimum section from ampacity and derating only
	SectionMM2         float64 // final section after voltage-drop upsizing
	PESectionMM2       float64 // separate PE section (0 = none)
	CableMark          string  // e.g. 2x(5x16)
	ConduitHint        string  // conduit diameter hint, empty for tray-mounted sections
	AmpacityA          float64 // derated, run-multiplied ampacity of SectionMM2

	// Voltage drop
	VoltageDropPct          float64
	RequestedVoltageDropPct float64 // drop on the requested section (0 = no request)
	VoltageDropDriven       bool    // section was upsized by the voltage-drop loop

	// Overestimation of operator choices
	BreakerOverestimated bool
	SectionOverestimated bool

	// Grouping
	BreakerGroupFactor float64
	CableGroupFactor   float64

	Diagnostics []Diagnostic
}

// Resolved reports whether the circuit reached a usable section and rating.
func (r *SizingResult) Resolved() bool {
	return r.State == StateSized || r.State == StatePartial
}
