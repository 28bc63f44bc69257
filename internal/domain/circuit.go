package domain

// Phase is the voltage class of a circuit.
type Phase string

// Phase constants
const (
	PhaseSingle Phase = "single" // phase-to-neutral voltage
	PhaseThree  Phase = "three"  // line-to-line voltage
)

// Material is the conductor material.
type Material string

// Material constants
const (
	MaterialCopper    Material = "copper"
	MaterialAluminium Material = "aluminium"
)

// Geometry distinguishes single-core from multi-core cables.
type Geometry string

// Geometry constants
const (
	GeometrySingleCore Geometry = "single-core"
	GeometryMultiCore  Geometry = "multi-core"
)

// FloorCategory is the operator-assigned building height category used by
// the elevator simultaneity tables.
type FloorCategory string

// FloorCategory constants
const (
	FloorCategoryLow  FloorCategory = "low"  // up to 12 floors
	FloorCategoryHigh FloorCategory = "high" // above 12 floors
)

// CircuitRecord is one circuit of a distribution board as supplied by the
// model reader. Computed fields live in SizingResult; the record itself is
// only mutated to fill DesignKW/PowerFactor of derived and feeder circuits.
// Corresponds to circuits table in PostgreSQL.
type CircuitRecord struct {
	CircuitID string // PRIMARY KEY within a project
	ProjectID string // owning project / board set

	// Load
	InstalledKW  float64 // Py, installed power
	DesignKW     float64 // Pp, design power (0 = derive from InstalledKW * DemandFactor)
	DemandFactor float64 // per-circuit Kc (0 = 1.0)
	PowerFactor  float64 // cos(phi)
	Consumers    int     // number of consumers fed (0 = 1)

	// Electrical geometry
	Phase            Phase
	LengthM          float64  // route length in metres
	Runs             int      // parallel runs (0 = 1)
	ConductorsPerRun int      // single-core cables per run (0 = 1)
	Cores            int      // cores per cable; 1 = single-core geometry
	Material         Material // copper | aluminium
	CableBrand       string   // product mark used by the manufacturer overlay

	// Operator choices (0 = none)
	RequestedSectionMM2 float64
	RequestedBreakerA   float64
	PEConductors        int // separate PE conductors requested (0 = none)

	// Classification
	GroupKey       string // shared enclosure / tray identity
	Classification string // load-classification tag (raw, resolved through the taxonomy)

	// Elevator circuits
	LiftGroup     string        // elevator group identifier
	FloorCategory FloorCategory // low | high

	// Feeder takes its design load and power factor from the formula result.
	Feeder bool
}

// Geometry returns the cable geometry implied by the core count.
func (c *CircuitRecord) Geometry() Geometry {
	if c.Cores == 1 {
		return GeometrySingleCore
	}
	return GeometryMultiCore
}

// RunCount returns the number of parallel runs, at least 1.
func (c *CircuitRecord) RunCount() int {
	if c.Runs < 1 {
		return 1
	}
	return c.Runs
}

// ConsumerCount returns the number of consumers fed, at least 1.
func (c *CircuitRecord) ConsumerCount() int {
	if c.Consumers < 1 {
		return 1
	}
	return c.Consumers
}

// EffectiveDesignKW returns Pp, deriving it from Py and Kc when not set.
func (c *CircuitRecord) EffectiveDesignKW() float64 {
	if c.DesignKW > 0 {
		return c.DesignKW
	}
	kc := c.DemandFactor
	if kc <= 0 {
		kc = 1
	}
	return c.InstalledKW * kc
}
