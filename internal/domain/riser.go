package domain

// ApartmentTier is one (apartment power, apartment count) pair of a riser.
type ApartmentTier struct {
	PowerKW float64 `yaml:"power_kw"`
	Count   int     `yaml:"count"`
}

// Riser is a residential riser with its apartment tiers.
type Riser struct {
	RiserID string          `yaml:"riser_id"`
	Tiers   []ApartmentTier `yaml:"tiers"`
}

// RiserResult is the demand load computed for one riser.
type RiserResult struct {
	RiserID     string
	Apartments  int
	InstalledKW float64 // sum of tier power * count
	DesignKW    float64 // after demand tables and the regional coefficient
	Failed      bool    // riser data rejected, DesignKW is 0
	Diagnostics []Diagnostic
}

// ElevatorResult is the demand load of one floor-height category.
type ElevatorResult struct {
	Category    FloorCategory
	Lifts       int
	InstalledKW float64
	Factor      float64
	DesignKW    float64
}
