package residential

import (
	"fmt"

	"distribution-sizer/internal/demand"
	"distribution-sizer/internal/domain"
)

// Policy selects how apartment tiers of one riser are looked up.
type Policy string

// Policy constants
const (
	PolicyPerTier Policy = "per-tier" // one table lookup per power tier
	PolicyMerged  Policy = "merged"   // one lookup with the apartment count of all tiers
)

// DefaultReferenceKW is the apartment power of the specific-demand table.
const DefaultReferenceKW = 10.0

// ApartmentCalculator computes riser demand loads.
type ApartmentCalculator struct {
	Specific    *domain.DemandTable // kW per apartment for reference apartments
	Comfort     *domain.DemandTable // simultaneity factor for other apartments
	ReferenceKW float64
	Regional    float64 // regional correction coefficient
	Policy      Policy
}

// Validate checks the calculator settings.
func (c *ApartmentCalculator) Validate() error {
	switch {
	case c.Specific == nil || c.Comfort == nil:
		return &domain.ConfigurationError{Table: "apartments", Err: fmt.Errorf("apartment tables not set")}
	case c.ReferenceKW <= 0:
		return &domain.ConfigurationError{Table: "apartments", Err: fmt.Errorf("reference power %g must be positive", c.ReferenceKW)}
	case c.Regional <= 0:
		return &domain.ConfigurationError{Table: "apartments", Err: fmt.Errorf("regional coefficient %g must be positive", c.Regional)}
	}
	switch c.Policy {
	case PolicyPerTier, PolicyMerged:
		return nil
	}
	return &domain.ConfigurationError{Table: "apartments", Err: fmt.Errorf("unknown policy %q", c.Policy)}
}

// Calculate computes every riser. Invalid risers are reported in their own
// result and excluded; a malformed table aborts with ConfigurationError.
func (c *ApartmentCalculator) Calculate(risers []*domain.Riser) ([]domain.RiserResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	results := make([]domain.RiserResult, 0, len(risers))
	for _, r := range risers {
		res := domain.RiserResult{RiserID: r.RiserID}

		tiers, err := populatedTiers(r)
		if err != nil {
			res.Failed = true
			res.Diagnostics = append(res.Diagnostics, domain.Failure(r.RiserID, err))
			results = append(results, res)
			continue
		}

		var load float64
		if c.Policy == PolicyMerged {
			load, err = c.merged(tiers)
		} else {
			load, err = c.perTier(tiers)
		}
		if err != nil {
			return nil, fmt.Errorf("riser %s: %w", r.RiserID, err)
		}

		for _, t := range tiers {
			res.Apartments += t.Count
			res.InstalledKW += t.PowerKW * float64(t.Count)
		}
		res.DesignKW = load * c.Regional
		results = append(results, res)
	}
	return results, nil
}

func (c *ApartmentCalculator) perTier(tiers []domain.ApartmentTier) (float64, error) {
	var total float64
	for _, t := range tiers {
		n := float64(t.Count)
		if c.isReference(t) {
			specific, err := demand.Resolve(c.Specific, n)
			if err != nil {
				return 0, err
			}
			total += specific * n
			continue
		}
		ko, err := demand.Resolve(c.Comfort, n)
		if err != nil {
			return 0, err
		}
		total += ko * t.PowerKW * n
	}
	return total, nil
}

func (c *ApartmentCalculator) merged(tiers []domain.ApartmentTier) (float64, error) {
	var count int
	for _, t := range tiers {
		count += t.Count
	}
	n := float64(count)

	var refCount int
	var comfortKW float64
	for _, t := range tiers {
		if c.isReference(t) {
			refCount += t.Count
		} else {
			comfortKW += t.PowerKW * float64(t.Count)
		}
	}

	var total float64
	if refCount > 0 {
		specific, err := demand.Resolve(c.Specific, n)
		if err != nil {
			return 0, err
		}
		total += specific * float64(refCount)
	}
	if comfortKW > 0 {
		ko, err := demand.Resolve(c.Comfort, n)
		if err != nil {
			return 0, err
		}
		total += ko * comfortKW
	}
	return total, nil
}

func (c *ApartmentCalculator) isReference(t domain.ApartmentTier) bool {
	return t.PowerKW == c.ReferenceKW
}

// populatedTiers drops empty tiers and rejects inconsistent ones.
func populatedTiers(r *domain.Riser) ([]domain.ApartmentTier, error) {
	var out []domain.ApartmentTier
	seen := make(map[float64]bool)
	for _, t := range r.Tiers {
		switch {
		case t.PowerKW < 0 || t.Count < 0:
			return nil, &domain.InvalidRiserDataError{RiserID: r.RiserID, Reason: fmt.Sprintf("negative tier %g kW x %d", t.PowerKW, t.Count)}
		case t.PowerKW == 0 && t.Count == 0:
			continue
		case t.PowerKW > 0 && t.Count == 0:
			return nil, &domain.InvalidRiserDataError{RiserID: r.RiserID, Reason: fmt.Sprintf("%g kW tier has no apartments", t.PowerKW)}
		case t.PowerKW == 0:
			return nil, &domain.InvalidRiserDataError{RiserID: r.RiserID, Reason: fmt.Sprintf("%d apartments without power", t.Count)}
		case seen[t.PowerKW]:
			return nil, &domain.InvalidRiserDataError{RiserID: r.RiserID, Reason: fmt.Sprintf("apartment power %g kW appears twice", t.PowerKW)}
		}
		seen[t.PowerKW] = true
		out = append(out, t)
	}
	return out, nil
}

// TotalDesignKW sums the design load of the risers that were calculated.
func TotalDesignKW(results []domain.RiserResult) (installed, design float64) {
	for _, r := range results {
		if r.Failed {
			continue
		}
		installed += r.InstalledKW
		design += r.DesignKW
	}
	return installed, design
}
