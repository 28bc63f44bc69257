package sizing

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"distribution-sizer/internal/classify"
	"distribution-sizer/internal/demand"
	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/lookup"
	"distribution-sizer/internal/tables"
)

// Options configures the sizing pipeline.
type Options struct {
	LineVoltageV      float64 // three-phase line voltage
	PhaseVoltageV     float64 // single-phase voltage
	CheckVoltageDrop  bool    // upsize sections whose drop exceeds MaxVoltageDropPct
	MaxVoltageDropPct float64
}

// DefaultOptions returns 400/230 V with a 4% drop limit.
func DefaultOptions() Options {
	return Options{
		LineVoltageV:      400,
		PhaseVoltageV:     230,
		CheckVoltageDrop:  true,
		MaxVoltageDropPct: 4,
	}
}

// GroupFactors are the joint-installation factors of one grouping key.
type GroupFactors struct {
	Breaker float64
	Cable   float64
}

// Sizer runs the protective device and conductor sizing pipeline.
type Sizer struct {
	set      *tables.Set
	overlay  *tables.Overlay
	taxonomy *classify.Taxonomy
	opts     Options
	logger   *zap.Logger
}

// New creates a sizer. A nil overlay sizes every circuit on the default
// tables; a nil logger discards output.
func New(set *tables.Set, overlay *tables.Overlay, taxonomy *classify.Taxonomy, opts Options, logger *zap.Logger) (*Sizer, error) {
	if opts.LineVoltageV <= 0 || opts.PhaseVoltageV <= 0 {
		return nil, &domain.ConfigurationError{Err: fmt.Errorf("voltages must be positive: %g/%g V", opts.LineVoltageV, opts.PhaseVoltageV)}
	}
	if opts.CheckVoltageDrop && opts.MaxVoltageDropPct <= 0 {
		return nil, &domain.ConfigurationError{Err: fmt.Errorf("voltage drop limit %g%% must be positive", opts.MaxVoltageDropPct)}
	}
	if overlay == nil {
		var err error
		if overlay, err = tables.NewOverlay(set, ""); err != nil {
			return nil, err
		}
	}
	if taxonomy == nil {
		taxonomy = classify.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sizer{
		set:      set,
		overlay:  overlay,
		taxonomy: taxonomy,
		opts:     opts,
		logger:   logger.Named("sizing"),
	}, nil
}

// CheckRequests rejects requested sections and ratings outside the standard
// series. It runs before any circuit is sized.
func (s *Sizer) CheckRequests(circuits []*domain.CircuitRecord) error {
	var errs []error
	for _, c := range circuits {
		if c.RequestedSectionMM2 > 0 {
			if _, err := lookup.IndexOf(c.RequestedSectionMM2, s.set.Series.SectionsMM2); err != nil {
				errs = append(errs, &domain.UnknownSectionError{CircuitID: c.CircuitID, SectionMM2: c.RequestedSectionMM2})
			}
		}
		if c.RequestedBreakerA > 0 {
			if _, err := lookup.IndexOf(c.RequestedBreakerA, s.set.Series.RatingsA); err != nil {
				errs = append(errs, &domain.UnknownRatingError{CircuitID: c.CircuitID, RatingA: c.RequestedBreakerA})
			}
		}
	}
	return errors.Join(errs...)
}

// GroupFactors resolves breaker and cable grouping factors per grouping key.
// Breakers count circuits; cables count parallel runs.
func (s *Sizer) GroupFactors(circuits []*domain.CircuitRecord) (map[string]GroupFactors, error) {
	breakers := make(map[string]int)
	cables := make(map[string]int)
	for _, c := range circuits {
		if c.GroupKey == "" {
			continue
		}
		breakers[c.GroupKey]++
		cables[c.GroupKey] += c.RunCount()
	}

	out := make(map[string]GroupFactors, len(breakers))
	for key, n := range breakers {
		kb, err := demand.Resolve(&s.set.Grouping.Breaker, float64(n))
		if err != nil {
			return nil, fmt.Errorf("breaker grouping %s: %w", key, err)
		}
		kc, err := demand.Resolve(&s.set.Grouping.Cable, float64(cables[key]))
		if err != nil {
			return nil, fmt.Errorf("cable grouping %s: %w", key, err)
		}
		out[key] = GroupFactors{Breaker: kb, Cable: kc}
	}
	return out, nil
}

// SizeAll sizes every circuit. One circuit's failure never stops the batch;
// only malformed configuration returns an error.
func (s *Sizer) SizeAll(circuits []*domain.CircuitRecord) ([]domain.SizingResult, error) {
	groups, err := s.GroupFactors(circuits)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SizingResult, 0, len(circuits))
	for _, c := range circuits {
		g, ok := groups[c.GroupKey]
		if !ok {
			g = GroupFactors{Breaker: 1, Cable: 1}
		}
		res, err := s.Size(c, g)
		if err != nil {
			return nil, fmt.Errorf("size circuit %s: %w", c.CircuitID, err)
		}
		if res.State == domain.StateUnresolvable {
			s.logger.Warn("circuit unresolvable",
				zap.String("circuit_id", c.CircuitID),
				zap.Float64("current_a", res.CurrentA),
				zap.String("reason", res.Diagnostics[len(res.Diagnostics)-1].Message))
		}
		results = append(results, res)
	}
	return results, nil
}

// Size runs the pipeline for one circuit. The returned error is reserved for
// configuration problems; sizing failures are reported in the result state.
func (s *Sizer) Size(c *domain.CircuitRecord, g GroupFactors) (domain.SizingResult, error) {
	if g.Cable <= 0 {
		g.Cable = 1
	}
	res := domain.SizingResult{
		CircuitID:          c.CircuitID,
		State:              domain.StateSized,
		DesignKW:           c.EffectiveDesignKW(),
		PowerFactor:        c.PowerFactor,
		BreakerGroupFactor: 1,
		CableGroupFactor:   g.Cable,
	}
	if res.PowerFactor <= 0 || res.PowerFactor > 1 {
		res.PowerFactor = 1
	}
	if err := checkCircuit(c); err != nil {
		return s.unresolvable(res, err), nil
	}
	runs := c.RunCount()

	// Current
	res.CurrentA = DesignCurrent(res.DesignKW, res.PowerFactor, c.Phase, s.opts.LineVoltageV, s.opts.PhaseVoltageV)

	// Breaker rating
	ratings := s.set.Series.RatingsA
	ri, err := lookup.AtOrAbove(res.CurrentA, ratings)
	if err != nil {
		return s.unresolvable(res, &domain.RatingRangeExceeded{
			CircuitID:  c.CircuitID,
			CurrentA:   res.CurrentA,
			MaxRatingA: ratings[len(ratings)-1],
		}), nil
	}
	res.BreakerA = ratings[ri]
	if c.RequestedBreakerA > 0 {
		switch {
		case c.RequestedBreakerA > res.BreakerA:
			res.BreakerOverestimated = true
		case c.RequestedBreakerA < res.BreakerA:
			res.Diagnostics = append(res.Diagnostics, undersized(c.CircuitID,
				fmt.Sprintf("requested breaker %g A is below the minimum %g A", c.RequestedBreakerA, res.BreakerA)))
		}
	}

	// Tripping current
	if res.BreakerA <= s.set.Grouping.BreakerLimitA && g.Breaker > 0 {
		res.BreakerGroupFactor = g.Breaker
	}
	res.TripCurrentA = res.BreakerA / res.BreakerGroupFactor

	// Cable section by ampacity
	table, err := s.overlay.TableFor(c)
	if err != nil {
		return res, err
	}
	si := -1
	for i, a := range table.AmpsA {
		if a > 0 && a*float64(runs) >= res.TripCurrentA {
			si = i
			break
		}
	}
	if si < 0 {
		return s.unresolvable(res, &domain.SectionRangeExceeded{
			CircuitID:    c.CircuitID,
			RequiredA:    res.TripCurrentA,
			MaxAmpacityA: table.MaxAmpacity() * float64(runs),
		}), nil
	}

	// Joint-installation derating
	derated := func(i int) float64 { return table.AmpsA[i] * g.Cable * float64(runs) }
	if next, ok := upsize(table, si, func(i int) bool { return derated(i) >= res.TripCurrentA }); ok {
		si = next
	} else {
		res.State = domain.StatePartial
		res.Diagnostics = append(res.Diagnostics, domain.Warning(c.CircuitID, &domain.UpsizeExhausted{
			CircuitID: c.CircuitID, Stage: "derating", SectionMM2: table.SectionsMM2[si],
		}))
	}
	res.AmpacitySectionMM2 = table.SectionsMM2[si]

	// Voltage drop
	coef, err := s.set.DropCoefficient(c.Material, c.Phase)
	if err != nil {
		return res, err
	}
	distributed := s.taxonomy.Distributed(c.Classification)
	drop := func(section float64) float64 {
		d := VoltageDropPct(res.DesignKW, c.LengthM, coef, section, runs)
		if distributed {
			d /= 2
		}
		return d
	}

	dropExhausted := false
	if s.opts.CheckVoltageDrop && drop(table.SectionsMM2[si]) > s.opts.MaxVoltageDropPct {
		if next, ok := upsize(table, si, func(i int) bool { return drop(table.SectionsMM2[i]) <= s.opts.MaxVoltageDropPct }); ok {
			si = next
			res.VoltageDropDriven = true
		} else {
			dropExhausted = true
			res.State = domain.StatePartial
			res.Diagnostics = append(res.Diagnostics, domain.Warning(c.CircuitID, &domain.UpsizeExhausted{
				CircuitID: c.CircuitID, Stage: "voltage-drop", SectionMM2: table.SectionsMM2[si],
			}))
		}
	}
	res.SectionMM2 = table.SectionsMM2[si]
	res.AmpacityA = derated(si)
	res.VoltageDropPct = drop(res.SectionMM2)

	// Operator section
	if req := c.RequestedSectionMM2; req > 0 {
		res.RequestedVoltageDropPct = drop(req)
		switch {
		case req > res.SectionMM2 && !dropExhausted:
			res.SectionOverestimated = true
		case req < res.SectionMM2:
			res.Diagnostics = append(res.Diagnostics, undersized(c.CircuitID,
				fmt.Sprintf("requested section %g mm2 is below the minimum %g mm2", req, res.SectionMM2)))
		}
	}

	// PE, designation, conduit
	if c.PEConductors > 0 {
		pe, err := PESection(res.SectionMM2, c.PEConductors, s.set.Series.SectionsMM2)
		if err != nil {
			return res, &domain.ConfigurationError{Table: "series.sections_mm2", Err: err}
		}
		res.PESectionMM2 = pe
	}
	res.CableMark = CableMark(c, res.SectionMM2)
	res.ConduitHint = s.set.ConduitHint(res.SectionMM2)

	return res, nil
}

// upsize returns the first manufactured section from start on that satisfies
// ok. The loop is bounded by the table length.
func upsize(table tables.CableTable, start int, ok func(i int) bool) (int, bool) {
	for i := start; i < table.Len(); i++ {
		if table.AmpsA[i] <= 0 {
			continue
		}
		if ok(i) {
			return i, true
		}
	}
	return start, false
}

// checkCircuit rejects phase and material values no table is keyed by.
func checkCircuit(c *domain.CircuitRecord) error {
	switch c.Phase {
	case domain.PhaseSingle, domain.PhaseThree:
	default:
		return &domain.InvalidCircuitError{CircuitID: c.CircuitID, Field: "phase", Value: string(c.Phase)}
	}
	switch c.Material {
	case domain.MaterialCopper, domain.MaterialAluminium:
	default:
		return &domain.InvalidCircuitError{CircuitID: c.CircuitID, Field: "material", Value: string(c.Material)}
	}
	return nil
}

func (s *Sizer) unresolvable(res domain.SizingResult, err error) domain.SizingResult {
	res.State = domain.StateUnresolvable
	res.Diagnostics = append(res.Diagnostics, domain.Failure(res.CircuitID, err))
	return res
}

func undersized(circuitID, msg string) domain.Diagnostic {
	return domain.Diagnostic{
		Code:     domain.CodeUndersizedRequest,
		Severity: domain.SeverityWarning,
		Subject:  circuitID,
		Message:  msg,
	}
}
