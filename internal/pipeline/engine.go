package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"distribution-sizer/internal/aggregate"
	"distribution-sizer/internal/classify"
	"distribution-sizer/internal/demand"
	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/formula"
	"distribution-sizer/internal/idhash"
	"distribution-sizer/internal/residential"
	"distribution-sizer/internal/sizing"
	"distribution-sizer/internal/tables"
)

// ApartmentOptions configures the riser calculator and the aggregate it feeds.
type ApartmentOptions struct {
	Aggregate     string             `koanf:"aggregate"`
	Policy        residential.Policy `koanf:"policy"`
	Regional      float64            `koanf:"regional"`
	ReferenceKW   float64            `koanf:"reference_kw"`
	PowerFactor   float64            `koanf:"power_factor"`
	SpecificTable string             `koanf:"specific_table"`
	ComfortTable  string             `koanf:"comfort_table"`
}

// ElevatorOptions configures the elevator calculator and the aggregate it feeds.
type ElevatorOptions struct {
	Aggregate string `koanf:"aggregate"`
	LowTable  string `koanf:"low_table"`
	HighTable string `koanf:"high_table"`
}

// Options configures one engine.
type Options struct {
	Aggregates []aggregate.Def
	Factors    []demand.FactorDef

	// Formula is the top-level load expression. FormulaTokens, when set,
	// replaces it with an operator-supplied token list.
	Formula       string
	FormulaTokens []string
	// Optional names may be absent or zero; their terms are elided.
	Optional []string

	ProductLine string
	Sizing      sizing.Options
	Apartments  ApartmentOptions
	Elevators   ElevatorOptions
}

// DefaultOptions returns the aggregates, factors and formula matching the
// built-in taxonomy and tables.
func DefaultOptions() Options {
	return Options{
		Aggregates: []aggregate.Def{
			{Name: "P_total", Wildcard: domain.WildcardAll},
			{Name: "P_lighting", Tags: []string{"lighting"}},
			{Name: "P_equipment", Tags: []string{"ventilation", "pumps", "cooling"}},
			{Name: "cooling", Tags: []string{"cooling"}},
			{Name: "lifts", Tags: []string{"elevators"}},
			{Name: "P_other", Wildcard: domain.WildcardOther, Basis: domain.BasisDesign},
		},
		Factors: []demand.FactorDef{
			{Name: "ke_lighting", Table: "lighting", Aggregate: "P_lighting"},
			{Name: "ko_equipment", Table: "power_equipment", Aggregate: "P_equipment"},
		},
		Formula:  "P_apartments + 0.9 * (P_lighting * ke_lighting + P_equipment * ko_equipment + P_lifts + P_other)",
		Optional: []string{"P_apartments", "P_lifts", "P_other", "P_lighting", "P_equipment"},
		Sizing:   sizing.DefaultOptions(),
		Apartments: ApartmentOptions{
			Aggregate:     "P_apartments",
			Policy:        residential.PolicyPerTier,
			Regional:      1,
			ReferenceKW:   residential.DefaultReferenceKW,
			PowerFactor:   0.98,
			SpecificTable: "apartments_specific",
			ComfortTable:  "apartments_high_comfort",
		},
		Elevators: ElevatorOptions{
			Aggregate: "P_lifts",
			LowTable:  "elevators_low",
			HighTable: "elevators_high",
		},
	}
}

// Engine runs one batch through aggregation, demand resolution, the formula
// and the sizing pipeline. Tables and options are read-only after NewEngine.
type Engine struct {
	set        *tables.Set
	taxonomy   *classify.Taxonomy
	opts       Options
	resolver   *demand.Resolver
	apartments *residential.ApartmentCalculator
	elevators  *residential.ElevatorCalculator
	logger     *zap.Logger
	clock      func() time.Time
}

// NewEngine validates the configuration and creates an engine. Every
// configuration problem is reported before any circuit is processed.
func NewEngine(set *tables.Set, tax *classify.Taxonomy, opts Options, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tax == nil {
		tax = classify.Default()
	}
	logger = logger.Named("engine")

	e := &Engine{
		set:      set,
		taxonomy: tax,
		opts:     opts,
		resolver: demand.NewResolver(set),
		logger:   logger,
		clock:    func() time.Time { return time.Now().UTC() },
	}
	if err := e.configure(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return nil, err
	}
	return e, nil
}

// WithClock sets a custom clock function for deterministic output.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

func (e *Engine) configure() error {
	var errs []error
	if err := aggregate.Validate(e.opts.Aggregates); err != nil {
		errs = append(errs, err)
	}
	for _, f := range e.opts.Factors {
		if _, err := e.set.DemandTable(f.Table); err != nil {
			errs = append(errs, fmt.Errorf("factor %s: %w", f.Name, err))
		}
	}
	if strings.TrimSpace(e.opts.Formula) == "" && len(e.opts.FormulaTokens) == 0 {
		errs = append(errs, &domain.ConfigurationError{Table: "formula", Err: errors.New("empty formula")})
	}
	if _, err := formula.Names(e.formulaSource()); err != nil {
		errs = append(errs, &domain.ConfigurationError{Table: "formula", Err: err})
	}

	ap := e.opts.Apartments
	specific, err1 := e.set.DemandTable(ap.SpecificTable)
	comfort, err2 := e.set.DemandTable(ap.ComfortTable)
	if err := errors.Join(err1, err2); err != nil {
		errs = append(errs, err)
	} else {
		e.apartments = &residential.ApartmentCalculator{
			Specific:    specific,
			Comfort:     comfort,
			ReferenceKW: ap.ReferenceKW,
			Regional:    ap.Regional,
			Policy:      ap.Policy,
		}
		if err := e.apartments.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if ap.Aggregate == "" {
		errs = append(errs, &domain.ConfigurationError{Table: "apartments", Err: errors.New("aggregate name not set")})
	}

	el := e.opts.Elevators
	low, err1 := e.set.DemandTable(el.LowTable)
	high, err2 := e.set.DemandTable(el.HighTable)
	if err := errors.Join(err1, err2); err != nil {
		errs = append(errs, err)
	} else {
		e.elevators = &residential.ElevatorCalculator{Low: low, High: high}
	}
	if el.Aggregate == "" {
		errs = append(errs, &domain.ConfigurationError{Table: "elevators", Err: errors.New("aggregate name not set")})
	}

	if _, err := tables.NewOverlay(e.set, e.opts.ProductLine); err != nil {
		errs = append(errs, err)
	}
	if _, err := sizing.New(e.set, nil, e.taxonomy, e.opts.Sizing, nil); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Engine) formulaSource() string {
	if len(e.opts.FormulaTokens) > 0 {
		return strings.Join(e.opts.FormulaTokens, " ")
	}
	return e.opts.Formula
}

// Run processes one batch. The returned error is reserved for fatal
// conditions: malformed configuration, requested values outside the
// standard series and aggregates the formula needs but cannot get. Every
// other problem is reported as a diagnostic of the run.
func (e *Engine) Run(batch *domain.Batch) (*domain.Report, error) {
	generatedAt := e.clock()
	logger := e.logger.With(zap.String("project_id", batch.ProjectID))
	logger.Info("run started",
		zap.Int("circuits", len(batch.Circuits)),
		zap.Int("risers", len(batch.Risers)))

	report := &domain.Report{
		ProjectID:   batch.ProjectID,
		GeneratedAt: generatedAt,
	}

	// Per-run overlay and sizer; the shared table set is never touched.
	overlay, err := tables.NewOverlay(e.set, e.opts.ProductLine)
	if err != nil {
		return nil, err
	}
	sizer, err := sizing.New(e.set, overlay, e.taxonomy, e.opts.Sizing, logger)
	if err != nil {
		return nil, err
	}
	if err := sizer.CheckRequests(batch.Circuits); err != nil {
		logger.Error("requested values outside the standard series", zap.Error(err))
		return nil, err
	}

	// Aggregates
	aggs, err := aggregate.Aggregate(batch.Circuits, e.opts.Aggregates, e.taxonomy)
	if err != nil {
		return nil, err
	}
	if w := aggs.Warning(); w != nil {
		report.Diagnostics = append(report.Diagnostics, domain.Warning("aggregates", w))
	}

	// Residential loads
	risers, err := e.apartments.Calculate(batch.Risers)
	if err != nil {
		return nil, err
	}
	report.Risers = risers
	for _, r := range risers {
		report.Diagnostics = append(report.Diagnostics, r.Diagnostics...)
	}
	aggs.Put(e.apartmentAggregate(risers))

	lifts := e.elevatorCircuits(batch.Circuits)
	elevators, diags, err := e.elevators.Calculate(lifts)
	if err != nil {
		return nil, err
	}
	report.Elevators = elevators
	report.Diagnostics = append(report.Diagnostics, diags...)
	aggs.Put(e.elevatorAggregate(elevators, lifts))

	// Demand factors
	factors, diags, err := e.resolver.ResolveAll(e.opts.Factors, aggs.Aggregates)
	if err != nil {
		return nil, err
	}
	report.Diagnostics = append(report.Diagnostics, diags...)
	report.Factors = demand.Sorted(factors)

	// Formula
	src := e.formulaSource()
	if err := aggs.Require(e.requiredAggregates(src)); err != nil {
		logger.Error("formula references missing aggregates", zap.Error(err))
		return nil, err
	}
	report.Aggregates = aggs.Sorted()
	report.Summary.Formula = src

	designKW, refs, formulaErr := e.evaluate(aggs, factors)
	if formulaErr != nil {
		report.Diagnostics = append(report.Diagnostics, domain.Failure("formula", formulaErr))
		logger.Warn("formula not evaluated", zap.Error(formulaErr))
	} else {
		e.summarize(report, aggs, refs, designKW)
	}
	report.Summary.InstalledKW = installedKW(batch, risers)

	// Sizing
	for _, c := range batch.Circuits {
		if c.Feeder && formulaErr == nil {
			c.DesignKW = report.Summary.DesignKW
			c.PowerFactor = report.Summary.PowerFactor
		}
	}
	results, err := sizer.SizeAll(batch.Circuits)
	if err != nil {
		return nil, err
	}
	if formulaErr != nil {
		for i, c := range batch.Circuits {
			if c.Feeder {
				results[i] = domain.SizingResult{
					CircuitID:   c.CircuitID,
					State:       domain.StateUnresolvable,
					Diagnostics: []domain.Diagnostic{domain.Failure(c.CircuitID, formulaErr)},
				}
			}
		}
	}
	report.Results = results
	for _, r := range results {
		report.Diagnostics = append(report.Diagnostics, r.Diagnostics...)
		switch r.State {
		case domain.StateSized:
			report.Summary.Sized++
		case domain.StatePartial:
			report.Summary.Partial++
		case domain.StateUnresolvable:
			report.Summary.Unresolvable++
		}
	}
	report.Summary.CircuitCount = len(results)
	report.UnmatchedBrands = overlay.Unmatched()

	dropLimit := 0.0
	if e.opts.Sizing.CheckVoltageDrop {
		dropLimit = e.opts.Sizing.MaxVoltageDropPct
	}
	report.Checks = Checks(report, len(aggs.Uncovered), formulaErr == nil, dropLimit)

	ids := make([]string, len(batch.Circuits))
	for i, c := range batch.Circuits {
		ids[i] = c.CircuitID
	}
	report.RunID = idhash.ComputeRunID(batch.ProjectID, generatedAt.UnixMilli(), ids)

	logger.Info("run finished",
		zap.String("run_id", report.RunID),
		zap.Float64("design_kw", report.Summary.DesignKW),
		zap.Int("sized", report.Summary.Sized),
		zap.Int("partial", report.Summary.Partial),
		zap.Int("unresolvable", report.Summary.Unresolvable),
		zap.Int("diagnostics", len(report.Diagnostics)))
	return report, nil
}

// requiredAggregates returns the formula names that must exist as
// aggregates: everything that is neither a factor nor optional.
func (e *Engine) requiredAggregates(src string) []string {
	names, err := formula.Names(src)
	if err != nil {
		return nil
	}
	skip := make(map[string]bool, len(e.opts.Factors)+len(e.opts.Optional))
	for _, f := range e.opts.Factors {
		skip[f.Name] = true
	}
	for _, o := range e.opts.Optional {
		skip[o] = true
	}
	var out []string
	for _, n := range names {
		if !skip[n] {
			out = append(out, n)
		}
	}
	return out
}

// evaluate compiles and evaluates the formula. It returns the aggregate
// names left in the compiled tree.
func (e *Engine) evaluate(aggs *aggregate.Result, factors map[string]float64) (float64, []string, error) {
	env := &formula.Env{
		Aggregates: aggs.Values(),
		Factors:    factors,
		Optional:   make(map[string]bool, len(e.opts.Optional)),
	}
	for _, o := range e.opts.Optional {
		env.Optional[o] = true
	}

	var (
		expr *formula.Expression
		err  error
	)
	if len(e.opts.FormulaTokens) > 0 {
		expr, err = formula.CompileList(e.opts.FormulaTokens, env)
	} else {
		expr, err = formula.Compile(e.opts.Formula, env)
	}
	if err != nil {
		return 0, nil, err
	}
	v, err := expr.Evaluate(env)
	if err != nil {
		return 0, nil, err
	}
	refs, _ := expr.Refs()
	return v, refs, nil
}

// summarize fills the top-level load. cos(phi) is taken from the active and
// reactive power of the aggregates the formula uses.
func (e *Engine) summarize(report *domain.Report, aggs *aggregate.Result, refs []string, designKW float64) {
	var p, q float64
	seen := make(map[string]bool, len(refs))
	for _, name := range refs {
		if seen[name] {
			continue
		}
		seen[name] = true
		if a, ok := aggs.Aggregates[name]; ok {
			p += a.DesignKW
			q += a.ReactiveKVar
		}
	}
	cosPhi := 1.0
	if p > 0 && q > 0 {
		cosPhi = p / math.Hypot(p, q)
	}

	s := &report.Summary
	s.DesignKW = designKW
	s.PowerFactor = cosPhi
	s.CurrentA = sizing.DesignCurrent(designKW, cosPhi, domain.PhaseThree, e.opts.Sizing.LineVoltageV, e.opts.Sizing.PhaseVoltageV)
	s.ApparentKVA = designKW / cosPhi
}

// apartmentAggregate converts riser results into the residential aggregate.
// It is always present so formulas may reference it.
func (e *Engine) apartmentAggregate(risers []domain.RiserResult) *domain.PowerAggregate {
	installed, design := residential.TotalDesignKW(risers)
	agg := &domain.PowerAggregate{
		Name:         e.opts.Apartments.Aggregate,
		Basis:        domain.BasisDesign,
		InstalledKW:  installed,
		DesignKW:     design,
		ReactiveKVar: design * aggregate.TanPhi(e.opts.Apartments.PowerFactor),
	}
	for _, r := range risers {
		if !r.Failed {
			agg.Consumers += r.Apartments
		}
	}
	return agg
}

// elevatorCircuits selects the non-feeder circuits whose tag feeds the
// elevator calculator.
func (e *Engine) elevatorCircuits(circuits []*domain.CircuitRecord) []*domain.CircuitRecord {
	var out []*domain.CircuitRecord
	for _, c := range circuits {
		if c.Feeder {
			continue
		}
		if tag, ok := e.taxonomy.Resolve(c.Classification); ok && e.taxonomy.Elevator(tag) {
			out = append(out, c)
		}
	}
	return out
}

// elevatorAggregate converts elevator results into the elevator aggregate.
// Reactive power follows the installed-power weighted tan(phi) of the lifts.
func (e *Engine) elevatorAggregate(results []domain.ElevatorResult, lifts []*domain.CircuitRecord) *domain.PowerAggregate {
	installed, design := residential.ElevatorTotals(results)
	agg := &domain.PowerAggregate{
		Name:        e.opts.Elevators.Aggregate,
		Basis:       domain.BasisDesign,
		InstalledKW: installed,
		DesignKW:    design,
		Circuits:    len(lifts),
	}
	for _, r := range results {
		agg.Consumers += r.Lifts
	}

	var py, q float64
	for _, c := range lifts {
		py += c.InstalledKW
		q += c.InstalledKW * aggregate.TanPhi(c.PowerFactor)
	}
	if py > 0 {
		agg.ReactiveKVar = design * q / py
	}
	return agg
}

// installedKW sums Py of every non-feeder circuit and every riser.
func installedKW(batch *domain.Batch, risers []domain.RiserResult) float64 {
	var total float64
	for _, c := range batch.Circuits {
		if !c.Feeder {
			total += c.InstalledKW
		}
	}
	installed, _ := residential.TotalDesignKW(risers)
	return total + installed
}
