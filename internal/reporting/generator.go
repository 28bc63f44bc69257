package reporting

import (
	"context"
	"fmt"
	"time"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
)

// Generator produces presentation reports from sizing runs.
type Generator struct {
	runs storage.ResultWriter
	now  func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. runs may be nil when the
// generator only renders in-memory runs.
func NewGenerator(runs storage.ResultWriter) *Generator {
	return &Generator{
		runs: runs,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads a stored run and builds its report.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	if g.runs == nil {
		return nil, fmt.Errorf("generate report %s: no run store", runID)
	}
	run, err := g.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return g.Build(run), nil
}

// Build converts a run into its presentation form.
func (g *Generator) Build(run *domain.Report) *Report {
	s := run.Summary
	r := &Report{
		RunID:       run.RunID,
		ProjectID:   run.ProjectID,
		GeneratedAt: run.GeneratedAt,
		RenderedAt:  g.now(),
		Summary: SummarySection{
			Formula:      s.Formula,
			InstalledKW:  kw(s.InstalledKW),
			DesignKW:     kw(s.DesignKW),
			PowerFactor:  factor(s.PowerFactor),
			CurrentA:     amps(s.CurrentA),
			ApparentKVA:  kw(s.ApparentKVA),
			Circuits:     s.CircuitCount,
			Sized:        s.Sized,
			Partial:      s.Partial,
			Unresolvable: s.Unresolvable,
		},
		UnmatchedBrands: append([]string(nil), run.UnmatchedBrands...),
	}

	r.AllChecksPassed = len(run.Checks) > 0
	for _, c := range run.Checks {
		r.Checks = append(r.Checks, CheckRow(c))
		if !c.Pass {
			r.AllChecksPassed = false
		}
	}

	for _, a := range run.Aggregates {
		basis := string(a.Basis)
		if a.Wildcard != "" {
			basis += " (" + a.Wildcard + ")"
		}
		r.Aggregates = append(r.Aggregates, AggregateRow{
			Name:         a.Name,
			Basis:        basis,
			InstalledKW:  kw(a.InstalledKW),
			DesignKW:     kw(a.DesignKW),
			ReactiveKVar: kw(a.ReactiveKVar),
			Consumers:    a.Consumers,
			Circuits:     a.Circuits,
		})
	}
	for _, f := range run.Factors {
		r.Factors = append(r.Factors, FactorRow{Name: f.Name, Value: factor(f.Value)})
	}
	for _, rr := range run.Risers {
		r.Risers = append(r.Risers, RiserRow{
			RiserID:     rr.RiserID,
			Apartments:  rr.Apartments,
			InstalledKW: kw(rr.InstalledKW),
			DesignKW:    kw(rr.DesignKW),
			Failed:      rr.Failed,
		})
	}
	for _, e := range run.Elevators {
		r.Elevators = append(r.Elevators, ElevatorRow{
			Category:    string(e.Category),
			Lifts:       e.Lifts,
			InstalledKW: kw(e.InstalledKW),
			Factor:      factor(e.Factor),
			DesignKW:    kw(e.DesignKW),
		})
	}

	for _, res := range run.Results {
		r.Results = append(r.Results, ResultRow{
			CircuitID:            res.CircuitID,
			State:                string(res.State),
			DesignKW:             kw(res.DesignKW),
			PowerFactor:          factor(res.PowerFactor),
			CurrentA:             amps(res.CurrentA),
			BreakerA:             section(res.BreakerA),
			TripCurrentA:         amps(res.TripCurrentA),
			SectionMM2:           section(res.SectionMM2),
			PESectionMM2:         section(res.PESectionMM2),
			CableMark:            res.CableMark,
			ConduitHint:          res.ConduitHint,
			VoltageDropPct:       pct(res.VoltageDropPct),
			RequestedDropPct:     optionalPct(res.RequestedVoltageDropPct),
			BreakerOverestimated: res.BreakerOverestimated,
			SectionOverestimated: res.SectionOverestimated,
			VoltageDropDriven:    res.VoltageDropDriven,
		})
	}

	for _, d := range run.Diagnostics {
		r.Diagnostics = append(r.Diagnostics, DiagnosticRow{
			Severity: string(d.Severity),
			Code:     d.Code,
			Subject:  d.Subject,
			Message:  d.Message,
		})
	}
	return r
}
