package reporting

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
	"distribution-sizer/internal/storage/memory"
)

var (
	generatedAt = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	renderedAt  = time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC)
)

func testRun() *domain.Report {
	return &domain.Report{
		RunID:       "0123456789abcdef0123",
		ProjectID:   "tower-a",
		GeneratedAt: generatedAt,
		Summary: domain.Summary{
			Formula:      "P_lighting + P_power * ke",
			InstalledKW:  46,
			DesignKW:     28.125,
			PowerFactor:  0.91234,
			CurrentA:     44.6051,
			ApparentKVA:  30.8268,
			CircuitCount: 2,
			Sized:        1,
			Unresolvable: 1,
		},
		Aggregates: []domain.PowerAggregate{
			{Name: "P_lighting", Basis: domain.BasisDesign, InstalledKW: 6, DesignKW: 5.4, ReactiveKVar: 1.2, Consumers: 12, Circuits: 2},
			{Name: "P_total", Wildcard: domain.WildcardAll, Basis: domain.BasisInstalled, InstalledKW: 46, DesignKW: 40, Consumers: 14, Circuits: 3},
		},
		Factors: []domain.NamedValue{{Name: "ke", Value: 0.75}},
		Risers:  []domain.RiserResult{{RiserID: "R1", Apartments: 3, InstalledKW: 30, DesignKW: 13.8}},
		Results: []domain.SizingResult{
			{
				CircuitID: "QF1", State: domain.StateSized,
				DesignKW: 10, PowerFactor: 0.9, CurrentA: 16.0375,
				BreakerA: 20, TripCurrentA: 20, SectionMM2: 2.5, CableMark: "5x2.5", ConduitHint: "d20",
				VoltageDropPct: 1.11115, RequestedVoltageDropPct: 0.6944, SectionOverestimated: true,
			},
			{CircuitID: "QF2", State: domain.StateUnresolvable, DesignKW: 900, PowerFactor: 1, CurrentA: 1299.04},
		},
		UnmatchedBrands: []string{"APvBbShv"},
		Checks: []domain.Check{
			{Name: "Unresolvable circuits", Threshold: "= 0", Actual: "1", Pass: false},
			{Name: "Formula evaluated", Threshold: "yes", Actual: "yes", Pass: true},
		},
		Diagnostics: []domain.Diagnostic{
			{Code: domain.CodeRatingRange, Severity: domain.SeverityError, Subject: "QF2", Message: "current 1299.04 A exceeds 1000 A, the largest rating"},
			{Code: domain.CodeCoverage, Severity: domain.SeverityWarning, Subject: "aggregates", Message: "uncovered tags: a|b"},
		},
	}
}

func TestBuild_Rounding(t *testing.T) {
	r := NewGenerator(nil).WithClock(func() time.Time { return renderedAt }).Build(testRun())

	if r.RenderedAt != renderedAt {
		t.Errorf("RenderedAt = %v, want %v", r.RenderedAt, renderedAt)
	}
	if r.Summary.DesignKW != "28.13" {
		t.Errorf("Summary.DesignKW = %q, want 28.13 (half-up)", r.Summary.DesignKW)
	}
	if r.Summary.PowerFactor != "0.912" {
		t.Errorf("Summary.PowerFactor = %q, want 0.912", r.Summary.PowerFactor)
	}

	qf1 := r.Results[0]
	checks := map[string][2]string{
		"CurrentA":         {qf1.CurrentA, "16.04"},
		"BreakerA":         {qf1.BreakerA, "20"},
		"SectionMM2":       {qf1.SectionMM2, "2.5"},
		"PESectionMM2":     {qf1.PESectionMM2, ""},
		"VoltageDropPct":   {qf1.VoltageDropPct, "1.11"},
		"RequestedDropPct": {qf1.RequestedDropPct, "0.69"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("QF1 %s = %q, want %q", name, c[0], c[1])
		}
	}
	if r.Results[1].BreakerA != "" {
		t.Errorf("unresolvable BreakerA = %q, want empty", r.Results[1].BreakerA)
	}
	if r.Results[1].RequestedDropPct != "" {
		t.Errorf("no request: RequestedDropPct = %q, want empty", r.Results[1].RequestedDropPct)
	}

	if r.Aggregates[1].Basis != "installed (all)" {
		t.Errorf("wildcard basis = %q, want %q", r.Aggregates[1].Basis, "installed (all)")
	}
	if r.AllChecksPassed {
		t.Error("AllChecksPassed = true with a failing check")
	}
}

func TestBuild_NoChecksIsNotPassed(t *testing.T) {
	run := testRun()
	run.Checks = nil
	if NewGenerator(nil).Build(run).AllChecksPassed {
		t.Error("AllChecksPassed = true without checks")
	}
}

func TestGenerate_FromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRunStore()
	if err := store.WriteRun(ctx, testRun()); err != nil {
		t.Fatalf("WriteRun failed: %v", err)
	}

	g := NewGenerator(store).WithClock(func() time.Time { return renderedAt })
	r, err := g.Generate(ctx, "0123456789abcdef0123")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(r.Results) != 2 || r.Results[0].CableMark != "5x2.5" {
		t.Errorf("unexpected results: %+v", r.Results)
	}

	_, err = g.Generate(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Generate(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator(nil).WithClock(func() time.Time { return renderedAt })

	first := RenderMarkdown(g.Build(testRun()))
	second := RenderMarkdown(g.Build(testRun()))
	if first != second {
		t.Error("markdown output is not deterministic")
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(NewGenerator(nil).WithClock(func() time.Time { return renderedAt }).Build(testRun()))

	for _, want := range []string{
		"# Distribution Sizing Report",
		"Generated: 2024-01-15T12:00:00Z | Rendered: 2024-01-15T13:00:00Z",
		"| Formula | `P_lighting + P_power * ke` |",
		"| Sized / Partial / Unresolvable | 1 / 0 / 1 |",
		"| Unresolvable circuits | = 0 | 1 | FAIL |",
		"**Some checks failed.**",
		"| ke | 0.750 |",
		"| R1 | 3 | 30.00 | 13.80 | OK |",
		"| QF1 | SIZED | 10.00 | 0.900 | 16.04 | 20 | 20.00 | 5x2.5 |  | d20 | 1.11 | 0.69 | section |",
		"- APvBbShv",
		`uncovered tags: a\|b`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "## Elevators") {
		t.Error("empty elevator section rendered")
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(&Report{})
	for _, want := range []string{"No run checks performed.", "No aggregates defined.", "No circuits sized.", "No diagnostics."} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	r := NewGenerator(nil).Build(testRun())

	results, err := RenderResultsCSV(r.Results)
	if err != nil {
		t.Fatalf("RenderResultsCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(results), "\n")
	if len(lines) != 3 {
		t.Fatalf("results csv has %d lines, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "circuit_id,state,design_kw") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if want := "QF1,SIZED,10.00,0.900,16.04,20,20.00,2.5,,5x2.5,d20,1.11,0.69,false,true,false"; lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}

	diags, err := RenderDiagnosticsCSV(r.Diagnostics)
	if err != nil {
		t.Fatalf("RenderDiagnosticsCSV failed: %v", err)
	}
	if !strings.Contains(diags, `"current 1299.04 A exceeds 1000 A, the largest rating"`) {
		t.Errorf("message with comma not quoted:\n%s", diags)
	}

	aggs, err := RenderAggregatesCSV(r.Aggregates, r.Factors)
	if err != nil {
		t.Fatalf("RenderAggregatesCSV failed: %v", err)
	}
	if !strings.Contains(aggs, "factor,ke,,,0.750,,,") {
		t.Errorf("factor row missing:\n%s", aggs)
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewGenerator(nil).Build(testRun())
	RenderTable(&buf, r)
	RenderChecks(&buf, r.Checks)

	out := buf.String()
	for _, want := range []string{"Project tower-a, run 0123456789ab", "QF1", "5x2.5", "UNRESOLVABLE", "1/0/1", "(2 diagnostics)", "Formula evaluated"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	RenderHistory(&buf, "QF1", nil)
	if got := buf.String(); got != "No archived results for QF1\n" {
		t.Errorf("empty history = %q", got)
	}

	buf.Reset()
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	RenderHistory(&buf, "QF1", []*domain.ArchivedResult{
		{RunID: "0123456789abcdef", ProjectID: "tower-a", GeneratedAt: at.UnixMilli(), Result: domain.SizingResult{
			CircuitID: "QF1", State: domain.StateSized, DesignKW: 3.125, CurrentA: 14.2, BreakerA: 16, CableMark: "3x2.5", VoltageDropPct: 1.005,
		}},
	})
	out := buf.String()
	for _, want := range []string{"2024-01-15T12:00:00Z", "0123456789ab", "SIZED", "3.13", "14.20", "16", "3x2.5", "1.01"} {
		if !strings.Contains(out, want) {
			t.Errorf("history output missing %q:\n%s", want, out)
		}
	}
}
