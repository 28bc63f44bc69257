package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"distribution-sizer/internal/domain"
)

// RenderTable writes the summary and per-circuit results as terminal tables.
func RenderTable(w io.Writer, r *Report) {
	s := r.Summary
	_, _ = fmt.Fprintf(w, "Project %s, run %s\n", r.ProjectID, shortID(r.RunID))
	_, _ = fmt.Fprintf(w, "Pp = %s kW, cos φ = %s, I = %s A, S = %s kVA (%s)\n",
		s.DesignKW, s.PowerFactor, s.CurrentA, s.ApparentKVA, s.Formula)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Circuit", "State", "Pp, kW", "I, A", "QF, A", "Cable", "PE", "Conduit", "ΔU, %", "Over"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})
	for _, res := range r.Results {
		t.AppendRow(table.Row{
			res.CircuitID, res.State, res.DesignKW, res.CurrentA, res.BreakerA,
			res.CableMark, res.PESectionMM2, res.ConduitHint, res.VoltageDropPct, overestimated(res),
		})
	}
	t.AppendFooter(table.Row{"", "", s.DesignKW, s.CurrentA, "", "", "", "", "",
		fmt.Sprintf("%d/%d/%d", s.Sized, s.Partial, s.Unresolvable)})
	t.Render()

	if len(r.Diagnostics) > 0 {
		_, _ = fmt.Fprintf(w, "(%d diagnostics)\n", len(r.Diagnostics))
	}
}

// RenderChecks writes the run checks as a terminal table.
func RenderChecks(w io.Writer, checks []CheckRow) {
	if len(checks) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Check", "Threshold", "Actual", "Status"})
	for _, c := range checks {
		status := "FAIL"
		if c.Pass {
			status = "PASS"
		}
		t.AppendRow(table.Row{c.Name, c.Threshold, c.Actual, status})
	}
	t.Render()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// RenderHistory writes the archived results of one circuit, oldest first.
func RenderHistory(w io.Writer, circuitID string, history []*domain.ArchivedResult) {
	if len(history) == 0 {
		_, _ = fmt.Fprintf(w, "No archived results for %s\n", circuitID)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("History of " + circuitID)
	t.AppendHeader(table.Row{"Generated", "Run", "State", "Pp, kW", "I, A", "QF, A", "Cable", "ΔU, %"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	for _, h := range history {
		res := h.Result
		t.AppendRow(table.Row{
			time.UnixMilli(h.GeneratedAt).UTC().Format(time.RFC3339),
			shortID(h.RunID), res.State, kw(res.DesignKW), amps(res.CurrentA),
			section(res.BreakerA), res.CableMark, pct(res.VoltageDropPct),
		})
	}
	t.Render()
}
