package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Distribution Sizing Report\n\n")
	sb.WriteString(fmt.Sprintf("Project: %s | Run: %s\n\n", r.ProjectID, r.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s | Rendered: %s\n\n",
		r.GeneratedAt.UTC().Format(time.RFC3339), r.RenderedAt.UTC().Format(time.RFC3339)))

	// Summary
	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Formula | `%s` |\n", s.Formula))
	sb.WriteString(fmt.Sprintf("| Installed Py, kW | %s |\n", s.InstalledKW))
	sb.WriteString(fmt.Sprintf("| Design Pp, kW | %s |\n", s.DesignKW))
	sb.WriteString(fmt.Sprintf("| cos φ | %s |\n", s.PowerFactor))
	sb.WriteString(fmt.Sprintf("| Current, A | %s |\n", s.CurrentA))
	sb.WriteString(fmt.Sprintf("| Apparent power, kVA | %s |\n", s.ApparentKVA))
	sb.WriteString(fmt.Sprintf("| Circuits | %d |\n", s.Circuits))
	sb.WriteString(fmt.Sprintf("| Sized / Partial / Unresolvable | %d / %d / %d |\n", s.Sized, s.Partial, s.Unresolvable))
	sb.WriteString("\n")

	// Run checks
	sb.WriteString("## Run Checks\n\n")
	if len(r.Checks) > 0 {
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.Checks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Review the diagnostics below.\n\n")
		}
	} else {
		sb.WriteString("No run checks performed.\n\n")
	}

	// Aggregates
	sb.WriteString("## Power Aggregates\n\n")
	if len(r.Aggregates) > 0 {
		sb.WriteString("| Aggregate | Basis | Py, kW | Pp, kW | Q, kvar | Consumers | Circuits |\n")
		sb.WriteString("|-----------|-------|--------|--------|---------|-----------|----------|\n")
		for _, a := range r.Aggregates {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %d | %d |\n",
				a.Name, a.Basis, a.InstalledKW, a.DesignKW, a.ReactiveKVar, a.Consumers, a.Circuits))
		}
	} else {
		sb.WriteString("No aggregates defined.\n")
	}
	sb.WriteString("\n")

	// Demand factors
	if len(r.Factors) > 0 {
		sb.WriteString("## Demand Factors\n\n")
		sb.WriteString("| Factor | Value |\n")
		sb.WriteString("|--------|-------|\n")
		for _, f := range r.Factors {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", f.Name, f.Value))
		}
		sb.WriteString("\n")
	}

	// Residential
	if len(r.Risers) > 0 {
		sb.WriteString("## Apartment Risers\n\n")
		sb.WriteString("| Riser | Apartments | Py, kW | Pp, kW | Status |\n")
		sb.WriteString("|-------|------------|--------|--------|--------|\n")
		for _, rr := range r.Risers {
			status := "OK"
			if rr.Failed {
				status = "FAILED"
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
				rr.RiserID, rr.Apartments, rr.InstalledKW, rr.DesignKW, status))
		}
		sb.WriteString("\n")
	}
	if len(r.Elevators) > 0 {
		sb.WriteString("## Elevators\n\n")
		sb.WriteString("| Category | Lifts | Py, kW | Factor | Pp, kW |\n")
		sb.WriteString("|----------|-------|--------|--------|--------|\n")
		for _, e := range r.Elevators {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
				e.Category, e.Lifts, e.InstalledKW, e.Factor, e.DesignKW))
		}
		sb.WriteString("\n")
	}

	// Circuits
	sb.WriteString("## Circuits\n\n")
	if len(r.Results) > 0 {
		sb.WriteString("| Circuit | State | Pp, kW | cos φ | I, A | QF, A | Itrip, A | Cable | PE, mm² | Conduit | ΔU, % | ΔU req, % | Overestimated |\n")
		sb.WriteString("|---------|-------|--------|-------|------|-------|----------|-------|---------|---------|-------|-----------|---------------|\n")
		for _, res := range r.Results {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				res.CircuitID, res.State, res.DesignKW, res.PowerFactor, res.CurrentA,
				res.BreakerA, res.TripCurrentA, res.CableMark, res.PESectionMM2, res.ConduitHint,
				res.VoltageDropPct, res.RequestedDropPct, overestimated(res)))
		}
	} else {
		sb.WriteString("No circuits sized.\n")
	}
	sb.WriteString("\n")

	// Unmatched brands
	if len(r.UnmatchedBrands) > 0 {
		sb.WriteString("## Unmatched Cable Brands\n\n")
		sb.WriteString("Sized on the default tables:\n\n")
		for _, b := range r.UnmatchedBrands {
			sb.WriteString(fmt.Sprintf("- %s\n", b))
		}
		sb.WriteString("\n")
	}

	// Diagnostics
	sb.WriteString("## Diagnostics\n\n")
	if len(r.Diagnostics) > 0 {
		sb.WriteString("| Severity | Code | Subject | Message |\n")
		sb.WriteString("|----------|------|---------|---------|\n")
		for _, d := range r.Diagnostics {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				d.Severity, d.Code, d.Subject, strings.ReplaceAll(d.Message, "|", `\|`)))
		}
	} else {
		sb.WriteString("No diagnostics.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// overestimated summarises the two operator flags.
func overestimated(res ResultRow) string {
	var parts []string
	if res.BreakerOverestimated {
		parts = append(parts, "breaker")
	}
	if res.SectionOverestimated {
		parts = append(parts, "section")
	}
	return strings.Join(parts, ", ")
}
