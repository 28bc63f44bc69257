package reporting

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// RenderResultsCSV renders per-circuit results as CSV string.
func RenderResultsCSV(rows []ResultRow) (string, error) {
	records := [][]string{{
		"circuit_id", "state", "design_kw", "power_factor", "current_a",
		"breaker_a", "trip_current_a", "section_mm2", "pe_section_mm2", "cable_mark", "conduit_hint",
		"voltage_drop_pct", "requested_voltage_drop_pct",
		"breaker_overestimated", "section_overestimated", "voltage_drop_driven",
	}}
	for _, r := range rows {
		records = append(records, []string{
			r.CircuitID, r.State, r.DesignKW, r.PowerFactor, r.CurrentA,
			r.BreakerA, r.TripCurrentA, r.SectionMM2, r.PESectionMM2, r.CableMark, r.ConduitHint,
			r.VoltageDropPct, r.RequestedDropPct,
			strconv.FormatBool(r.BreakerOverestimated), strconv.FormatBool(r.SectionOverestimated), strconv.FormatBool(r.VoltageDropDriven),
		})
	}
	return writeCSV(records)
}

// RenderAggregatesCSV renders power aggregates and demand factors as CSV string.
// Factors are listed with kind "factor" and their value in design_kw.
func RenderAggregatesCSV(aggs []AggregateRow, factors []FactorRow) (string, error) {
	records := [][]string{{"kind", "name", "basis", "installed_kw", "design_kw", "reactive_kvar", "consumers", "circuits"}}
	for _, a := range aggs {
		records = append(records, []string{
			"aggregate", a.Name, a.Basis, a.InstalledKW, a.DesignKW, a.ReactiveKVar,
			strconv.Itoa(a.Consumers), strconv.Itoa(a.Circuits),
		})
	}
	for _, f := range factors {
		records = append(records, []string{"factor", f.Name, "", "", f.Value, "", "", ""})
	}
	return writeCSV(records)
}

// RenderDiagnosticsCSV renders diagnostics as CSV string.
func RenderDiagnosticsCSV(rows []DiagnosticRow) (string, error) {
	records := [][]string{{"severity", "code", "subject", "message"}}
	for _, d := range rows {
		records = append(records, []string{d.Severity, d.Code, d.Subject, d.Message})
	}
	return writeCSV(records)
}

func writeCSV(records [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return sb.String(), nil
}
