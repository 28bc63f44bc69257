package pipeline

import (
	"fmt"

	"distribution-sizer/internal/domain"
)

// Checks evaluates the run checks of a finished report: every circuit sized,
// no operator over-provisioning, voltage drop within the limit, aggregate
// coverage complete and the formula evaluated.
func Checks(report *domain.Report, uncovered int, formulaOK bool, maxDropPct float64) []domain.Check {
	return []domain.Check{
		checkUnresolvable(report.Results),
		checkPartial(report.Results),
		checkOverestimated(report.Results),
		checkVoltageDrop(report.Results, maxDropPct),
		checkCoverage(uncovered),
		checkFormula(formulaOK),
	}
}

// AllPass reports whether every check passed.
func AllPass(checks []domain.Check) bool {
	for _, c := range checks {
		if !c.Pass {
			return false
		}
	}
	return true
}

// checkUnresolvable: unresolvable circuits == 0.
func checkUnresolvable(results []domain.SizingResult) domain.Check {
	n := countState(results, domain.StateUnresolvable)
	return domain.Check{
		Name:      "Unresolvable circuits",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", n),
		Pass:      n == 0,
	}
}

// checkPartial: circuits whose upsizing ran out of table == 0.
func checkPartial(results []domain.SizingResult) domain.Check {
	n := countState(results, domain.StatePartial)
	return domain.Check{
		Name:      "Partial circuits",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", n),
		Pass:      n == 0,
	}
}

// checkOverestimated: circuits with an overestimated breaker or section == 0.
func checkOverestimated(results []domain.SizingResult) domain.Check {
	n := 0
	for _, r := range results {
		if r.BreakerOverestimated || r.SectionOverestimated {
			n++
		}
	}
	return domain.Check{
		Name:      "Overestimated operator choices",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", n),
		Pass:      n == 0,
	}
}

// checkVoltageDrop: largest drop over resolved circuits <= limit.
// A zero limit disables the check.
func checkVoltageDrop(results []domain.SizingResult, maxDropPct float64) domain.Check {
	var worst float64
	var subject string
	for _, r := range results {
		if r.Resolved() && r.VoltageDropPct > worst {
			worst = r.VoltageDropPct
			subject = r.CircuitID
		}
	}
	actual := fmt.Sprintf("%.2f%%", worst)
	if subject != "" {
		actual += " (" + subject + ")"
	}
	if maxDropPct <= 0 {
		return domain.Check{Name: "Max voltage drop", Threshold: "not limited", Actual: actual, Pass: true}
	}
	return domain.Check{
		Name:      "Max voltage drop",
		Threshold: fmt.Sprintf("<= %.2f%%", maxDropPct),
		Actual:    actual,
		Pass:      worst <= maxDropPct,
	}
}

// checkCoverage: classifications no aggregate covers == 0.
func checkCoverage(uncovered int) domain.Check {
	actual := "complete"
	if uncovered > 0 {
		actual = fmt.Sprintf("%d uncovered", uncovered)
	}
	return domain.Check{
		Name:      "Aggregate coverage",
		Threshold: "complete",
		Actual:    actual,
		Pass:      uncovered == 0,
	}
}

// checkFormula: top-level formula evaluated.
func checkFormula(ok bool) domain.Check {
	actual := "no"
	if ok {
		actual = "yes"
	}
	return domain.Check{
		Name:      "Formula evaluated",
		Threshold: "yes",
		Actual:    actual,
		Pass:      ok,
	}
}

func countState(results []domain.SizingResult, state domain.SizingState) int {
	n := 0
	for _, r := range results {
		if r.State == state {
			n++
		}
	}
	return n
}
