package sizing

import (
	"fmt"
	"math"
	"strings"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/lookup"
)

// DesignCurrent returns I in amperes for Pp in kW.
// Three-phase: I = P / (sqrt(3) * U_line * cos(phi)); single-phase: I = P / (U_phase * cos(phi)).
func DesignCurrent(designKW, cosPhi float64, phase domain.Phase, lineV, phaseV float64) float64 {
	if cosPhi <= 0 || cosPhi > 1 {
		cosPhi = 1
	}
	if phase == domain.PhaseSingle {
		return designKW * 1000 / (phaseV * cosPhi)
	}
	return designKW * 1000 / (math.Sqrt(3) * lineV * cosPhi)
}

// VoltageDropPct returns dU% = P * L / (C * S * n).
func VoltageDropPct(designKW, lengthM, c, sectionMM2 float64, runs int) float64 {
	if lengthM <= 0 || designKW <= 0 || sectionMM2 <= 0 || c <= 0 {
		return 0
	}
	if runs < 1 {
		runs = 1
	}
	return designKW * lengthM / (c * sectionMM2 * float64(runs))
}

// PESection returns the separate PE section for a phase section split over
// peCount conductors, rounded up to the next standard section.
func PESection(phaseMM2 float64, peCount int, series []float64) (float64, error) {
	if peCount < 1 {
		return 0, nil
	}
	var pe float64
	switch {
	case phaseMM2 <= 16:
		pe = phaseMM2
	case phaseMM2 <= 35:
		pe = 16
	default:
		pe = phaseMM2 / 2
	}
	pe /= float64(peCount)

	i, err := lookup.AtOrAbove(pe, series)
	if err != nil {
		return 0, fmt.Errorf("pe section %g mm2: %w", pe, err)
	}
	return series[i], nil
}

// CableMark renders the cable designation, e.g. 5x16, 2x(5x16) or 4x(1x95).
func CableMark(c *domain.CircuitRecord, sectionMM2 float64) string {
	if sectionMM2 <= 0 {
		return ""
	}
	runs := c.RunCount()

	if c.Geometry() == domain.GeometrySingleCore {
		conductors := c.ConductorsPerRun
		if conductors < 1 {
			conductors = defaultCores(c.Phase)
		}
		var parts []string
		if runs > 1 {
			parts = append(parts, fmt.Sprint(runs))
		}
		parts = append(parts, fmt.Sprint(conductors), fmt.Sprintf("(1x%g)", sectionMM2))
		return strings.Join(parts, "x")
	}

	cores := c.Cores
	if cores < 1 {
		cores = defaultCores(c.Phase)
	}
	mark := fmt.Sprintf("%dx%g", cores, sectionMM2)
	if runs > 1 {
		return fmt.Sprintf("%dx(%s)", runs, mark)
	}
	return mark
}

// defaultCores is L+N+PE or L1+L2+L3+N+PE.
func defaultCores(phase domain.Phase) int {
	if phase == domain.PhaseSingle {
		return 3
	}
	return 5
}
