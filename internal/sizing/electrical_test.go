package sizing

import (
	"math"
	"testing"

	"distribution-sizer/internal/domain"
)

func TestDesignCurrent(t *testing.T) {
	tests := []struct {
		name   string
		kw     float64
		cosPhi float64
		phase  domain.Phase
		want   float64
	}{
		{"three-phase", 10, 0.9, domain.PhaseThree, 16.0375},
		{"single-phase", 3, 1, domain.PhaseSingle, 13.0435},
		{"cos phi out of range treated as 1", 3, 0, domain.PhaseSingle, 13.0435},
		{"cos phi above 1 treated as 1", 3, 1.2, domain.PhaseSingle, 13.0435},
		{"zero load", 0, 0.9, domain.PhaseThree, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DesignCurrent(tt.kw, tt.cosPhi, tt.phase, 400, 230)
			if math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("DesignCurrent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVoltageDropPct(t *testing.T) {
	// 10 kW over 200 m of 10 mm2 copper: 10*200/(72*10)
	if got := VoltageDropPct(10, 200, 72, 10, 1); math.Abs(got-2.7778) > 1e-3 {
		t.Errorf("VoltageDropPct() = %v, want 2.7778", got)
	}
	if got := VoltageDropPct(10, 200, 72, 10, 2); math.Abs(got-1.3889) > 1e-3 {
		t.Errorf("two runs: VoltageDropPct() = %v, want 1.3889", got)
	}
	if got := VoltageDropPct(10, 0, 72, 10, 1); got != 0 {
		t.Errorf("zero length: VoltageDropPct() = %v, want 0", got)
	}
}

func TestPESection(t *testing.T) {
	series := defaultSet(t).Series.SectionsMM2

	tests := []struct {
		phase float64
		count int
		want  float64
	}{
		{10, 1, 10},
		{16, 1, 16},
		{25, 1, 16},
		{35, 1, 16},
		{95, 1, 50}, // 47.5 rounded up
		{95, 2, 25}, // 23.75 rounded up
		{300, 1, 150},
		{16, 0, 0},
	}

	for _, tt := range tests {
		got, err := PESection(tt.phase, tt.count, series)
		if err != nil {
			t.Fatalf("PESection(%v, %d): %v", tt.phase, tt.count, err)
		}
		if got != tt.want {
			t.Errorf("PESection(%v, %d) = %v, want %v", tt.phase, tt.count, got, tt.want)
		}
	}
}

func TestCableMark(t *testing.T) {
	tests := []struct {
		name    string
		circuit domain.CircuitRecord
		section float64
		want    string
	}{
		{"three-phase multi-core", domain.CircuitRecord{Phase: domain.PhaseThree}, 16, "5x16"},
		{"single-phase multi-core", domain.CircuitRecord{Phase: domain.PhaseSingle}, 2.5, "3x2.5"},
		{"explicit cores", domain.CircuitRecord{Phase: domain.PhaseThree, Cores: 4}, 35, "4x35"},
		{"parallel multi-core", domain.CircuitRecord{Phase: domain.PhaseThree, Runs: 2}, 16, "2x(5x16)"},
		{"single-core", domain.CircuitRecord{Phase: domain.PhaseThree, Cores: 1, ConductorsPerRun: 4}, 95, "4x(1x95)"},
		{"parallel single-core", domain.CircuitRecord{Phase: domain.PhaseThree, Cores: 1, ConductorsPerRun: 4, Runs: 2}, 95, "2x4x(1x95)"},
		{"no section", domain.CircuitRecord{Phase: domain.PhaseThree}, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CableMark(&tt.circuit, tt.section); got != tt.want {
				t.Errorf("CableMark() = %q, want %q", got, tt.want)
			}
		})
	}
}
