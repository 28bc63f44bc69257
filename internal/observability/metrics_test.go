package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"distribution-sizer/internal/domain"
)

func testReport() *domain.Report {
	return &domain.Report{
		RunID:       "run-1",
		ProjectID:   "tower-a",
		GeneratedAt: time.Unix(1735689600, 0),
		Summary:     domain.Summary{InstalledKW: 120, DesignKW: 84.5, CurrentA: 135.6},
		Results: []domain.SizingResult{
			{CircuitID: "QF1", State: domain.StateSized},
			{CircuitID: "QF2", State: domain.StateSized},
			{CircuitID: "QF3", State: domain.StateUnresolvable},
		},
		Diagnostics: []domain.Diagnostic{
			{Code: domain.CodeRatingRange, Severity: domain.SeverityError, Subject: "QF3"},
			{Code: domain.CodeUndersizedRequest, Severity: domain.SeverityWarning, Subject: "QF1"},
		},
	}
}

func TestRecordRun(t *testing.T) {
	m := NewMetrics("test")
	m.RecordRun(testReport(), 20*time.Millisecond)

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("succeeded")); got != 1 {
		t.Errorf("runs_total{succeeded} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Circuits.WithLabelValues("SIZED")); got != 2 {
		t.Errorf("circuits_total{SIZED} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Circuits.WithLabelValues("UNRESOLVABLE")); got != 1 {
		t.Errorf("circuits_total{UNRESOLVABLE} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Diagnostics.WithLabelValues(domain.CodeRatingRange, "ERROR")); got != 1 {
		t.Errorf("diagnostics_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DesignKW); got != 84.5 {
		t.Errorf("design_kw = %v, want 84.5", got)
	}
	if got := testutil.ToFloat64(m.LastSuccessfulRun); got != 1735689600 {
		t.Errorf("last_successful_run_timestamp = %v, want 1735689600", got)
	}
}

func TestRecordRun_Failed(t *testing.T) {
	m := NewMetrics("test")
	m.RecordRun(nil, time.Second)

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("runs_total{failed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LastSuccessfulRun); got != 0 {
		t.Errorf("last_successful_run_timestamp = %v, want 0", got)
	}
}

func TestNewMetrics_Isolated(t *testing.T) {
	// Two instances with the same namespace must not collide.
	a := NewMetrics("")
	b := NewMetrics("")
	a.RecordDBQuery("postgres", "write_run", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(a.DBQueryErrors.WithLabelValues("postgres", "write_run")); got != 1 {
		t.Errorf("a query_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.DBQueryErrors.WithLabelValues("postgres", "write_run")); got != 0 {
		t.Errorf("b query_errors_total = %v, want 0", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics("test")
	m.RecordRun(testReport(), time.Millisecond)

	path := filepath.Join(t.TempDir(), "sizer.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	for _, want := range []string{
		`test_engine_runs_total{status="succeeded"} 1`,
		`test_load_design_kw 84.5`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
