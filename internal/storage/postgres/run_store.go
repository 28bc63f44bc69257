package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
)

// RunStore implements storage.ResultWriter using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultWriter = (*RunStore)(nil)

// WriteRun stores the run summary and all results in one transaction.
// Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) WriteRun(ctx context.Context, report *domain.Report) error {
	if report == nil || report.RunID == "" {
		return storage.ErrInvalidInput
	}
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := insertRun(ctx, tx, report); err != nil {
			return err
		}
		return insertResults(ctx, tx, report)
	})
}

func insertRun(ctx context.Context, tx pgx.Tx, report *domain.Report) error {
	sum := report.Summary
	_, err := tx.Exec(ctx, `
		INSERT INTO sizing_runs (
			run_id, project_id, generated_at,
			formula, installed_kw, design_kw, power_factor, current_a, apparent_kva,
			circuit_count, sized, partial, unresolvable
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13
		)
	`,
		report.RunID, report.ProjectID, report.GeneratedAt.UnixMilli(),
		sum.Formula, sum.InstalledKW, sum.DesignKW, sum.PowerFactor, sum.CurrentA, sum.ApparentKVA,
		sum.CircuitCount, sum.Sized, sum.Partial, sum.Unresolvable,
	)
	if err != nil {
		return storageError("insert sizing run", err)
	}
	return nil
}

// insertResults keeps the report order in the position column.
func insertResults(ctx context.Context, tx pgx.Tx, report *domain.Report) error {
	query := `
		INSERT INTO sizing_results (
			run_id, circuit_id, position, state,
			design_kw, power_factor, current_a, breaker_a, trip_current_a,
			ampacity_section_mm2, section_mm2, pe_section_mm2, cable_mark, conduit_hint, ampacity_a,
			voltage_drop_pct, requested_voltage_drop_pct, voltage_drop_driven,
			breaker_overestimated, section_overestimated,
			breaker_group_factor, cable_group_factor, diagnostics
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15,
			$16, $17, $18,
			$19, $20,
			$21, $22, $23
		)
	`
	for i, r := range report.Results {
		diags := r.Diagnostics
		if diags == nil {
			diags = []domain.Diagnostic{}
		}
		_, err := tx.Exec(ctx, query,
			report.RunID, r.CircuitID, i, string(r.State),
			r.DesignKW, r.PowerFactor, r.CurrentA, r.BreakerA, r.TripCurrentA,
			r.AmpacitySectionMM2, r.SectionMM2, r.PESectionMM2, r.CableMark, r.ConduitHint, r.AmpacityA,
			r.VoltageDropPct, r.RequestedVoltageDropPct, r.VoltageDropDriven,
			r.BreakerOverestimated, r.SectionOverestimated,
			r.BreakerGroupFactor, r.CableGroupFactor, diags,
		)
		if err != nil {
			return storageError("insert sizing result "+r.CircuitID, err)
		}
	}
	return nil
}

// GetRun retrieves a stored run. Returns ErrNotFound if not exists.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*domain.Report, error) {
	report := &domain.Report{RunID: runID}
	sum := &report.Summary
	var generatedAt int64

	err := s.pool.QueryRow(ctx, `
		SELECT
			project_id, generated_at,
			formula, installed_kw, design_kw, power_factor, current_a, apparent_kva,
			circuit_count, sized, partial, unresolvable
		FROM sizing_runs
		WHERE run_id = $1
	`, runID).Scan(
		&report.ProjectID, &generatedAt,
		&sum.Formula, &sum.InstalledKW, &sum.DesignKW, &sum.PowerFactor, &sum.CurrentA, &sum.ApparentKVA,
		&sum.CircuitCount, &sum.Sized, &sum.Partial, &sum.Unresolvable,
	)
	if err != nil {
		return nil, storageError("get sizing run "+runID, err)
	}
	report.GeneratedAt = time.UnixMilli(generatedAt).UTC()

	rows, err := s.pool.Query(ctx, `
		SELECT
			circuit_id, state,
			design_kw, power_factor, current_a, breaker_a, trip_current_a,
			ampacity_section_mm2, section_mm2, pe_section_mm2, cable_mark, conduit_hint, ampacity_a,
			voltage_drop_pct, requested_voltage_drop_pct, voltage_drop_driven,
			breaker_overestimated, section_overestimated,
			breaker_group_factor, cable_group_factor, diagnostics
		FROM sizing_results
		WHERE run_id = $1
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query sizing results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.SizingResult
		var state string
		err := rows.Scan(
			&r.CircuitID, &state,
			&r.DesignKW, &r.PowerFactor, &r.CurrentA, &r.BreakerA, &r.TripCurrentA,
			&r.AmpacitySectionMM2, &r.SectionMM2, &r.PESectionMM2, &r.CableMark, &r.ConduitHint, &r.AmpacityA,
			&r.VoltageDropPct, &r.RequestedVoltageDropPct, &r.VoltageDropDriven,
			&r.BreakerOverestimated, &r.SectionOverestimated,
			&r.BreakerGroupFactor, &r.CableGroupFactor, &r.Diagnostics,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sizing result row: %w", err)
		}
		r.State = domain.SizingState(state)
		if len(r.Diagnostics) == 0 {
			r.Diagnostics = nil
		}
		report.Results = append(report.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sizing results: %w", err)
	}
	return report, nil
}
