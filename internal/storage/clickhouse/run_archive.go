package clickhouse

import (
	"context"
	"fmt"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/idhash"
	"distribution-sizer/internal/storage"
)

// RunArchive implements storage.RunArchive using ClickHouse.
type RunArchive struct {
	conn *Conn
}

// NewRunArchive creates a new RunArchive.
func NewRunArchive(conn *Conn) *RunArchive {
	return &RunArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.RunArchive = (*RunArchive)(nil)

// Append archives every result of the run in one batch.
// Returns ErrDuplicateKey if run_id was archived before.
func (a *RunArchive) Append(ctx context.Context, report *domain.Report) error {
	if report == nil || report.RunID == "" {
		return storage.ErrInvalidInput
	}
	if len(report.Results) == 0 {
		return nil
	}

	// MergeTree does not enforce uniqueness; check explicitly.
	exists, err := a.exists(ctx, report.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO sizing_result_history (
			result_id, run_id, project_id, generated_at, circuit_id, state,
			design_kw, power_factor, current_a, breaker_a, trip_current_a,
			ampacity_section_mm2, section_mm2, pe_section_mm2, cable_mark, conduit_hint, ampacity_a,
			voltage_drop_pct, voltage_drop_driven, breaker_overestimated, section_overestimated,
			diagnostic_codes
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	generatedAt := uint64(report.GeneratedAt.UnixMilli())
	for _, r := range report.Results {
		codes := make([]string, 0, len(r.Diagnostics))
		for _, d := range r.Diagnostics {
			codes = append(codes, d.Code)
		}
		err = batch.Append(
			idhash.ComputeResultID(report.RunID, r.CircuitID), report.RunID, report.ProjectID, generatedAt, r.CircuitID, string(r.State),
			r.DesignKW, r.PowerFactor, r.CurrentA, r.BreakerA, r.TripCurrentA,
			r.AmpacitySectionMM2, r.SectionMM2, r.PESectionMM2, r.CableMark, r.ConduitHint, r.AmpacityA,
			r.VoltageDropPct, boolToUint8(r.VoltageDropDriven), boolToUint8(r.BreakerOverestimated), boolToUint8(r.SectionOverestimated),
			codes,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// History retrieves archived results of a circuit, ordered by generated_at ASC.
func (a *RunArchive) History(ctx context.Context, projectID, circuitID string) ([]*domain.ArchivedResult, error) {
	query := `
		SELECT
			run_id, project_id, generated_at, circuit_id, state,
			design_kw, power_factor, current_a, breaker_a, trip_current_a,
			ampacity_section_mm2, section_mm2, pe_section_mm2, cable_mark, conduit_hint, ampacity_a,
			voltage_drop_pct, voltage_drop_driven, breaker_overestimated, section_overestimated,
			diagnostic_codes
		FROM sizing_result_history
		WHERE project_id = ? AND circuit_id = ?
		ORDER BY generated_at ASC, run_id ASC
	`

	rows, err := a.conn.Query(ctx, query, projectID, circuitID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var result []*domain.ArchivedResult
	for rows.Next() {
		var (
			ar                       domain.ArchivedResult
			generatedAt              uint64
			state                    string
			dropDriven, bOver, sOver uint8
			codes                    []string
		)
		r := &ar.Result
		err := rows.Scan(
			&ar.RunID, &ar.ProjectID, &generatedAt, &r.CircuitID, &state,
			&r.DesignKW, &r.PowerFactor, &r.CurrentA, &r.BreakerA, &r.TripCurrentA,
			&r.AmpacitySectionMM2, &r.SectionMM2, &r.PESectionMM2, &r.CableMark, &r.ConduitHint, &r.AmpacityA,
			&r.VoltageDropPct, &dropDriven, &bOver, &sOver,
			&codes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		ar.GeneratedAt = int64(generatedAt)
		r.State = domain.SizingState(state)
		r.VoltageDropDriven = dropDriven == 1
		r.BreakerOverestimated = bOver == 1
		r.SectionOverestimated = sOver == 1
		for _, c := range codes {
			r.Diagnostics = append(r.Diagnostics, domain.Diagnostic{Code: c, Subject: r.CircuitID})
		}
		result = append(result, &ar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return result, nil
}

// exists checks if a run was archived.
func (a *RunArchive) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := a.conn.QueryRow(ctx, `SELECT count(*) FROM sizing_result_history WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
