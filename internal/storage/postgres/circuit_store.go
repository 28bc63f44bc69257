package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
)

// CircuitStore implements storage.CircuitStore using PostgreSQL.
type CircuitStore struct {
	pool *Pool
}

// NewCircuitStore creates a new CircuitStore.
func NewCircuitStore(pool *Pool) *CircuitStore {
	return &CircuitStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CircuitStore = (*CircuitStore)(nil)

const circuitColumns = `
	circuit_id, project_id,
	installed_kw, design_kw, demand_factor, power_factor, consumers,
	phase, length_m, runs, conductors_per_run, cores, material, cable_brand,
	requested_section_mm2, requested_breaker_a, pe_conductors,
	group_key, classification, lift_group, floor_category, feeder`

// InsertBatch adds circuits and risers atomically. Fails entire batch on any duplicate.
func (s *CircuitStore) InsertBatch(ctx context.Context, batch *domain.Batch) error {
	if batch == nil || batch.ProjectID == "" {
		return storage.ErrInvalidInput
	}
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := insertCircuits(ctx, tx, batch); err != nil {
			return err
		}
		return insertRisers(ctx, tx, batch)
	})
}

// insertCircuits appends after the project's last stored position so that
// repeated imports keep file order.
func insertCircuits(ctx context.Context, tx pgx.Tx, batch *domain.Batch) error {
	var offset int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM circuits WHERE project_id = $1`,
		batch.ProjectID,
	).Scan(&offset); err != nil {
		return fmt.Errorf("next circuit position: %w", err)
	}

	query := `
		INSERT INTO circuits (` + circuitColumns + `, position)
		VALUES (
			$1, $2,
			$3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20, $21, $22,
			$23
		)
	`
	for i, c := range batch.Circuits {
		if c == nil || c.CircuitID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			c.CircuitID, batch.ProjectID,
			c.InstalledKW, c.DesignKW, c.DemandFactor, c.PowerFactor, c.Consumers,
			string(c.Phase), c.LengthM, c.Runs, c.ConductorsPerRun, c.Cores, string(c.Material), c.CableBrand,
			c.RequestedSectionMM2, c.RequestedBreakerA, c.PEConductors,
			c.GroupKey, c.Classification, c.LiftGroup, string(c.FloorCategory), c.Feeder,
			offset+i,
		)
		if err != nil {
			return storageError("insert circuit "+c.CircuitID, err)
		}
	}
	return nil
}

// insertRisers stores each riser's tiers. A riser id already present for the
// project is a duplicate even though its tier rows would not collide.
func insertRisers(ctx context.Context, tx pgx.Tx, batch *domain.Batch) error {
	for _, r := range batch.Risers {
		if r == nil || r.RiserID == "" {
			return storage.ErrInvalidInput
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM riser_tiers WHERE project_id = $1 AND riser_id = $2)`,
			batch.ProjectID, r.RiserID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check riser %s: %w", r.RiserID, err)
		}
		if exists {
			return fmt.Errorf("riser %s: %w", r.RiserID, storage.ErrDuplicateKey)
		}
		for pos, t := range r.Tiers {
			_, err := tx.Exec(ctx, `
				INSERT INTO riser_tiers (project_id, riser_id, position, power_kw, count)
				VALUES ($1, $2, $3, $4, $5)
			`, batch.ProjectID, r.RiserID, pos, t.PowerKW, t.Count)
			if err != nil {
				return storageError("insert riser "+r.RiserID, err)
			}
		}
	}
	return nil
}

// ReadBatch returns the project's circuits in insertion order with its risers.
func (s *CircuitStore) ReadBatch(ctx context.Context, projectID string) (*domain.Batch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+circuitColumns+`
		FROM circuits
		WHERE project_id = $1
		ORDER BY position ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query circuits: %w", err)
	}
	circuits, err := scanCircuits(rows)
	if err != nil {
		return nil, err
	}
	if len(circuits) == 0 {
		return nil, storage.ErrNotFound
	}

	risers, err := s.readRisers(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &domain.Batch{
		ProjectID: projectID,
		Circuits:  circuits,
		Risers:    risers,
	}, nil
}

func (s *CircuitStore) readRisers(ctx context.Context, projectID string) ([]*domain.Riser, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT riser_id, power_kw, count
		FROM riser_tiers
		WHERE project_id = $1
		ORDER BY riser_id ASC, position ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query riser tiers: %w", err)
	}
	defer rows.Close()

	var risers []*domain.Riser
	for rows.Next() {
		var id string
		var t domain.ApartmentTier
		if err := rows.Scan(&id, &t.PowerKW, &t.Count); err != nil {
			return nil, fmt.Errorf("scan riser tier: %w", err)
		}
		if len(risers) == 0 || risers[len(risers)-1].RiserID != id {
			risers = append(risers, &domain.Riser{RiserID: id})
		}
		last := risers[len(risers)-1]
		last.Tiers = append(last.Tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate riser tiers: %w", err)
	}
	return risers, nil
}

// scanCircuits scans multiple rows into a slice.
func scanCircuits(rows pgx.Rows) ([]*domain.CircuitRecord, error) {
	defer rows.Close()

	var circuits []*domain.CircuitRecord
	for rows.Next() {
		var c domain.CircuitRecord
		var phase, material, floor string
		err := rows.Scan(
			&c.CircuitID, &c.ProjectID,
			&c.InstalledKW, &c.DesignKW, &c.DemandFactor, &c.PowerFactor, &c.Consumers,
			&phase, &c.LengthM, &c.Runs, &c.ConductorsPerRun, &c.Cores, &material, &c.CableBrand,
			&c.RequestedSectionMM2, &c.RequestedBreakerA, &c.PEConductors,
			&c.GroupKey, &c.Classification, &c.LiftGroup, &floor, &c.Feeder,
		)
		if err != nil {
			return nil, fmt.Errorf("scan circuit row: %w", err)
		}
		c.Phase = domain.Phase(phase)
		c.Material = domain.Material(material)
		c.FloorCategory = domain.FloorCategory(floor)
		circuits = append(circuits, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate circuits: %w", err)
	}
	return circuits, nil
}
