package storage

import (
	"context"

	"distribution-sizer/internal/domain"
)

// CircuitReader is the model reader: it supplies the circuit records and
// risers of a project.
type CircuitReader interface {
	// ReadBatch returns the input of one engine run. Returns ErrNotFound if the
	// project has no circuits.
	ReadBatch(ctx context.Context, projectID string) (*domain.Batch, error)
}

// CircuitStore is a CircuitReader that can also be loaded with input data.
type CircuitStore interface {
	CircuitReader

	// InsertBatch adds circuits and risers atomically. Fails entire batch on any
	// duplicate (project_id, circuit_id) or (project_id, riser_id).
	InsertBatch(ctx context.Context, batch *domain.Batch) error
}

// ResultWriter is the model writer: it applies the results of one run.
type ResultWriter interface {
	// WriteRun stores the run summary and every per-circuit result in one
	// transaction. Nothing is written on error. Returns ErrDuplicateKey if the
	// run_id exists.
	WriteRun(ctx context.Context, report *domain.Report) error

	// GetRun retrieves the summary and results of a stored run. Returns
	// ErrNotFound if not exists.
	GetRun(ctx context.Context, runID string) (*domain.Report, error)
}

// RunArchive keeps every per-circuit result of every run, append-only.
type RunArchive interface {
	// Append archives the results of a run. Returns ErrDuplicateKey if the
	// run_id was archived before.
	Append(ctx context.Context, report *domain.Report) error

	// History retrieves the archived results of a circuit, ordered by
	// generated_at ASC.
	History(ctx context.Context, projectID, circuitID string) ([]*domain.ArchivedResult, error)
}
