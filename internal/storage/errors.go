package storage

import "errors"

var (
	// ErrNotFound means no circuits are stored for a project, or a run or
	// circuit history is unknown.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means a circuit, riser or run id is already stored.
	// Batches, runs and the result archive are append-only.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput means a batch, report or query lacks a required id.
	ErrInvalidInput = errors.New("invalid input")
)
