package memory

import (
	"context"
	"sync"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
)

// CircuitStore is an in-memory implementation of storage.CircuitStore.
type CircuitStore struct {
	mu       sync.RWMutex
	circuits map[string][]*domain.CircuitRecord // keyed by project_id, in insertion order
	risers   map[string][]*domain.Riser
}

// NewCircuitStore creates a new in-memory circuit store.
func NewCircuitStore() *CircuitStore {
	return &CircuitStore{
		circuits: make(map[string][]*domain.CircuitRecord),
		risers:   make(map[string][]*domain.Riser),
	}
}

// Compile-time interface check.
var _ storage.CircuitStore = (*CircuitStore)(nil)

// InsertBatch adds circuits and risers atomically. Fails entire batch on any duplicate.
func (s *CircuitStore) InsertBatch(_ context.Context, batch *domain.Batch) error {
	if batch == nil || batch.ProjectID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	circuitKeys := make(map[string]struct{})
	for _, c := range s.circuits[batch.ProjectID] {
		circuitKeys[c.CircuitID] = struct{}{}
	}
	for _, c := range batch.Circuits {
		if c == nil || c.CircuitID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := circuitKeys[c.CircuitID]; exists {
			return storage.ErrDuplicateKey
		}
		circuitKeys[c.CircuitID] = struct{}{}
	}

	riserKeys := make(map[string]struct{})
	for _, r := range s.risers[batch.ProjectID] {
		riserKeys[r.RiserID] = struct{}{}
	}
	for _, r := range batch.Risers {
		if r == nil || r.RiserID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := riserKeys[r.RiserID]; exists {
			return storage.ErrDuplicateKey
		}
		riserKeys[r.RiserID] = struct{}{}
	}

	// Second pass: insert all
	for _, c := range batch.Circuits {
		cp := *c
		cp.ProjectID = batch.ProjectID
		s.circuits[batch.ProjectID] = append(s.circuits[batch.ProjectID], &cp)
	}
	for _, r := range batch.Risers {
		s.risers[batch.ProjectID] = append(s.risers[batch.ProjectID], copyRiser(r))
	}
	return nil
}

// ReadBatch returns copies of the project's circuits and risers in insertion order.
func (s *CircuitStore) ReadBatch(_ context.Context, projectID string) (*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	circuits, ok := s.circuits[projectID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	batch := &domain.Batch{ProjectID: projectID}
	for _, c := range circuits {
		cp := *c
		batch.Circuits = append(batch.Circuits, &cp)
	}
	for _, r := range s.risers[projectID] {
		batch.Risers = append(batch.Risers, copyRiser(r))
	}
	return batch, nil
}

func copyRiser(r *domain.Riser) *domain.Riser {
	cp := *r
	cp.Tiers = append([]domain.ApartmentTier(nil), r.Tiers...)
	return &cp
}
