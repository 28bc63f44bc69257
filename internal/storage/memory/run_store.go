package memory

import (
	"context"
	"sync"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
)

// RunStore is an in-memory implementation of storage.ResultWriter.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Report // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.Report),
	}
}

// Compile-time interface check.
var _ storage.ResultWriter = (*RunStore)(nil)

// WriteRun stores the run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) WriteRun(_ context.Context, report *domain.Report) error {
	if report == nil || report.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[report.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[report.RunID] = copyReport(report)
	return nil
}

// GetRun retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetRun(_ context.Context, runID string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyReport(r), nil
}

// copyReport copies the parts of a report a writer persists.
func copyReport(r *domain.Report) *domain.Report {
	cp := &domain.Report{
		RunID:       r.RunID,
		ProjectID:   r.ProjectID,
		GeneratedAt: r.GeneratedAt,
		Summary:     r.Summary,
		Results:     make([]domain.SizingResult, len(r.Results)),
	}
	for i, res := range r.Results {
		res.Diagnostics = append([]domain.Diagnostic(nil), res.Diagnostics...)
		cp.Results[i] = res
	}
	return cp
}
