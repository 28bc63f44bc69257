package memory

import (
	"context"
	"sort"
	"sync"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
)

// RunArchive is an in-memory implementation of storage.RunArchive.
type RunArchive struct {
	mu   sync.RWMutex
	runs map[string]struct{}      // archived run ids
	data []*domain.ArchivedResult // append-only
}

// NewRunArchive creates a new in-memory run archive.
func NewRunArchive() *RunArchive {
	return &RunArchive{
		runs: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.RunArchive = (*RunArchive)(nil)

// Append archives every result of the run. Returns ErrDuplicateKey if run_id exists.
func (a *RunArchive) Append(_ context.Context, report *domain.Report) error {
	if report == nil || report.RunID == "" {
		return storage.ErrInvalidInput
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.runs[report.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	a.runs[report.RunID] = struct{}{}

	generatedAt := report.GeneratedAt.UnixMilli()
	for _, res := range report.Results {
		res.Diagnostics = append([]domain.Diagnostic(nil), res.Diagnostics...)
		a.data = append(a.data, &domain.ArchivedResult{
			RunID:       report.RunID,
			ProjectID:   report.ProjectID,
			GeneratedAt: generatedAt,
			Result:      res,
		})
	}
	return nil
}

// History retrieves archived results of a circuit, ordered by generated_at ASC.
func (a *RunArchive) History(_ context.Context, projectID, circuitID string) ([]*domain.ArchivedResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []*domain.ArchivedResult
	for _, r := range a.data {
		if r.ProjectID == projectID && r.Result.CircuitID == circuitID {
			cp := *r
			result = append(result, &cp)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].GeneratedAt < result[j].GeneratedAt
	})
	return result, nil
}
