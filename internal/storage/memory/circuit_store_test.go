package memory

import (
	"context"
	"errors"
	"testing"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
)

func testBatch() *domain.Batch {
	return &domain.Batch{
		ProjectID: "house-1",
		Circuits: []*domain.CircuitRecord{
			{CircuitID: "QF1", InstalledKW: 10, Phase: domain.PhaseThree, Material: domain.MaterialCopper},
			{CircuitID: "QF2", InstalledKW: 3, Phase: domain.PhaseSingle, Material: domain.MaterialCopper},
		},
		Risers: []*domain.Riser{
			{RiserID: "R1", Tiers: []domain.ApartmentTier{{PowerKW: 10, Count: 12}}},
		},
	}
}

func TestCircuitStore_InsertAndRead(t *testing.T) {
	store := NewCircuitStore()
	ctx := context.Background()

	if err := store.InsertBatch(ctx, testBatch()); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := store.ReadBatch(ctx, "house-1")
	if err != nil {
		t.Fatalf("ReadBatch failed: %v", err)
	}
	if len(got.Circuits) != 2 {
		t.Fatalf("expected 2 circuits, got %d", len(got.Circuits))
	}
	if got.Circuits[0].CircuitID != "QF1" || got.Circuits[1].CircuitID != "QF2" {
		t.Errorf("circuits out of insertion order: %s, %s", got.Circuits[0].CircuitID, got.Circuits[1].CircuitID)
	}
	if got.Circuits[0].ProjectID != "house-1" {
		t.Errorf("ProjectID not set: %q", got.Circuits[0].ProjectID)
	}
	if len(got.Risers) != 1 || got.Risers[0].Tiers[0].Count != 12 {
		t.Errorf("riser mismatch: %+v", got.Risers)
	}

	// Mutating the returned batch must not touch the store.
	got.Circuits[0].DesignKW = 99
	got.Risers[0].Tiers[0].Count = 1
	again, _ := store.ReadBatch(ctx, "house-1")
	if again.Circuits[0].DesignKW != 0 || again.Risers[0].Tiers[0].Count != 12 {
		t.Error("store returned shared records")
	}
}

func TestCircuitStore_DuplicateKey(t *testing.T) {
	store := NewCircuitStore()
	ctx := context.Background()

	if err := store.InsertBatch(ctx, testBatch()); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.InsertBatch(ctx, &domain.Batch{
		ProjectID: "house-1",
		Circuits:  []*domain.CircuitRecord{{CircuitID: "QF3"}, {CircuitID: "QF1"}},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Atomic: QF3 must not have been inserted.
	got, _ := store.ReadBatch(ctx, "house-1")
	if len(got.Circuits) != 2 {
		t.Errorf("expected 2 circuits after failed batch, got %d", len(got.Circuits))
	}
}

func TestCircuitStore_IntraBatchDuplicate(t *testing.T) {
	store := NewCircuitStore()

	err := store.InsertBatch(context.Background(), &domain.Batch{
		ProjectID: "p",
		Risers:    []*domain.Riser{{RiserID: "R1"}, {RiserID: "R1"}},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestCircuitStore_NotFoundAndInvalid(t *testing.T) {
	store := NewCircuitStore()
	ctx := context.Background()

	if _, err := store.ReadBatch(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.InsertBatch(ctx, &domain.Batch{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
