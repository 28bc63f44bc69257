package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const yamlInput = `
project_id: tower-a
circuits:
  - circuit_id: QF1
    installed_kw: 12
    demand_factor: 0.8
    power_factor: 0.9
    phase: three
    length_m: 35
    material: copper
    cable_brand: VVGng-LS
    requested_section_mm2: 6
    group_key: SH1
    classification: Освещение
  - circuit_id: QF2
    design_kw: 9
    power_factor: 0.85
    phase: three
    length_m: 60
    material: copper
    lift_group: L1
    floor_category: high
  - circuit_id: QS0
    phase: three
    length_m: 15
    runs: 2
    cores: 1
    conductors_per_run: 4
    material: aluminium
    feeder: true
risers:
  - riser_id: R1
    tiers:
      - {power_kw: 10, count: 24}
      - {power_kw: 12, count: 6}
`

func TestReader_YAML(t *testing.T) {
	r := NewReader(writeInput(t, "board.yaml", yamlInput))

	batch, err := r.ReadBatch(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "tower-a", batch.ProjectID)
	require.Len(t, batch.Circuits, 3)

	qf1 := batch.Circuits[0]
	assert.Equal(t, "QF1", qf1.CircuitID)
	assert.Equal(t, "tower-a", qf1.ProjectID)
	assert.Equal(t, 0.8, qf1.DemandFactor)
	assert.Equal(t, domain.PhaseThree, qf1.Phase)
	assert.Equal(t, 6.0, qf1.RequestedSectionMM2)
	assert.Equal(t, "Освещение", qf1.Classification)

	assert.Equal(t, domain.FloorCategoryHigh, batch.Circuits[1].FloorCategory)

	qs0 := batch.Circuits[2]
	assert.True(t, qs0.Feeder)
	assert.Equal(t, domain.GeometrySingleCore, qs0.Geometry())
	assert.Equal(t, domain.MaterialAluminium, qs0.Material)

	require.Len(t, batch.Risers, 1)
	assert.Equal(t, []domain.ApartmentTier{{PowerKW: 10, Count: 24}, {PowerKW: 12, Count: 6}}, batch.Risers[0].Tiers)
}

func TestReader_ProjectMismatch(t *testing.T) {
	r := NewReader(writeInput(t, "board.yml", yamlInput))

	_, err := r.ReadBatch(context.Background(), "tower-b")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	batch, err := r.ReadBatch(context.Background(), "tower-a")
	require.NoError(t, err)
	assert.Len(t, batch.Circuits, 3)
}

func TestReader_YAMLUnknownField(t *testing.T) {
	r := NewReader(writeInput(t, "board.yaml", "circuits:\n  - circuit_id: QF1\n    lenght_m: 10\n"))

	_, err := r.ReadBatch(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lenght_m")
}

func TestReader_CSV(t *testing.T) {
	input := "circuit_id,installed_kw,power_factor,phase,length_m,material,group_key,feeder\n" +
		"QF1,10,0.9,three,20,copper,SH1,\n" +
		"QF2, 3 ,1,single,15,copper,SH1,false\n" +
		"QS0,,,three,10,aluminium,,true\n"
	r := NewReader(writeInput(t, "board.csv", input))

	batch, err := r.ReadBatch(context.Background(), "tower-a")
	require.NoError(t, err)

	assert.Equal(t, "tower-a", batch.ProjectID)
	require.Len(t, batch.Circuits, 3)
	assert.Equal(t, 3.0, batch.Circuits[1].InstalledKW)
	assert.Equal(t, domain.PhaseSingle, batch.Circuits[1].Phase)
	assert.Equal(t, "SH1", batch.Circuits[1].GroupKey)
	assert.True(t, batch.Circuits[2].Feeder)
	assert.Empty(t, batch.Risers)
	for _, c := range batch.Circuits {
		assert.Equal(t, "tower-a", c.ProjectID)
	}
}

func TestReader_CSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown column", "circuit_id,colour\nQF1,red\n", `unknown column "colour"`},
		{"bad number", "circuit_id,installed_kw,phase,material\nQF1,ten,three,copper\n", "line 2 column installed_kw"},
		{"bad phase", "circuit_id,phase,material\nQF1,two,copper\n", `unknown phase "two"`},
		{"duplicate id", "circuit_id,phase,material\nQF1,three,copper\nQF1,three,copper\n", "declared twice"},
		{"missing id", "circuit_id,phase,material\n,three,copper\n", "missing circuit_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(writeInput(t, "board.csv", tt.input))
			_, err := r.ReadBatch(context.Background(), "p")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReader_InvalidInputIsWrapped(t *testing.T) {
	r := NewReader(writeInput(t, "board.csv", "circuit_id,phase,material\nQF1,three,gold\n"))
	_, err := r.ReadBatch(context.Background(), "p")
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}

func TestReader_UnsupportedFormat(t *testing.T) {
	r := NewReader(writeInput(t, "board.json", "{}"))
	_, err := r.ReadBatch(context.Background(), "p")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestReader_MissingFile(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := r.ReadBatch(context.Background(), "p")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
