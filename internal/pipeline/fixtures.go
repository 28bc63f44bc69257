package pipeline

import (
	"context"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
)

// DemoProjectID is the project of the demonstration batch.
const DemoProjectID = "demo"

// LoadFixtures populates store with the demonstration batch.
func LoadFixtures(ctx context.Context, store storage.CircuitStore) error {
	return store.InsertBatch(ctx, DemoBatch())
}

// DemoBatch returns a residential building board: lighting, ventilation,
// pumps, cooling, two high-rise elevators, two apartment risers and the
// incoming feeder.
func DemoBatch() *domain.Batch {
	circuit := func(id, class string, py, cos float64, phase domain.Phase, length float64) *domain.CircuitRecord {
		return &domain.CircuitRecord{
			CircuitID:      id,
			ProjectID:      DemoProjectID,
			InstalledKW:    py,
			PowerFactor:    cos,
			Phase:          phase,
			LengthM:        length,
			Material:       domain.MaterialCopper,
			Classification: class,
		}
	}

	lighting1 := circuit("QF1", "Освещение МОП", 2.4, 0.95, domain.PhaseSingle, 45)
	lighting1.GroupKey = "ЩО1"
	lighting2 := circuit("QF2", "Освещение МОП", 1.8, 0.95, domain.PhaseSingle, 60)
	lighting2.GroupKey = "ЩО1"
	lighting3 := circuit("QF3", "Наружное освещение", 3.2, 0.95, domain.PhaseSingle, 80)
	lighting3.GroupKey = "ЩО1"

	vent1 := circuit("QF4", "Приточная вентиляция П1", 7.5, 0.85, domain.PhaseThree, 35)
	vent1.GroupKey = "ЩР1"
	vent2 := circuit("QF5", "Вытяжная вентиляция В1", 5.5, 0.85, domain.PhaseThree, 40)
	vent2.GroupKey = "ЩР1"
	vent2.RequestedSectionMM2 = 4
	pump1 := circuit("QF6", "Насос ХВС", 11, 0.87, domain.PhaseThree, 25)
	pump1.GroupKey = "ЩР1"
	pump1.RequestedBreakerA = 32
	pump2 := circuit("QF7", "Насос пожарный", 11, 0.87, domain.PhaseThree, 25)
	pump2.GroupKey = "ЩР1"
	pump2.PEConductors = 1
	cooling := circuit("QF8", "Кондиционирование", 15, 0.8, domain.PhaseThree, 55)
	cooling.CableBrand = "VVGng-LS"

	lift1 := circuit("QF9", "Лифт пассажирский", 7, 0.6, domain.PhaseThree, 70)
	lift1.LiftGroup = "L1"
	lift1.FloorCategory = domain.FloorCategoryHigh
	lift2 := circuit("QF10", "Лифт грузовой", 11, 0.6, domain.PhaseThree, 70)
	lift2.LiftGroup = "L2"
	lift2.FloorCategory = domain.FloorCategoryHigh

	feeder := circuit("QS1", "Ввод", 0, 0, domain.PhaseThree, 30)
	feeder.Feeder = true
	feeder.Runs = 2

	return &domain.Batch{
		ProjectID: DemoProjectID,
		Circuits: []*domain.CircuitRecord{
			lighting1, lighting2, lighting3,
			vent1, vent2, pump1, pump2, cooling,
			lift1, lift2,
			feeder,
		},
		Risers: []*domain.Riser{
			{RiserID: "Ст1", Tiers: []domain.ApartmentTier{{PowerKW: 10, Count: 24}, {PowerKW: 14, Count: 6}}},
			{RiserID: "Ст2", Tiers: []domain.ApartmentTier{{PowerKW: 10, Count: 30}}},
		},
	}
}
