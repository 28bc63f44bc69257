package residential

import (
	"fmt"
	"sort"

	"distribution-sizer/internal/demand"
	"distribution-sizer/internal/domain"
)

// ElevatorCalculator computes elevator demand per floor-height category.
type ElevatorCalculator struct {
	Low  *domain.DemandTable
	High *domain.DemandTable
}

// Calculate partitions elevator circuits by floor category and resolves the
// simultaneity factor from each category's lift count. Circuits sharing a
// group identifier are excluded and reported with DuplicateGroupError.
// Records without a category count as low-rise.
func (c *ElevatorCalculator) Calculate(circuits []*domain.CircuitRecord) ([]domain.ElevatorResult, []domain.Diagnostic, error) {
	if c.Low == nil || c.High == nil {
		return nil, nil, &domain.ConfigurationError{Table: "elevators", Err: fmt.Errorf("elevator tables not set")}
	}

	byGroup := make(map[string][]*domain.CircuitRecord)
	var order []string
	for _, rec := range circuits {
		group := rec.LiftGroup
		if group == "" {
			group = rec.CircuitID
		}
		if _, ok := byGroup[group]; !ok {
			order = append(order, group)
		}
		byGroup[group] = append(byGroup[group], rec)
	}

	var diags []domain.Diagnostic
	low := domain.ElevatorResult{Category: domain.FloorCategoryLow}
	high := domain.ElevatorResult{Category: domain.FloorCategoryHigh}
	for _, group := range order {
		recs := byGroup[group]
		if len(recs) > 1 {
			ids := make([]string, len(recs))
			for i, r := range recs {
				ids[i] = r.CircuitID
			}
			sort.Strings(ids)
			diags = append(diags, domain.Failure(group, &domain.DuplicateGroupError{GroupID: group, Circuits: ids}))
			continue
		}

		rec := recs[0]
		target := &low
		switch rec.FloorCategory {
		case domain.FloorCategoryHigh:
			target = &high
		case "", domain.FloorCategoryLow:
		default:
			// Counted as low-rise, the category of an unset value.
			diags = append(diags, domain.Warning(rec.CircuitID, &domain.InvalidCircuitError{
				CircuitID: rec.CircuitID, Field: "floor category", Value: string(rec.FloorCategory),
			}))
		}
		target.Lifts += rec.ConsumerCount()
		target.InstalledKW += rec.InstalledKW
	}

	var results []domain.ElevatorResult
	for _, cat := range []struct {
		res   *domain.ElevatorResult
		table *domain.DemandTable
	}{{&low, c.Low}, {&high, c.High}} {
		if cat.res.Lifts == 0 {
			continue
		}
		k, err := demand.Resolve(cat.table, float64(cat.res.Lifts))
		if err != nil {
			return nil, nil, fmt.Errorf("elevators %s: %w", cat.res.Category, err)
		}
		cat.res.Factor = k
		cat.res.DesignKW = k * cat.res.InstalledKW
		results = append(results, *cat.res)
	}
	return results, diags, nil
}

// ElevatorTotals sums installed and design load across categories.
func ElevatorTotals(results []domain.ElevatorResult) (installed, design float64) {
	for _, r := range results {
		installed += r.InstalledKW
		design += r.DesignKW
	}
	return installed, design
}
