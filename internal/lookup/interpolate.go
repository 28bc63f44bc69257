package lookup

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"distribution-sizer/internal/domain"
)

// Interpolate returns the piecewise-linear value of the table (xs, ys) at x.
// xs may be ascending or descending but must be strictly monotonic.
// Outside the table range the nearest boundary value is returned.
func Interpolate(x float64, xs, ys []float64) (float64, error) {
	if err := CheckMonotonic(xs, ys); err != nil {
		return 0, err
	}
	if math.IsNaN(x) {
		return 0, &domain.DomainError{Reason: "lookup key is NaN"}
	}

	if xs[1] < xs[0] {
		xs, ys = reversed(xs), reversed(ys)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return 0, &domain.DomainError{Reason: err.Error()}
	}
	return pl.Predict(x), nil
}

// Interpolate2D interpolates grid at (col, row). grid[i] is the row keyed by
// rowKeys[i]; every row holds one value per colKeys entry. Each row is first
// interpolated at col, then the column of results is interpolated at row.
// A single-row grid ignores row.
func Interpolate2D(col, row float64, colKeys, rowKeys []float64, grid [][]float64) (float64, error) {
	if len(grid) == 0 {
		return 0, &domain.DomainError{Reason: "empty grid"}
	}
	if len(grid) != len(rowKeys) {
		return 0, &domain.DomainError{
			Reason: fmt.Sprintf("grid has %d rows but %d row keys", len(grid), len(rowKeys)),
		}
	}

	values := make([]float64, len(grid))
	for i, r := range grid {
		v, err := Interpolate(col, colKeys, r)
		if err != nil {
			return 0, fmt.Errorf("row %g: %w", rowKeys[i], err)
		}
		values[i] = v
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return Interpolate(row, rowKeys, values)
}

// CheckMonotonic validates a lookup table without evaluating it.
func CheckMonotonic(xs, ys []float64) error {
	if len(xs) != len(ys) {
		return &domain.DomainError{
			Reason: fmt.Sprintf("%d keys but %d values", len(xs), len(ys)),
		}
	}
	if len(xs) < 2 {
		return &domain.DomainError{
			Reason: fmt.Sprintf("need at least 2 points, got %d", len(xs)),
		}
	}

	if math.IsNaN(ys[0]) {
		return &domain.DomainError{Reason: "NaN at index 0"}
	}
	ascending := xs[1] > xs[0]
	for i := 1; i < len(xs); i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsNaN(xs[i-1]) {
			return &domain.DomainError{Reason: fmt.Sprintf("NaN at index %d", i)}
		}
		if ascending && xs[i] > xs[i-1] {
			continue
		}
		if !ascending && xs[i] < xs[i-1] {
			continue
		}
		return &domain.DomainError{
			Reason: fmt.Sprintf("keys not strictly monotonic at index %d (%g after %g)", i, xs[i], xs[i-1]),
		}
	}
	return nil
}

func reversed(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
