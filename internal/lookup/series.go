package lookup

import (
	"errors"
	"math"
)

// Errors returned by series lookups.
var (
	ErrEmptySeries  = errors.New("empty standard series")
	ErrAboveSeries  = errors.New("value above largest standard value")
	ErrNotInSeries  = errors.New("value not in standard series")
	ErrEndOfSeries  = errors.New("no larger standard value")
	ErrUnsortedData = errors.New("standard series not strictly ascending")
)

// tolerance absorbs float noise when matching standard values.
const tolerance = 1e-9

// AtOrAbove returns the index of the smallest standard value >= x.
// series must be ascending. Returns ErrAboveSeries when x exceeds the last value.
func AtOrAbove(x float64, series []float64) (int, error) {
	if len(series) == 0 {
		return -1, ErrEmptySeries
	}
	for i, v := range series {
		if v >= x-tolerance {
			return i, nil
		}
	}
	return -1, ErrAboveSeries
}

// IndexOf returns the index of the standard value equal to v.
func IndexOf(v float64, series []float64) (int, error) {
	for i, s := range series {
		if math.Abs(s-v) <= tolerance {
			return i, nil
		}
	}
	return -1, ErrNotInSeries
}

// Next returns the index following i, or ErrEndOfSeries at the last value.
func Next(i int, series []float64) (int, error) {
	if i+1 >= len(series) {
		return i, ErrEndOfSeries
	}
	return i + 1, nil
}

// CheckAscending validates a standard series.
func CheckAscending(series []float64) error {
	if len(series) == 0 {
		return ErrEmptySeries
	}
	for i := 1; i < len(series); i++ {
		if series[i] <= series[i-1] {
			return ErrUnsortedData
		}
	}
	if series[0] <= 0 {
		return errors.New("standard values must be positive")
	}
	return nil
}
