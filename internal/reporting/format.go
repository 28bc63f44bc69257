package reporting

import "github.com/shopspring/decimal"

// fixed rounds v half away from zero to places decimals.
func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func kw(v float64) string     { return fixed(v, 2) }
func amps(v float64) string   { return fixed(v, 2) }
func pct(v float64) string    { return fixed(v, 2) }
func factor(v float64) string { return fixed(v, 3) }

// section renders a standard section or rating without trailing zeros,
// and an empty string for zero.
func section(v float64) string {
	if v == 0 {
		return ""
	}
	return decimal.NewFromFloat(v).String()
}

func optionalPct(v float64) string {
	if v == 0 {
		return ""
	}
	return pct(v)
}
