package metrics

import (
	"math"
	"sort"
)

// LTVQuintiles computes the four breakpoints splitting a tenant's LTV
// distribution into five equal-count bands. Input is one lifetime value per
// customer, zeros included for customers who never ordered. Empty input is
// valid and yields all-zero breakpoints.
//
// Breakpoint p is sorted[ceil((n-1)*p)], so [10,20,30,40,50] yields
// p20=20, p40=30, p60=40, p80=50.
func LTVQuintiles(values []float64) Quintiles {
	if len(values) == 0 {
		return Quintiles{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	at := func(p float64) float64 {
		return sorted[int(math.Ceil(float64(len(sorted)-1)*p))]
	}
	return Quintiles{
		P20: at(0.2),
		P40: at(0.4),
		P60: at(0.6),
		P80: at(0.8),
	}
}
